package usecase

import (
	"context"
	"strings"

	"github.com/perpdesk/perpdesk/internal/domain/config"
)

// ShowConfigResult is the saved local config next to what this invocation
// actually runs with
type ShowConfigResult struct {
	Config     *config.LocalConfig
	Runtime    *config.RuntimeConfig
	ConfigPath string
	Exists     bool

	// Overrides holds the effective value of every saved key that a flag,
	// environment variable or perpdesk.toml replaced
	Overrides map[config.ConfigKey]string
}

// ShowConfig reports the local config and the runtime values in effect
type ShowConfig struct {
	runtime *config.RuntimeConfig
	store   LocalConfigRepository
}

// NewShowConfig creates a new ShowConfig use case
func NewShowConfig(runtime *config.RuntimeConfig, store LocalConfigRepository) *ShowConfig {
	return &ShowConfig{
		runtime: runtime,
		store:   store,
	}
}

// Run loads the saved config and compares it with the runtime config
func (uc *ShowConfig) Run(ctx context.Context) (*ShowConfigResult, error) {
	saved, err := uc.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	result := &ShowConfigResult{
		Config:     saved,
		Runtime:    uc.runtime,
		ConfigPath: uc.store.GetPath(),
		Exists:     uc.store.Exists(),
		Overrides:  map[config.ConfigKey]string{},
	}
	if uc.runtime == nil {
		return result, nil
	}

	if acct := uc.runtime.Account; acct != "" && !strings.EqualFold(acct, saved.Account) {
		result.Overrides[config.ConfigKeyAccount] = acct
	}
	if signer := uc.runtime.Signer.Type; signer != "" && signer != saved.Signer {
		result.Overrides[config.ConfigKeySigner] = string(signer)
	}
	return result, nil
}
