package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/perpdesk/perpdesk/internal/domain/config"
)

// PerpFileName is the project configuration file
const PerpFileName = "perpdesk.toml"

// loadPerpFile loads .env files and then perpdesk.toml. It returns nil when
// the project has no perpdesk.toml.
func loadPerpFile(projectRoot string) (*config.PerpFileConfig, error) {
	// Load .env files first for variable expansion
	envFiles := []string{
		filepath.Join(projectRoot, ".env"),
		filepath.Join(projectRoot, ".env.local"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				// Log warning but don't fail
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
			}
		}
	}

	path := filepath.Join(projectRoot, PerpFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	var file config.PerpFileConfig
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", PerpFileName, err)
	}
	return &file, nil
}

// applyPerpFile copies the file's settings into cfg, expanding ${VAR}
// references
func applyPerpFile(cfg *config.RuntimeConfig, file *config.PerpFileConfig) error {
	cfg.API.URL = os.ExpandEnv(file.API.URL)
	cfg.API.Key = os.ExpandEnv(file.API.Key)
	cfg.API.Provider = file.API.Provider
	if file.API.Timeout != "" {
		d, err := time.ParseDuration(file.API.Timeout)
		if err != nil {
			return fmt.Errorf("api.timeout: %w", err)
		}
		cfg.API.Timeout = d
	}

	if file.Signer.Type != "" {
		t, ok := config.ParseSignerType(string(file.Signer.Type))
		if !ok {
			return fmt.Errorf("signer.type: unknown signer %q", file.Signer.Type)
		}
		cfg.Signer.Type = t
	}
	cfg.Signer.BridgeURL = os.ExpandEnv(file.Signer.BridgeURL)
	cfg.Signer.PrivateKey = os.ExpandEnv(file.Signer.PrivateKey)
	cfg.Signer.DerivationPaths = file.Signer.DerivationPaths

	for key, chain := range file.Chains {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return fmt.Errorf("chains.%s: chain key must be a numeric chain id", key)
		}
		cfg.Chains[id] = config.ChainConfig{
			Name:   chain.Name,
			RPCURL: os.ExpandEnv(chain.RPCURL),
		}
	}

	if file.Poll.Interval != "" {
		d, err := time.ParseDuration(file.Poll.Interval)
		if err != nil {
			return fmt.Errorf("poll.interval: %w", err)
		}
		cfg.Poll.Interval = d
	}
	if file.Poll.Attempts > 0 {
		cfg.Poll.Attempts = file.Poll.Attempts
	}
	return nil
}
