package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/perpdesk/perpdesk/internal/domain/config"
	"github.com/perpdesk/perpdesk/internal/usecase"
)

// LocalConfigFileName is the saved account and signer, kept under the data dir
const LocalConfigFileName = "config.local.json"

// LocalConfigStoreAdapter keeps the saved default account and signer in
// .perpdesk/config.local.json
type LocalConfigStoreAdapter struct {
	path string
}

// NewLocalConfigStoreAdapter creates a store rooted at the configured data dir
func NewLocalConfigStoreAdapter(cfg *config.RuntimeConfig) *LocalConfigStoreAdapter {
	return &LocalConfigStoreAdapter{
		path: filepath.Join(cfg.DataDir, LocalConfigFileName),
	}
}

// Exists reports whether anything was saved yet
func (s *LocalConfigStoreAdapter) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load returns the saved config, or the defaults when nothing was saved
func (s *LocalConfigStoreAdapter) Load(ctx context.Context) (*config.LocalConfig, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return config.DefaultLocalConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	var saved config.LocalConfig
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}

	switch signer, ok := config.ParseSignerType(string(saved.Signer)); {
	case saved.Signer == "":
		saved.Signer = config.DefaultLocalConfig().Signer
	case !ok:
		return nil, fmt.Errorf("%s: unknown signer %q", s.path, saved.Signer)
	default:
		saved.Signer = signer
	}

	return &saved, nil
}

// Save writes through a temp file renamed over the previous one
func (s *LocalConfigStoreAdapter) Save(ctx context.Context, cfg *config.LocalConfig) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal local config: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, LocalConfigFileName+".*")
	if err != nil {
		return fmt.Errorf("failed to write local config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write local config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write local config: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}

// GetPath returns the path to the config file
func (s *LocalConfigStoreAdapter) GetPath() string {
	return s.path
}

var _ usecase.LocalConfigRepository = (*LocalConfigStoreAdapter)(nil)
