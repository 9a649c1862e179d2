package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/perpdesk/perpdesk/internal/domain/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// DataDirName holds local state under the project root
	DataDirName = ".perpdesk"

	// DefaultBridgeURL is where the browser wallet bridge listens
	DefaultBridgeURL = "http://127.0.0.1:1248"

	defaultAPITimeout = 30 * time.Second
)

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:    projectRoot,
		DataDir:        filepath.Join(projectRoot, DataDirName),
		Chains:         make(map[uint64]config.ChainConfig),
		Poll:           config.DefaultPollConfig(),
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		JSON:           v.GetBool("json"),
		Timeout:        v.GetDuration("timeout"),
		ConfigSource:   "defaults",
	}

	perpFile, err := loadPerpFile(projectRoot)
	if err != nil {
		return nil, err
	}
	if perpFile != nil {
		if err := applyPerpFile(cfg, perpFile); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", PerpFileName, err)
		}
		cfg.ConfigSource = PerpFileName
	}

	// Flags, environment and the local config file win over perpdesk.toml
	overrideString(&cfg.API.URL, v.GetString("api_url"))
	overrideString(&cfg.API.Key, v.GetString("api_key"))
	overrideString(&cfg.API.Provider, v.GetString("provider"))
	overrideString(&cfg.Signer.BridgeURL, v.GetString("bridge_url"))
	overrideString(&cfg.Signer.PrivateKey, v.GetString("private_key"))
	cfg.Account = v.GetString("account")

	if s := v.GetString("signer"); s != "" {
		t, ok := config.ParseSignerType(s)
		if !ok {
			return nil, fmt.Errorf("unknown signer %q (want one of %v)", s, config.SignerTypes())
		}
		cfg.Signer.Type = t
	}
	if d := v.GetDuration("poll_interval"); d > 0 {
		cfg.Poll.Interval = d
	}
	if n := v.GetInt("poll_attempts"); n > 0 {
		cfg.Poll.Attempts = n
	}

	if cfg.Signer.Type == "" {
		cfg.Signer.Type = config.SignerTypeBrowser
	}
	if cfg.Signer.BridgeURL == "" {
		cfg.Signer.BridgeURL = DefaultBridgeURL
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = defaultAPITimeout
	}
	cfg.API.URL = strings.TrimRight(cfg.API.URL, "/")

	return cfg, nil
}

// FindProjectRoot walks up from the current directory to the nearest
// perpdesk.toml or .perpdesk directory, falling back to the current directory
func FindProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for dir := cwd; ; {
		for _, marker := range []string{PerpFileName, DataDirName} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd, nil
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string, cmd *cobra.Command) *viper.Viper {
	v := viper.New()

	// The local config file carries the saved account and signer
	v.SetConfigName("config.local")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(projectRoot, DataDirName))

	// Set up environment variables
	v.SetEnvPrefix("PERPDESK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// Set defaults
	v.SetDefault("timeout", "5m")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("project_root", projectRoot)

	// Try to read config file (ignore error if not found)
	_ = v.ReadInConfig()

	if cmd != nil {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if err := v.BindPFlag(key, f); err != nil {
				panic(err)
			}
		})
	}

	return v
}

func overrideString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
