package config

import (
	"time"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	DataDir     string

	// Backend
	API APIConfig

	// Wallet
	Signer  SignerConfig
	Account string // explicit --account, empty if not given

	// Chains keyed by chain ID
	Chains map[uint64]ChainConfig

	// Confirmation polling
	Poll PollConfig

	// Execution settings
	Debug          bool
	NonInteractive bool
	JSON           bool
	Timeout        time.Duration

	// Config source tracking
	ConfigSource string // "perpdesk.toml" or "defaults"
}

// APIConfig locates the backend action API
type APIConfig struct {
	URL      string
	Key      string
	Provider string // default trading venue for new actions
	Timeout  time.Duration
}

// SignerType selects the wallet variant
type SignerType string

const (
	SignerTypeBrowser  SignerType = "browser"
	SignerTypeHardware SignerType = "hardware"
	SignerTypeLocal    SignerType = "local"
)

// SignerConfig configures the selected wallet variant
type SignerConfig struct {
	Type SignerType

	// browser: JSON-RPC endpoint of the injected-provider bridge
	BridgeURL string

	// hardware: derivation paths to expose as accounts
	DerivationPaths []string

	// local: hex-encoded secp256k1 key
	PrivateKey string
}

// ChainConfig holds per-chain RPC access
type ChainConfig struct {
	Name   string
	RPCURL string
}

// PollConfig bounds confirmation polling
type PollConfig struct {
	Interval time.Duration
	Attempts int
}

// DefaultPollConfig is 20 attempts spaced 2 seconds apart
func DefaultPollConfig() PollConfig {
	return PollConfig{
		Interval: 2 * time.Second,
		Attempts: 20,
	}
}
