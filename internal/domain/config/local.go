package config

import "github.com/samber/lo"

// LocalConfig represents the local perpdesk configuration
type LocalConfig struct {
	Account string     `json:"account,omitempty"`
	Signer  SignerType `json:"signer,omitempty"`
}

// ConfigKey represents a configuration key
type ConfigKey string

const (
	ConfigKeyAccount ConfigKey = "account"
	ConfigKeySigner  ConfigKey = "signer"
)

// DefaultLocalConfig returns the default local configuration
func DefaultLocalConfig() *LocalConfig {
	return &LocalConfig{
		Signer: SignerTypeBrowser,
	}
}

// ValidConfigKeys returns all valid configuration keys
func ValidConfigKeys() []ConfigKey {
	return []ConfigKey{
		ConfigKeyAccount,
		ConfigKeySigner,
	}
}

// IsValidConfigKey checks if a key is valid
func IsValidConfigKey(key string) bool {
	return lo.Contains(ValidConfigKeys(), NormalizeConfigKey(key))
}

// NormalizeConfigKey normalizes a config key (e.g., "wallet" -> "signer")
func NormalizeConfigKey(key string) ConfigKey {
	switch key {
	case "wallet":
		return ConfigKeySigner
	case "address", "from":
		return ConfigKeyAccount
	}
	return ConfigKey(key)
}

// SignerTypes lists the supported wallet variants
func SignerTypes() []SignerType {
	return []SignerType{SignerTypeBrowser, SignerTypeHardware, SignerTypeLocal}
}

// ParseSignerType validates a wallet variant name
func ParseSignerType(s string) (SignerType, bool) {
	t := SignerType(s)
	if s == "ledger" {
		t = SignerTypeHardware
	}
	return t, lo.Contains(SignerTypes(), t)
}
