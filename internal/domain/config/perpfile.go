package config

// PerpFileConfig represents the perpdesk.toml configuration file
type PerpFileConfig struct {
	API    APISection              `toml:"api"`
	Signer SignerSection           `toml:"signer"`
	Chains map[string]ChainSection `toml:"chains"`
	Poll   PollSection             `toml:"poll"`
}

// APISection represents the [api] section
type APISection struct {
	URL      string `toml:"url"`
	Key      string `toml:"key,omitempty"`
	Provider string `toml:"provider,omitempty"`
	Timeout  string `toml:"timeout,omitempty"`
}

// SignerSection represents the [signer] section
type SignerSection struct {
	Type            SignerType `toml:"type"`
	BridgeURL       string     `toml:"bridge_url,omitempty"`
	DerivationPaths []string   `toml:"derivation_paths,omitempty"`
	PrivateKey      string     `toml:"private_key,omitempty"`
}

// ChainSection represents a [chains.<chainId>] section
type ChainSection struct {
	Name   string `toml:"name,omitempty"`
	RPCURL string `toml:"rpc_url"`
}

// PollSection represents the [poll] section
type PollSection struct {
	Interval string `toml:"interval,omitempty"`
	Attempts int    `toml:"attempts,omitempty"`
}
