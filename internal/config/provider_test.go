package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/perpdesk/perpdesk/internal/domain/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const perpFile = `
[api]
url = "https://api.example.com/v1/"
key = "${PERPDESK_TEST_API_KEY}"
provider = "hyperliquid"
timeout = "10s"

[signer]
type = "ledger"
derivation_paths = ["m/44'/60'/0'/0/0", "m/44'/60'/0'/0/1"]

[chains.42161]
name = "arbitrum"
rpc_url = "https://arb.example.com/${PERPDESK_TEST_RPC_TOKEN}"

[poll]
interval = "500ms"
attempts = 5
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestProvider(t *testing.T) {
	t.Run("defaults without perpdesk.toml", func(t *testing.T) {
		dir := t.TempDir()
		cfg, err := Provider(SetupViper(dir, nil))
		require.NoError(t, err)

		assert.Equal(t, dir, cfg.ProjectRoot)
		assert.Equal(t, filepath.Join(dir, ".perpdesk"), cfg.DataDir)
		assert.Equal(t, "defaults", cfg.ConfigSource)
		assert.Equal(t, config.SignerTypeBrowser, cfg.Signer.Type)
		assert.Equal(t, DefaultBridgeURL, cfg.Signer.BridgeURL)
		assert.Equal(t, config.DefaultPollConfig(), cfg.Poll)
		assert.Equal(t, 30*time.Second, cfg.API.Timeout)
		assert.Equal(t, 5*time.Minute, cfg.Timeout)
		assert.Empty(t, cfg.Chains)
	})

	t.Run("perpdesk.toml with .env expansion", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, PerpFileName), perpFile)
		writeFile(t, filepath.Join(dir, ".env"), "PERPDESK_TEST_API_KEY=from-dotenv\nPERPDESK_TEST_RPC_TOKEN=tok\n")
		t.Cleanup(func() {
			os.Unsetenv("PERPDESK_TEST_API_KEY")
			os.Unsetenv("PERPDESK_TEST_RPC_TOKEN")
		})

		cfg, err := Provider(SetupViper(dir, nil))
		require.NoError(t, err)

		assert.Equal(t, PerpFileName, cfg.ConfigSource)
		assert.Equal(t, "https://api.example.com/v1", cfg.API.URL)
		assert.Equal(t, "from-dotenv", cfg.API.Key)
		assert.Equal(t, "hyperliquid", cfg.API.Provider)
		assert.Equal(t, 10*time.Second, cfg.API.Timeout)
		assert.Equal(t, config.SignerTypeHardware, cfg.Signer.Type)
		assert.Len(t, cfg.Signer.DerivationPaths, 2)
		assert.Equal(t, config.ChainConfig{Name: "arbitrum", RPCURL: "https://arb.example.com/tok"}, cfg.Chains[42161])
		assert.Equal(t, config.PollConfig{Interval: 500 * time.Millisecond, Attempts: 5}, cfg.Poll)
	})

	t.Run("environment and local config override the file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, PerpFileName), perpFile)
		writeFile(t, filepath.Join(dir, ".perpdesk", "config.local.json"),
			`{"account":"0x00000000000000000000000000000000000a11ce","signer":"local"}`)
		t.Setenv("PERPDESK_API_URL", "http://localhost:8080")
		t.Setenv("PERPDESK_PRIVATE_KEY", "0xkey")
		t.Setenv("PERPDESK_POLL_ATTEMPTS", "3")

		cfg, err := Provider(SetupViper(dir, nil))
		require.NoError(t, err)

		assert.Equal(t, "http://localhost:8080", cfg.API.URL)
		assert.Equal(t, config.SignerTypeLocal, cfg.Signer.Type)
		assert.Equal(t, "0xkey", cfg.Signer.PrivateKey)
		assert.Equal(t, "0x00000000000000000000000000000000000a11ce", cfg.Account)
		assert.Equal(t, 3, cfg.Poll.Attempts)
	})

	t.Run("invalid files", func(t *testing.T) {
		tests := []struct {
			name    string
			content string
			errMsg  string
		}{
			{"bad toml", "[api\nurl=", "failed to parse"},
			{"bad chain key", "[chains.arbitrum]\nrpc_url = \"x\"", "numeric chain id"},
			{"bad signer", "[signer]\ntype = \"metamask\"", "unknown signer"},
			{"bad interval", "[poll]\ninterval = \"often\"", "poll.interval"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				dir := t.TempDir()
				writeFile(t, filepath.Join(dir, PerpFileName), tt.content)
				_, err := Provider(SetupViper(dir, nil))
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			})
		}
	})
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, PerpFileName), "")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	t.Chdir(nested)

	got, err := FindProjectRoot()
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	got, err = filepath.EvalSymlinks(got)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
