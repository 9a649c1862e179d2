package signer

import (
	"context"
	"testing"

	"github.com/perpdesk/perpdesk/internal/adapters/blockchain"
	"github.com/perpdesk/perpdesk/internal/domain/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWallet(t *testing.T) {
	_, hexKey := newKey(t)
	pool := blockchain.NewPool(&config.RuntimeConfig{}, discard())

	tests := []struct {
		name    string
		signer  config.SignerConfig
		check   func(t *testing.T, w Wallet)
		wantErr string
	}{
		{
			name:   "browser",
			signer: config.SignerConfig{Type: config.SignerTypeBrowser, BridgeURL: "http://127.0.0.1:1"},
			check: func(t *testing.T, w Wallet) {
				assert.IsType(t, &BrowserSigner{}, w)
			},
		},
		{
			name:   "hardware",
			signer: config.SignerConfig{Type: config.SignerTypeHardware},
			check: func(t *testing.T, w Wallet) {
				assert.IsType(t, &HardwareSigner{}, w)
			},
		},
		{
			name:    "hardware with a bad path",
			signer:  config.SignerConfig{Type: config.SignerTypeHardware, DerivationPaths: []string{"m/x"}},
			wantErr: "invalid derivation path",
		},
		{
			name:   "local",
			signer: config.SignerConfig{Type: config.SignerTypeLocal, PrivateKey: hexKey},
			check: func(t *testing.T, w Wallet) {
				assert.IsType(t, &LocalSigner{}, w)
			},
		},
		{
			name:   "local without a key fails on connect",
			signer: config.SignerConfig{Type: config.SignerTypeLocal},
			check: func(t *testing.T, w Wallet) {
				err := w.Connect(context.Background())
				assert.ErrorContains(t, err, "private_key")
				assert.False(t, w.AccountState().Connected)

				sub := w.SubscribeAccounts()
				defer sub.Close()
				_, err = w.SignTransaction(context.Background(), nil, alice)
				assert.Error(t, err)
			},
		},
		{
			name:    "local with a malformed key",
			signer:  config.SignerConfig{Type: config.SignerTypeLocal, PrivateKey: "0x12"},
			wantErr: "invalid private key",
		},
		{
			name:    "unknown",
			signer:  config.SignerConfig{Type: "metamask"},
			wantErr: "unknown signer type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewWallet(&config.RuntimeConfig{Signer: tt.signer}, pool, discard())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, w)
				return
			}
			require.NoError(t, err)
			tt.check(t, w)
		})
	}
}
