package usecase_test

import (
	"context"
	"testing"

	"github.com/perpdesk/perpdesk/internal/domain"
	"github.com/perpdesk/perpdesk/internal/domain/config"
	"github.com/perpdesk/perpdesk/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestManageAccounts(t *testing.T) {
	ctx := context.Background()

	t.Run("list reports accounts and the saved default", func(t *testing.T) {
		store := &MockLocalConfigStore{}
		store.On("Load", mock.Anything).Return(&config.LocalConfig{Account: bob.Hex()}, nil)
		wallet := &fakeWallet{}
		uc := usecase.NewManageAccounts(&config.RuntimeConfig{}, newFakeSigner(alice, bob), wallet, nil, store)

		res, err := uc.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, wallet.connects)
		assert.True(t, res.State.Connected)
		assert.Equal(t, alice, res.State.CurrentAccount)
		assert.Equal(t, bob, res.Default)
	})

	t.Run("switch and save", func(t *testing.T) {
		store := &MockLocalConfigStore{}
		store.On("Load", mock.Anything).Return(&config.LocalConfig{Signer: config.SignerTypeHardware}, nil)
		store.On("Save", mock.Anything, mock.MatchedBy(func(c *config.LocalConfig) bool {
			return c.Account == bob.Hex() && c.Signer == config.SignerTypeHardware
		})).Return(nil)
		signer := newFakeSigner(alice, bob)
		uc := usecase.NewManageAccounts(&config.RuntimeConfig{}, signer, &fakeWallet{}, nil, store)

		res, err := uc.Switch(ctx, usecase.SwitchAccountParams{Account: bob.Hex(), Save: true})
		require.NoError(t, err)
		assert.Equal(t, bob, res.State.CurrentAccount)
		assert.True(t, res.Saved)
		store.AssertCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("interactive switch", func(t *testing.T) {
		store := &MockLocalConfigStore{}
		store.On("Load", mock.Anything).Return(config.DefaultLocalConfig(), nil)
		selector := &fakeSelector{choice: bob}
		uc := usecase.NewManageAccounts(&config.RuntimeConfig{}, newFakeSigner(alice, bob), &fakeWallet{}, selector, store)

		res, err := uc.Switch(ctx, usecase.SwitchAccountParams{})
		require.NoError(t, err)
		assert.Equal(t, bob, res.State.CurrentAccount)
		assert.Len(t, selector.offered, 2)
		store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("unknown account", func(t *testing.T) {
		store := &MockLocalConfigStore{}
		uc := usecase.NewManageAccounts(&config.RuntimeConfig{}, newFakeSigner(alice), &fakeWallet{}, nil, store)

		_, err := uc.Switch(ctx, usecase.SwitchAccountParams{Account: bob.Hex()})
		assert.ErrorIs(t, err, domain.ErrUnknownAccount)
	})

	t.Run("non-interactive requires an account", func(t *testing.T) {
		uc := usecase.NewManageAccounts(&config.RuntimeConfig{NonInteractive: true}, newFakeSigner(alice), &fakeWallet{}, &fakeSelector{}, &MockLocalConfigStore{})
		_, err := uc.Switch(ctx, usecase.SwitchAccountParams{})
		assert.Error(t, err)
	})
}

func TestSetConfig(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		key       string
		value     string
		wantKey   config.ConfigKey
		wantValue string
		wantErr   string
	}{
		{"account is checksummed", "account", "0x0000000000000000000000000000000000000b0b", config.ConfigKeyAccount, bob.Hex(), ""},
		{"wallet alias", "wallet", "ledger", config.ConfigKeySigner, "hardware", ""},
		{"uppercase key", "SIGNER", "local", config.ConfigKeySigner, "local", ""},
		{"unknown key", "namespace", "x", "", "", "unknown config key"},
		{"bad signer", "signer", "metamask", "", "", "unknown signer"},
		{"bad account", "account", "0x12", "", "", "invalid account"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &MockLocalConfigStore{}
			store.On("Load", mock.Anything).Return(config.DefaultLocalConfig(), nil)
			store.On("Save", mock.Anything, mock.Anything).Return(nil)
			store.On("GetPath").Return("/tmp/.perpdesk/config.local.json")

			res, err := usecase.NewSetConfig(store).Run(ctx, usecase.SetConfigParams{Key: tt.key, Value: tt.value})
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, res.Key)
			assert.Equal(t, tt.wantValue, res.Value)
			assert.Equal(t, "/tmp/.perpdesk/config.local.json", res.ConfigPath)
		})
	}
}
