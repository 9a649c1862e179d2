package usecase_test

import (
	"context"
	"testing"

	"github.com/perpdesk/perpdesk/internal/domain/config"
	"github.com/perpdesk/perpdesk/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestShowConfig(t *testing.T) {
	tests := []struct {
		name    string
		runtime *config.RuntimeConfig
		saved   *config.LocalConfig
		want    map[config.ConfigKey]string
	}{
		{
			name:    "runtime matches saved",
			runtime: &config.RuntimeConfig{Account: alice.Hex(), Signer: config.SignerConfig{Type: config.SignerTypeBrowser}},
			saved:   &config.LocalConfig{Account: alice.Hex(), Signer: config.SignerTypeBrowser},
			want:    map[config.ConfigKey]string{},
		},
		{
			name:    "account case is ignored",
			runtime: &config.RuntimeConfig{Account: "0x00000000000000000000000000000000000A11CE"},
			saved:   &config.LocalConfig{Account: alice.Hex()},
			want:    map[config.ConfigKey]string{},
		},
		{
			name:    "flag overrides",
			runtime: &config.RuntimeConfig{Account: bob.Hex(), Signer: config.SignerConfig{Type: config.SignerTypeLocal}},
			saved:   &config.LocalConfig{Account: alice.Hex(), Signer: config.SignerTypeBrowser},
			want: map[config.ConfigKey]string{
				config.ConfigKeyAccount: bob.Hex(),
				config.ConfigKeySigner:  "local",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &MockLocalConfigStore{}
			store.On("Load", mock.Anything).Return(tt.saved, nil)
			store.On("Exists").Return(true)
			store.On("GetPath").Return("/p/.perpdesk/config.local.json")

			res, err := usecase.NewShowConfig(tt.runtime, store).Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.saved, res.Config)
			assert.True(t, res.Exists)
			assert.Equal(t, tt.want, res.Overrides)
		})
	}
}
