package app

import (
	"testing"

	"github.com/perpdesk/perpdesk/internal/config"
	domainconfig "github.com/perpdesk/perpdesk/internal/domain/config"
	"github.com/perpdesk/perpdesk/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitApp(t *testing.T) {
	t.Setenv("PERPDESK_SIGNER", "")
	v := config.SetupViper(t.TempDir(), nil)

	a, err := InitApp(v, usecase.NopProgress{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Equal(t, domainconfig.SignerTypeBrowser, a.Config.Signer.Type)
	assert.NotNil(t, a.Log)
	assert.NotNil(t, a.Selector)
	assert.NotNil(t, a.Wallet)
	assert.NotNil(t, a.Chains)
	assert.NotNil(t, a.Metrics)
	assert.NotNil(t, a.SignAction)
	assert.NotNil(t, a.CreateAction)
	assert.NotNil(t, a.ShowAction)
	assert.NotNil(t, a.ManageAccounts)
	assert.NotNil(t, a.ShowConfig)
	assert.NotNil(t, a.SetConfig)
}

func TestInitApp_RejectsUnknownSigner(t *testing.T) {
	t.Setenv("PERPDESK_SIGNER", "metamask")
	v := config.SetupViper(t.TempDir(), nil)

	_, err := InitApp(v, usecase.NopProgress{})
	assert.Error(t, err)
}
