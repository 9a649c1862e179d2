//go:build !wireinject
// +build !wireinject

// InitApp below is the injector wire.go declares, written out by hand in the
// order wire resolves it. Keep the two in step when providers change.

package app

import (
	"github.com/perpdesk/perpdesk/internal/adapters/api"
	"github.com/perpdesk/perpdesk/internal/adapters/blockchain"
	"github.com/perpdesk/perpdesk/internal/adapters/fs"
	"github.com/perpdesk/perpdesk/internal/adapters/interactive"
	"github.com/perpdesk/perpdesk/internal/adapters/metrics"
	"github.com/perpdesk/perpdesk/internal/adapters/signer"
	"github.com/perpdesk/perpdesk/internal/config"
	"github.com/perpdesk/perpdesk/internal/logging"
	"github.com/perpdesk/perpdesk/internal/usecase"
	"github.com/spf13/viper"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper, sink usecase.ProgressSink) (*App, error) {
	runtimeConfig, err := config.Provider(v)
	if err != nil {
		return nil, err
	}
	logger := logging.NewLogger(runtimeConfig)
	selectorAdapter := interactive.NewSelectorAdapter(runtimeConfig)
	pool := blockchain.NewPool(runtimeConfig, logger)
	wallet, err := signer.NewWallet(runtimeConfig, pool, logger)
	if err != nil {
		return nil, err
	}
	walletConnector := signer.ProvideConnector(wallet)
	signFlowMetrics := metrics.NewSignFlowMetrics()
	client := api.NewClientFromConfig(runtimeConfig, logger)
	actionFileLoader := fs.NewActionFileLoader()
	usecaseSigner := signer.ProvideSigner(wallet)
	localConfigStoreAdapter := fs.NewLocalConfigStoreAdapter(runtimeConfig)
	pollPolicy := usecase.NewPollPolicy(runtimeConfig)
	signAction := usecase.NewSignAction(runtimeConfig, client, actionFileLoader, usecaseSigner, walletConnector, selectorAdapter, localConfigStoreAdapter, pollPolicy, logger, sink)
	createAction := usecase.NewCreateAction(runtimeConfig, client, localConfigStoreAdapter)
	showAction := usecase.NewShowAction(client)
	manageAccounts := usecase.NewManageAccounts(runtimeConfig, usecaseSigner, walletConnector, selectorAdapter, localConfigStoreAdapter)
	showConfig := usecase.NewShowConfig(runtimeConfig, localConfigStoreAdapter)
	setConfig := usecase.NewSetConfig(localConfigStoreAdapter)
	app, err := NewApp(runtimeConfig, logger, selectorAdapter, walletConnector, pool, signFlowMetrics, signAction, createAction, showAction, manageAccounts, showConfig, setConfig)
	if err != nil {
		return nil, err
	}
	return app, nil
}
