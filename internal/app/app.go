package app

import (
	"errors"
	"log/slog"

	"github.com/perpdesk/perpdesk/internal/adapters/blockchain"
	"github.com/perpdesk/perpdesk/internal/adapters/interactive"
	"github.com/perpdesk/perpdesk/internal/adapters/metrics"
	"github.com/perpdesk/perpdesk/internal/domain/config"
	"github.com/perpdesk/perpdesk/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig
	Log    *slog.Logger

	// Shared dependencies
	Selector *interactive.SelectorAdapter
	Wallet   usecase.WalletConnector
	Chains   *blockchain.Pool
	Metrics  *metrics.SignFlowMetrics

	// Use cases
	SignAction     *usecase.SignAction
	CreateAction   *usecase.CreateAction
	ShowAction     *usecase.ShowAction
	ManageAccounts *usecase.ManageAccounts
	ShowConfig     *usecase.ShowConfig
	SetConfig      *usecase.SetConfig
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	log *slog.Logger,
	selector *interactive.SelectorAdapter,
	wallet usecase.WalletConnector,
	chains *blockchain.Pool,
	signFlowMetrics *metrics.SignFlowMetrics,
	signAction *usecase.SignAction,
	createAction *usecase.CreateAction,
	showAction *usecase.ShowAction,
	manageAccounts *usecase.ManageAccounts,
	showConfig *usecase.ShowConfig,
	setConfig *usecase.SetConfig,
) (*App, error) {
	return &App{
		Config:         cfg,
		Log:            log,
		Selector:       selector,
		Wallet:         wallet,
		Chains:         chains,
		Metrics:        signFlowMetrics,
		SignAction:     signAction,
		CreateAction:   createAction,
		ShowAction:     showAction,
		ManageAccounts: manageAccounts,
		ShowConfig:     showConfig,
		SetConfig:      setConfig,
	}, nil
}

// Close releases the wallet session and chain connections
func (a *App) Close() error {
	var errs []error
	if a.Wallet != nil {
		errs = append(errs, a.Wallet.Close())
	}
	if a.Chains != nil {
		a.Chains.Close()
	}
	return errors.Join(errs...)
}
