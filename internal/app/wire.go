//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/perpdesk/perpdesk/internal/adapters"
	"github.com/perpdesk/perpdesk/internal/config"
	"github.com/perpdesk/perpdesk/internal/logging"
	"github.com/perpdesk/perpdesk/internal/usecase"
	"github.com/spf13/viper"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper, sink usecase.ProgressSink) (*App, error) {
	wire.Build(
		// Configuration
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewPollPolicy,
		usecase.NewSignAction,
		usecase.NewCreateAction,
		usecase.NewShowAction,
		usecase.NewManageAccounts,
		usecase.NewShowConfig,
		usecase.NewSetConfig,

		// App
		NewApp,
	)
	return nil, nil
}
