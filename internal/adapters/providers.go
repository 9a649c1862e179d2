package adapters

import (
	"github.com/google/wire"
	"github.com/perpdesk/perpdesk/internal/adapters/api"
	"github.com/perpdesk/perpdesk/internal/adapters/blockchain"
	"github.com/perpdesk/perpdesk/internal/adapters/fs"
	"github.com/perpdesk/perpdesk/internal/adapters/interactive"
	"github.com/perpdesk/perpdesk/internal/adapters/metrics"
	"github.com/perpdesk/perpdesk/internal/adapters/signer"
	"github.com/perpdesk/perpdesk/internal/usecase"
)

// FSSet provides filesystem-based implementations
var FSSet = wire.NewSet(
	fs.NewLocalConfigStoreAdapter,
	wire.Bind(new(usecase.LocalConfigRepository), new(*fs.LocalConfigStoreAdapter)),

	fs.NewActionFileLoader,
	wire.Bind(new(usecase.ActionSource), new(*fs.ActionFileLoader)),
)

// APISet provides the backend client
var APISet = wire.NewSet(
	api.NewClientFromConfig,
	wire.Bind(new(usecase.ActionAPI), new(*api.Client)),
)

// BlockchainSet provides chain access
var BlockchainSet = wire.NewSet(
	blockchain.NewPool,
)

// SignerSet provides the configured wallet
var SignerSet = wire.NewSet(
	signer.NewWallet,
	signer.ProvideSigner,
	signer.ProvideConnector,
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewSelectorAdapter,
	wire.Bind(new(usecase.AccountSelector), new(*interactive.SelectorAdapter)),
)

// MetricsSet provides the sign flow collectors
var MetricsSet = wire.NewSet(
	metrics.NewSignFlowMetrics,
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	FSSet,
	APISet,
	BlockchainSet,
	SignerSet,
	InteractiveSet,
	MetricsSet,
)
