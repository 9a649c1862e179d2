package usecase

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/perpdesk/perpdesk/internal/domain/config"
	"github.com/perpdesk/perpdesk/internal/domain/models"
	"github.com/perpdesk/perpdesk/pkg/stream"
)

// Signer is the wallet capability the signing flow depends on. Variants
// (browser bridge, hardware wallet, local key) differ only in transport.
type Signer interface {
	// SignTransaction signs (and, for native transactions, broadcasts) tx as
	// account and returns the resulting hash or signature.
	SignTransaction(ctx context.Context, tx *models.Transaction, account common.Address) (string, error)
	// SwitchAccount makes account the active one; it fails for accounts the
	// connected wallet does not hold.
	SwitchAccount(ctx context.Context, account common.Address) error
	// SubscribeAccounts streams account state changes from now on
	SubscribeAccounts() *stream.Subscription[models.AccountState]
	// AccountState is a point-in-time read of the same state
	AccountState() models.AccountState
}

// WalletConnector opens and releases a wallet session
type WalletConnector interface {
	Connect(ctx context.Context) error
	Close() error
}

// SubmitRequest carries what a signer produced for one transaction. Exactly
// one of TxHash and SignedPayload is set.
type SubmitRequest struct {
	TxHash        string `json:"txHash,omitempty"`
	SignedPayload string `json:"signedPayload,omitempty"`
}

// SubmitAck is the backend's acknowledgment of a submission
type SubmitAck struct {
	TransactionID string                   `json:"transactionId"`
	Status        models.TransactionStatus `json:"status"`
}

// CreateActionRequest describes a trading intent for the backend to expand
// into transactions
type CreateActionRequest struct {
	ProviderID string                  `json:"providerId"`
	Kind       models.ActionKind       `json:"type"`
	Address    string                  `json:"address"`
	Args       *models.TransactionArgs `json:"args,omitempty"`
}

// ActionAPI is the backend action/transaction API
type ActionAPI interface {
	GetAction(ctx context.Context, id string) (*models.Action, error)
	SubmitTransaction(ctx context.Context, transactionID string, req SubmitRequest) (*SubmitAck, error)
	CreateAction(ctx context.Context, req CreateActionRequest) (*models.Action, error)
}

// ActionSource decodes an action from a local file
type ActionSource interface {
	LoadAction(ctx context.Context, path string) (*models.Action, error)
}

// AccountSelector asks the user to pick one of the wallet's accounts
type AccountSelector interface {
	SelectAccount(ctx context.Context, accounts []common.Address, current common.Address) (common.Address, error)
}

// LocalConfigRepository handles local config persistence
type LocalConfigRepository interface {
	Exists() bool
	Load(ctx context.Context) (*config.LocalConfig, error)
	Save(ctx context.Context, config *config.LocalConfig) error
	GetPath() string
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    string
	Current  int
	Total    int
	Message  string
	Spinner  bool
	Metadata interface{}
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}
