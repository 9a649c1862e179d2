package signer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/perpdesk/perpdesk/internal/adapters/blockchain"
	"github.com/perpdesk/perpdesk/internal/domain/config"
	"github.com/perpdesk/perpdesk/internal/domain/models"
	"github.com/perpdesk/perpdesk/internal/usecase"
	"github.com/perpdesk/perpdesk/pkg/stream"
)

// Wallet is a signer together with its session lifecycle
type Wallet interface {
	usecase.Signer
	usecase.WalletConnector
}

// NewWallet builds the configured signer variant
func NewWallet(cfg *config.RuntimeConfig, chain *blockchain.Pool, log *slog.Logger) (Wallet, error) {
	switch cfg.Signer.Type {
	case config.SignerTypeBrowser, "":
		return NewBrowserSigner(cfg.Signer.BridgeURL, log), nil
	case config.SignerTypeHardware:
		s, err := NewHardwareSigner(cfg.Signer.DerivationPaths, chain, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.SignerTypeLocal:
		if cfg.Signer.PrivateKey == "" {
			return unavailable(fmt.Errorf("local signer needs [signer] private_key or PERPDESK_PRIVATE_KEY")), nil
		}
		s, err := NewLocalSigner(cfg.Signer.PrivateKey, chain, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown signer type %q (want one of %v)", cfg.Signer.Type, config.SignerTypes())
}

// unavailableWallet stands in for a wallet that cannot be built. Commands
// that never connect work as usual; Connect reports the reason.
type unavailableWallet struct {
	err  error
	book *accountBook
}

func unavailable(err error) *unavailableWallet {
	return &unavailableWallet{err: err, book: newAccountBook()}
}

func (w *unavailableWallet) Connect(ctx context.Context) error { return w.err }
func (w *unavailableWallet) Close() error                      { return nil }

func (w *unavailableWallet) SignTransaction(ctx context.Context, tx *models.Transaction, account common.Address) (string, error) {
	return "", w.err
}

func (w *unavailableWallet) SwitchAccount(ctx context.Context, account common.Address) error {
	return w.err
}

func (w *unavailableWallet) SubscribeAccounts() *stream.Subscription[models.AccountState] {
	return w.book.subscribe()
}

func (w *unavailableWallet) AccountState() models.AccountState {
	return models.Disconnected()
}

// ProvideSigner exposes the wallet's signing capability
func ProvideSigner(w Wallet) usecase.Signer {
	return w
}

// ProvideConnector exposes the wallet's session lifecycle
func ProvideConnector(w Wallet) usecase.WalletConnector {
	return w
}

var (
	_ Wallet = (*BrowserSigner)(nil)
	_ Wallet = (*HardwareSigner)(nil)
	_ Wallet = (*LocalSigner)(nil)
	_ Wallet = (*unavailableWallet)(nil)
)
