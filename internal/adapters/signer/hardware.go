package signer

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/usbwallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/event"
	"github.com/perpdesk/perpdesk/internal/domain"
	"github.com/perpdesk/perpdesk/internal/domain/models"
	"github.com/perpdesk/perpdesk/pkg/stream"
)

// walletHub is the device discovery side of accounts/usbwallet
type walletHub interface {
	Wallets() []accounts.Wallet
	Subscribe(sink chan<- accounts.WalletEvent) event.Subscription
}

func openLedgerHub() (walletHub, error) {
	hub, err := usbwallet.NewLedgerHub()
	if err != nil {
		return nil, fmt.Errorf("failed to open USB hub: %w", err)
	}
	return hub, nil
}

// HardwareSigner signs on a Ledger device. Transactions are signed on the
// device and broadcast through the chain pool.
type HardwareSigner struct {
	paths   []accounts.DerivationPath
	chain   Chain
	book    *accountBook
	log     *slog.Logger
	openHub func() (walletHub, error)

	mu      sync.Mutex
	wallet  accounts.Wallet
	derived map[common.Address]accounts.Account
	sub     event.Subscription
}

// NewHardwareSigner creates a Ledger signer exposing the given derivation
// paths, or the default path when none are given
func NewHardwareSigner(paths []string, chain Chain, log *slog.Logger) (*HardwareSigner, error) {
	parsed := make([]accounts.DerivationPath, 0, len(paths))
	for _, p := range paths {
		dp, err := accounts.ParseDerivationPath(p)
		if err != nil {
			return nil, fmt.Errorf("invalid derivation path %q: %w", p, err)
		}
		parsed = append(parsed, dp)
	}
	if len(parsed) == 0 {
		parsed = append(parsed, accounts.DefaultBaseDerivationPath)
	}
	return &HardwareSigner{
		paths:   parsed,
		chain:   chain,
		book:    newAccountBook(),
		log:     log.With("component", "HardwareSigner"),
		openHub: openLedgerHub,
	}, nil
}

// Connect opens the first attached device and derives the configured accounts
func (s *HardwareSigner) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wallet != nil {
		return nil
	}

	hub, err := s.openHub()
	if err != nil {
		return err
	}
	wallets := hub.Wallets()
	if len(wallets) == 0 {
		return fmt.Errorf("%w: no Ledger device detected", domain.ErrWalletDisconnected)
	}
	wallet := wallets[0]
	if err := wallet.Open(""); err != nil {
		return fmt.Errorf("failed to open %s: %w", wallet.URL(), err)
	}

	derived := make(map[common.Address]accounts.Account, len(s.paths))
	addrs := make([]common.Address, 0, len(s.paths))
	for _, path := range s.paths {
		acct, err := wallet.Derive(path, true)
		if err != nil {
			_ = wallet.Close()
			return fmt.Errorf("failed to derive %s: %w", path, err)
		}
		derived[acct.Address] = acct
		addrs = append(addrs, acct.Address)
	}

	events := make(chan accounts.WalletEvent, 8)
	s.sub = hub.Subscribe(events)
	go s.watch(wallet.URL(), events, s.sub)

	s.wallet = wallet
	s.derived = derived
	s.book.connect(addrs)
	s.log.Info("connected", "device", wallet.URL().String(), "accounts", len(addrs))
	return nil
}

// watch marks the session disconnected when the device is unplugged
func (s *HardwareSigner) watch(url accounts.URL, events <-chan accounts.WalletEvent, sub event.Subscription) {
	for {
		select {
		case ev := <-events:
			if ev.Kind != accounts.WalletDropped || ev.Wallet.URL() != url {
				continue
			}
			s.log.Warn("device removed", "device", url.String())
			s.mu.Lock()
			s.wallet = nil
			s.derived = nil
			s.mu.Unlock()
			s.book.disconnect()
		case <-sub.Err():
			return
		}
	}
}

// Close releases the device
func (s *HardwareSigner) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != nil {
		s.sub.Unsubscribe()
		s.sub = nil
	}
	var err error
	if s.wallet != nil {
		err = s.wallet.Close()
		s.wallet = nil
	}
	s.book.disconnect()
	return err
}

// SignTransaction signs on the device
func (s *HardwareSigner) SignTransaction(ctx context.Context, tx *models.Transaction, account common.Address) (string, error) {
	if err := s.book.active(account); err != nil {
		return "", err
	}
	wallet, acct, err := s.account(account)
	if err != nil {
		return "", err
	}

	switch format(tx) {
	case models.SigningFormatEVMTransaction:
		req, err := decodeTxRequest(tx, account)
		if err != nil {
			return "", err
		}
		unsigned, err := s.chain.Prepare(ctx, tx.ChainID, account, req)
		if err != nil {
			return "", err
		}
		s.log.Info("confirm the transaction on your device", "tx", tx.ID)
		signed, err := wallet.SignTx(acct, unsigned, new(big.Int).SetUint64(tx.ChainID))
		if err != nil {
			return "", fmt.Errorf("device refused transaction: %w", err)
		}
		if err := s.chain.SendTransaction(ctx, tx.ChainID, signed); err != nil {
			return "", err
		}
		return signed.Hash().Hex(), nil

	case models.SigningFormatEIP712:
		payload, err := decodeTypedData(tx.SignablePayload)
		if err != nil {
			return "", err
		}
		s.log.Info("confirm the message on your device", "tx", tx.ID, "primaryType", payload.data.PrimaryType)
		sig, err := wallet.SignData(acct, accounts.MimetypeTypedData, payload.rawData)
		if err != nil {
			return "", fmt.Errorf("device refused typed data: %w", err)
		}
		return hexutil.Encode(sig), nil
	}
	return "", unsupportedFormat(tx)
}

// SwitchAccount selects one of the derived accounts
func (s *HardwareSigner) SwitchAccount(ctx context.Context, account common.Address) error {
	return s.book.switchTo(account)
}

// SubscribeAccounts streams account state changes
func (s *HardwareSigner) SubscribeAccounts() *stream.Subscription[models.AccountState] {
	return s.book.subscribe()
}

// AccountState returns the current account state
func (s *HardwareSigner) AccountState() models.AccountState {
	return s.book.get()
}

func (s *HardwareSigner) account(addr common.Address) (accounts.Wallet, accounts.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wallet == nil {
		return nil, accounts.Account{}, domain.ErrWalletDisconnected
	}
	acct, ok := s.derived[addr]
	if !ok {
		return nil, accounts.Account{}, fmt.Errorf("%w: %s", domain.ErrUnknownAccount, addr.Hex())
	}
	return s.wallet, acct, nil
}
