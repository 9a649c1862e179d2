package signer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/perpdesk/perpdesk/internal/domain"
	"github.com/perpdesk/perpdesk/internal/domain/models"
	"github.com/perpdesk/perpdesk/pkg/stream"
)

// DefaultAccountPollInterval is how often a connected browser wallet is asked
// for its accounts
const DefaultAccountPollInterval = 2 * time.Second

// BrowserSigner talks JSON-RPC to a bridge in front of the browser's
// injected wallet. The wallet broadcasts native transactions itself.
// While connected, eth_accounts is re-read every pollInterval and before each
// signature.
type BrowserSigner struct {
	url          string
	book         *accountBook
	log          *slog.Logger
	pollInterval time.Duration

	mu     sync.Mutex
	client *rpc.Client
	stop   chan struct{}
}

// NewBrowserSigner creates a signer for the bridge at url
func NewBrowserSigner(url string, log *slog.Logger) *BrowserSigner {
	return &BrowserSigner{
		url:          url,
		book:         newAccountBook(),
		log:          log.With("component", "BrowserSigner"),
		pollInterval: DefaultAccountPollInterval,
	}
}

// NewBrowserSignerWithClient uses an already dialled client
func NewBrowserSignerWithClient(client *rpc.Client, log *slog.Logger) *BrowserSigner {
	s := NewBrowserSigner("", log)
	s.client = client
	return s
}

// Connect dials the bridge, reads the wallet's accounts and starts following
// account changes
func (s *BrowserSigner) Connect(ctx context.Context) error {
	client, err := s.rpc(ctx)
	if err != nil {
		return err
	}
	if err := s.refresh(ctx, client); err != nil {
		return err
	}
	s.log.Debug("connected", "accounts", len(s.book.get().Accounts))
	s.watch(client)
	return nil
}

// Close ends the session
func (s *BrowserSigner) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
	s.book.disconnect()
	return nil
}

// SignTransaction asks the wallet to send a native transaction or sign typed
// data
func (s *BrowserSigner) SignTransaction(ctx context.Context, tx *models.Transaction, account common.Address) (string, error) {
	if !s.book.get().Connected {
		return "", domain.ErrWalletDisconnected
	}
	client, err := s.rpc(ctx)
	if err != nil {
		return "", err
	}
	// the wallet may have locked or switched since the last poll
	if err := s.refresh(ctx, client); err != nil {
		return "", err
	}
	if err := s.book.active(account); err != nil {
		return "", err
	}

	switch format(tx) {
	case models.SigningFormatEVMTransaction:
		req, err := decodeTxRequest(tx, account)
		if err != nil {
			return "", err
		}
		if req.ChainID == nil {
			req.ChainID = (*hexutil.Big)(new(big.Int).SetUint64(tx.ChainID))
		}
		var hash common.Hash
		if err := client.CallContext(ctx, &hash, "eth_sendTransaction", req); err != nil {
			return "", fmt.Errorf("wallet refused transaction: %w", err)
		}
		return hash.Hex(), nil

	case models.SigningFormatEIP712:
		if _, err := decodeTypedData(tx.SignablePayload); err != nil {
			return "", err
		}
		var sig hexutil.Bytes
		if err := client.CallContext(ctx, &sig, "eth_signTypedData_v4", account, string(tx.SignablePayload)); err != nil {
			return "", fmt.Errorf("wallet refused typed data: %w", err)
		}
		return sig.String(), nil
	}
	return "", unsupportedFormat(tx)
}

// SwitchAccount selects one of the accounts the wallet exposed. Transactions
// carry it as their from address.
func (s *BrowserSigner) SwitchAccount(ctx context.Context, account common.Address) error {
	return s.book.switchTo(account)
}

// SubscribeAccounts streams account state changes
func (s *BrowserSigner) SubscribeAccounts() *stream.Subscription[models.AccountState] {
	return s.book.subscribe()
}

// AccountState returns the current account state
func (s *BrowserSigner) AccountState() models.AccountState {
	return s.book.get()
}

func (s *BrowserSigner) rpc(ctx context.Context) (*rpc.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	if s.url == "" {
		return nil, fmt.Errorf("%w: no wallet bridge configured", domain.ErrWalletDisconnected)
	}
	client, err := rpc.DialContext(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("failed to reach wallet bridge at %s: %w", s.url, err)
	}
	s.client = client
	return client, nil
}

// refresh re-reads the wallet's accounts into the book
func (s *BrowserSigner) refresh(ctx context.Context, client *rpc.Client) error {
	var accounts []common.Address
	if err := client.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return fmt.Errorf("failed to read wallet accounts: %w", err)
	}
	s.book.connect(accounts)
	if len(accounts) == 0 {
		return fmt.Errorf("%w: wallet is locked or exposes no accounts", domain.ErrWalletDisconnected)
	}
	return nil
}

// watch polls the wallet's accounts until Close. A wallet that locks shows up
// as a disconnected state; polling continues so an unlock is seen too.
func (s *BrowserSigner) watch(client *rpc.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil || s.pollInterval <= 0 {
		return
	}
	stop := make(chan struct{})
	s.stop = stop

	go func() {
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), s.pollInterval)
				err := s.refresh(ctx, client)
				cancel()
				if err != nil && !errors.Is(err, domain.ErrWalletDisconnected) {
					s.log.Debug("account poll failed", "error", err)
				}
			}
		}
	}()
}
