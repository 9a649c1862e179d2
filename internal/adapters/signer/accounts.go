package signer

import (
	"fmt"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/perpdesk/perpdesk/internal/domain"
	"github.com/perpdesk/perpdesk/internal/domain/models"
	"github.com/perpdesk/perpdesk/pkg/stream"
)

// accountBook is the process-wide account state of one wallet session. Every
// change is broadcast to account subscribers.
type accountBook struct {
	mu      sync.Mutex
	state   models.AccountState
	updates *stream.Broadcaster[models.AccountState]
}

func newAccountBook() *accountBook {
	return &accountBook{updates: stream.NewBroadcaster[models.AccountState]()}
}

func (b *accountBook) get() models.AccountState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.Clone()
}

// connect replaces the account list, keeping the current account when the
// wallet still holds it. An unchanged list publishes nothing.
func (b *accountBook) connect(accounts []common.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := models.Disconnected()
	if len(accounts) > 0 {
		next = models.AccountState{
			Connected:      true,
			CurrentAccount: accounts[0],
			Accounts:       append([]common.Address(nil), accounts...),
		}
		if b.state.Connected && next.Knows(b.state.CurrentAccount) {
			next.CurrentAccount = b.state.CurrentAccount
		}
	}
	if sameState(b.state, next) {
		return
	}
	b.setLocked(next)
}

func sameState(a, b models.AccountState) bool {
	return a.Connected == b.Connected &&
		a.CurrentAccount == b.CurrentAccount &&
		slices.Equal(a.Accounts, b.Accounts)
}

func (b *accountBook) disconnect() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state.Connected {
		b.setLocked(models.Disconnected())
	}
}

func (b *accountBook) switchTo(account common.Address) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.state.Connected {
		return domain.ErrWalletDisconnected
	}
	if !b.state.Knows(account) {
		return fmt.Errorf("%w: %s", domain.ErrUnknownAccount, account.Hex())
	}
	if b.state.CurrentAccount == account {
		return nil
	}
	next := b.state.Clone()
	next.CurrentAccount = account
	b.setLocked(next)
	return nil
}

// active checks that account may sign right now
func (b *accountBook) active(account common.Address) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case !b.state.Connected:
		return domain.ErrWalletDisconnected
	case b.state.CurrentAccount != account:
		return fmt.Errorf("%s is not the active account (active: %s)", account.Hex(), b.state.CurrentAccount.Hex())
	}
	return nil
}

func (b *accountBook) subscribe() *stream.Subscription[models.AccountState] {
	return b.updates.Subscribe()
}

func (b *accountBook) setLocked(state models.AccountState) {
	b.state = state
	b.updates.Publish(state.Clone())
}
