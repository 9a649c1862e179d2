package signer

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/perpdesk/perpdesk/internal/domain"
	"github.com/perpdesk/perpdesk/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func next(t *testing.T, ch <-chan models.AccountState) models.AccountState {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no account update")
		return models.AccountState{}
	}
}

func TestAccountBook(t *testing.T) {
	book := newAccountBook()
	sub := book.subscribe()
	defer sub.Close()

	assert.ErrorIs(t, book.switchTo(alice), domain.ErrWalletDisconnected)
	assert.ErrorIs(t, book.active(alice), domain.ErrWalletDisconnected)

	book.connect([]common.Address{alice, bob})
	s := next(t, sub.C())
	assert.True(t, s.Connected)
	assert.Equal(t, alice, s.CurrentAccount)
	require.NoError(t, book.active(alice))
	assert.Error(t, book.active(bob))

	require.NoError(t, book.switchTo(bob))
	assert.Equal(t, bob, next(t, sub.C()).CurrentAccount)
	assert.NoError(t, book.active(bob))

	carol := common.HexToAddress("0x000000000000000000000000000000000000ca01")
	assert.ErrorIs(t, book.switchTo(carol), domain.ErrUnknownAccount)

	// reconnect keeps bob current
	book.connect([]common.Address{alice, bob, carol})
	assert.Equal(t, bob, next(t, sub.C()).CurrentAccount)

	book.disconnect()
	assert.False(t, next(t, sub.C()).Connected)
	assert.False(t, book.get().Connected)
}

func TestAccountBook_UnchangedConnectIsSilent(t *testing.T) {
	book := newAccountBook()
	sub := book.subscribe()
	defer sub.Close()

	book.connect([]common.Address{alice})
	next(t, sub.C())

	book.connect([]common.Address{alice})
	book.connect(nil)
	assert.False(t, next(t, sub.C()).Connected)

	select {
	case s := <-sub.C():
		t.Fatalf("unexpected emission %+v", s)
	case <-time.After(50 * time.Millisecond):
	}
}
