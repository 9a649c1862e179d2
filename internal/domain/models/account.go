package models

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
)

// AccountState is the connected-account view of a wallet
type AccountState struct {
	Connected      bool             `json:"connected"`
	CurrentAccount common.Address   `json:"currentAccount,omitempty"`
	Accounts       []common.Address `json:"accounts,omitempty"`
}

// Disconnected is the state of a wallet with no session
func Disconnected() AccountState {
	return AccountState{}
}

// Knows reports whether account is one of the wallet's accounts
func (s AccountState) Knows(account common.Address) bool {
	return lo.Contains(s.Accounts, account)
}

// Clone returns a copy with its own account slice
func (s AccountState) Clone() AccountState {
	c := s
	if s.Accounts != nil {
		c.Accounts = append([]common.Address(nil), s.Accounts...)
	}
	return c
}
