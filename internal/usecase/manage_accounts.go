package usecase

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/perpdesk/perpdesk/internal/domain/config"
	"github.com/perpdesk/perpdesk/internal/domain/models"
)

// AccountsResult describes the wallet's accounts and the saved default
type AccountsResult struct {
	State   models.AccountState
	Default common.Address
	Saved   bool
}

// SwitchAccountParams contains parameters for switching account
type SwitchAccountParams struct {
	Account string // empty to choose interactively
	Save    bool   // persist as default account
}

// ManageAccounts lists and switches the connected wallet's accounts
type ManageAccounts struct {
	config   *config.RuntimeConfig
	signer   Signer
	wallet   WalletConnector
	selector AccountSelector
	store    LocalConfigRepository
}

// NewManageAccounts creates a new ManageAccounts use case
func NewManageAccounts(
	cfg *config.RuntimeConfig,
	signer Signer,
	wallet WalletConnector,
	selector AccountSelector,
	store LocalConfigRepository,
) *ManageAccounts {
	return &ManageAccounts{
		config:   cfg,
		signer:   signer,
		wallet:   wallet,
		selector: selector,
		store:    store,
	}
}

// List connects the wallet and reports its accounts
func (uc *ManageAccounts) List(ctx context.Context) (*AccountsResult, error) {
	if err := uc.wallet.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect wallet: %w", err)
	}
	return uc.result(ctx, false)
}

// Switch makes an account the active one, optionally saving it as default
func (uc *ManageAccounts) Switch(ctx context.Context, params SwitchAccountParams) (*AccountsResult, error) {
	if err := uc.wallet.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect wallet: %w", err)
	}

	state := uc.signer.AccountState()
	var account common.Address
	switch {
	case params.Account != "":
		addr, err := parseAccount(params.Account)
		if err != nil {
			return nil, err
		}
		account = addr
	case uc.config.NonInteractive || uc.selector == nil:
		return nil, fmt.Errorf("an account is required in non-interactive mode")
	default:
		addr, err := uc.selector.SelectAccount(ctx, state.Accounts, state.CurrentAccount)
		if err != nil {
			return nil, err
		}
		account = addr
	}

	if err := uc.signer.SwitchAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to switch to %s: %w", account.Hex(), err)
	}

	if params.Save {
		local, err := uc.store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load local config: %w", err)
		}
		local.Account = account.Hex()
		if err := uc.store.Save(ctx, local); err != nil {
			return nil, fmt.Errorf("failed to save local config: %w", err)
		}
	}
	return uc.result(ctx, params.Save)
}

func (uc *ManageAccounts) result(ctx context.Context, saved bool) (*AccountsResult, error) {
	res := &AccountsResult{State: uc.signer.AccountState(), Saved: saved}
	local, err := uc.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load local config: %w", err)
	}
	if local.Account != "" && common.IsHexAddress(local.Account) {
		res.Default = common.HexToAddress(local.Account)
	}
	return res, nil
}
