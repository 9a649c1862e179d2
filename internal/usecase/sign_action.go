package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/perpdesk/perpdesk/internal/domain"
	"github.com/perpdesk/perpdesk/internal/domain/config"
	"github.com/perpdesk/perpdesk/internal/domain/models"
)

// SignActionParams contains parameters for signing an action
type SignActionParams struct {
	ActionID   string
	ActionFile string
	Account    string // overrides the configured account
}

// SignActionResult is a prepared, not yet started, signing flow
type SignActionResult struct {
	Action  *models.Action
	Account common.Address
	Flow    *SignFlow
}

// SignAction resolves an action and the signing account and builds the flow
// that executes it
type SignAction struct {
	config      *config.RuntimeConfig
	api         ActionAPI
	source      ActionSource
	signer      Signer
	wallet      WalletConnector
	selector    AccountSelector
	localConfig LocalConfigRepository
	poll        PollPolicy
	log         *slog.Logger
	progress    ProgressSink
}

// NewSignAction creates a new SignAction use case
func NewSignAction(
	cfg *config.RuntimeConfig,
	api ActionAPI,
	source ActionSource,
	signer Signer,
	wallet WalletConnector,
	selector AccountSelector,
	localConfig LocalConfigRepository,
	poll PollPolicy,
	log *slog.Logger,
	progress ProgressSink,
) *SignAction {
	return &SignAction{
		config:      cfg,
		api:         api,
		source:      source,
		signer:      signer,
		wallet:      wallet,
		selector:    selector,
		localConfig: localConfig,
		poll:        poll,
		log:         log.With("component", "SignAction"),
		progress:    progress,
	}
}

// Prepare loads the action, connects the wallet and resolves the account.
// The returned flow has not been started.
func (uc *SignAction) Prepare(ctx context.Context, params SignActionParams) (*SignActionResult, error) {
	action, err := uc.loadAction(ctx, params)
	if err != nil {
		return nil, err
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: "connect", Message: "Connecting wallet", Spinner: true})
	if err := uc.wallet.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect wallet: %w", err)
	}
	uc.progress.OnProgress(ctx, ProgressEvent{Stage: "connected", Message: "Wallet connected"})

	account, err := uc.resolveAccount(ctx, params.Account)
	if err != nil {
		return nil, err
	}
	if state := uc.signer.AccountState(); !state.Knows(account) {
		uc.log.Warn("account not held by connected wallet", "account", account.Hex())
	}

	flow := NewSignFlow(SignFlowDeps{
		Signer: uc.signer,
		API:    uc.api,
		Poll:   uc.poll,
		Log:    uc.log,
	}, action, account)

	uc.log.Info("prepared signing flow",
		"flow", flow.ID(),
		"action", action.ID,
		"transactions", len(action.Transactions),
		"account", account.Hex(),
	)

	return &SignActionResult{
		Action:  action,
		Account: account,
		Flow:    flow,
	}, nil
}

func (uc *SignAction) loadAction(ctx context.Context, params SignActionParams) (*models.Action, error) {
	switch {
	case params.ActionID != "" && params.ActionFile != "":
		return nil, fmt.Errorf("specify either an action id or an action file, not both")
	case params.ActionFile != "":
		action, err := uc.source.LoadAction(ctx, params.ActionFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load action file: %w", err)
		}
		return action, nil
	case params.ActionID != "":
		uc.progress.OnProgress(ctx, ProgressEvent{Stage: "fetch", Message: "Fetching action " + params.ActionID, Spinner: true})
		action, err := uc.api.GetAction(ctx, params.ActionID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch action %s: %w", params.ActionID, err)
		}
		return action, nil
	}
	return nil, fmt.Errorf("an action id or an action file is required")
}

// resolveAccount picks the signing account: explicit override, configured
// account, saved default, interactive choice, then the wallet's current one.
func (uc *SignAction) resolveAccount(ctx context.Context, override string) (common.Address, error) {
	for _, candidate := range []string{override, uc.config.Account} {
		if candidate == "" {
			continue
		}
		return parseAccount(candidate)
	}

	if uc.localConfig != nil {
		local, err := uc.localConfig.Load(ctx)
		if err != nil {
			return common.Address{}, fmt.Errorf("failed to load local config: %w", err)
		}
		if local.Account != "" {
			return parseAccount(local.Account)
		}
	}

	state := uc.signer.AccountState()
	if !state.Connected {
		return common.Address{}, domain.ErrWalletDisconnected
	}
	if len(state.Accounts) > 1 && !uc.config.NonInteractive && uc.selector != nil {
		return uc.selector.SelectAccount(ctx, state.Accounts, state.CurrentAccount)
	}
	if state.CurrentAccount != (common.Address{}) {
		return state.CurrentAccount, nil
	}
	if len(state.Accounts) > 0 {
		return state.Accounts[0], nil
	}
	return common.Address{}, fmt.Errorf("connected wallet exposes no accounts")
}

func parseAccount(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid account address %q", s)
	}
	return common.HexToAddress(s), nil
}
