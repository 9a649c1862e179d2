package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/perpdesk/perpdesk/internal/domain/config"
	"github.com/perpdesk/perpdesk/internal/domain/models"
	"github.com/shopspring/decimal"
)

// CreateActionParams describes a trading intent as entered on the command line
type CreateActionParams struct {
	Kind       string
	ProviderID string
	Address    string

	Market     string
	Side       string
	Amount     string
	Leverage   string
	Price      string
	PositionID string
	OrderID    string
}

// CreateAction validates a trading intent and asks the backend to expand it
// into an action
type CreateAction struct {
	config      *config.RuntimeConfig
	api         ActionAPI
	localConfig LocalConfigRepository
}

// NewCreateAction creates a new CreateAction use case
func NewCreateAction(cfg *config.RuntimeConfig, api ActionAPI, localConfig LocalConfigRepository) *CreateAction {
	return &CreateAction{
		config:      cfg,
		api:         api,
		localConfig: localConfig,
	}
}

// Run executes the create action use case
func (uc *CreateAction) Run(ctx context.Context, params CreateActionParams) (*models.Action, error) {
	req, err := uc.buildRequest(ctx, params)
	if err != nil {
		return nil, err
	}

	action, err := uc.api.CreateAction(ctx, *req)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s action: %w", req.Kind, err)
	}
	return action, nil
}

func (uc *CreateAction) buildRequest(ctx context.Context, params CreateActionParams) (*CreateActionRequest, error) {
	kind, err := models.ParseActionKind(params.Kind)
	if err != nil {
		return nil, err
	}

	provider := params.ProviderID
	if provider == "" {
		provider = uc.config.API.Provider
	}
	if provider == "" {
		return nil, fmt.Errorf("a provider is required (--provider or [api] provider)")
	}

	address, err := uc.address(ctx, params.Address)
	if err != nil {
		return nil, err
	}

	args, err := buildArgs(kind, params)
	if err != nil {
		return nil, fmt.Errorf("invalid %s arguments: %w", kind, err)
	}

	return &CreateActionRequest{
		ProviderID: provider,
		Kind:       kind,
		Address:    address,
		Args:       args,
	}, nil
}

func (uc *CreateAction) address(ctx context.Context, explicit string) (string, error) {
	candidate := explicit
	if candidate == "" {
		candidate = uc.config.Account
	}
	if candidate == "" && uc.localConfig != nil {
		local, err := uc.localConfig.Load(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to load local config: %w", err)
		}
		candidate = local.Account
	}
	if candidate == "" {
		return "", fmt.Errorf("an account is required (--account or `perpdesk accounts switch --save`)")
	}
	addr, err := parseAccount(candidate)
	if err != nil {
		return "", err
	}
	return addr.Hex(), nil
}

// buildArgs checks that each kind carries what it needs
func buildArgs(kind models.ActionKind, p CreateActionParams) (*models.TransactionArgs, error) {
	args := &models.TransactionArgs{
		Market:     strings.ToUpper(p.Market),
		Side:       strings.ToLower(p.Side),
		PositionID: p.PositionID,
		OrderID:    p.OrderID,
	}

	var err error
	if args.Amount, err = positiveDecimal("amount", p.Amount); err != nil {
		return nil, err
	}
	if args.Leverage, err = positiveDecimal("leverage", p.Leverage); err != nil {
		return nil, err
	}
	if args.Price, err = positiveDecimal("price", p.Price); err != nil {
		return nil, err
	}

	var missing []string
	require := func(name string, ok bool) {
		if !ok {
			missing = append(missing, name)
		}
	}

	switch kind {
	case models.ActionKindOpen:
		require("market", args.Market != "")
		require("side", args.Side != "")
		require("amount", args.Amount != nil)
		if args.Side != "" && args.Side != "long" && args.Side != "short" {
			return nil, fmt.Errorf("side must be long or short, got %q", args.Side)
		}
	case models.ActionKindClose:
		require("position", args.PositionID != "")
	case models.ActionKindUpdateLeverage:
		require("market", args.Market != "")
		require("leverage", args.Leverage != nil)
	case models.ActionKindStopLoss, models.ActionKindTakeProfit:
		require("position", args.PositionID != "")
		require("price", args.Price != nil)
	case models.ActionKindCancelOrder:
		require("order", args.OrderID != "")
	case models.ActionKindFund, models.ActionKindWithdraw:
		require("amount", args.Amount != nil)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}
	return args, nil
}

func positiveDecimal(name, s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if !d.IsPositive() {
		return nil, fmt.Errorf("%s must be positive, got %s", name, s)
	}
	return &d, nil
}
