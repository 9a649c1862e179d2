package usecase

import (
	"context"
	"fmt"

	"github.com/perpdesk/perpdesk/internal/domain/models"
	"github.com/samber/lo"
)

// ShowActionResult contains an action and a summary of its transactions
type ShowActionResult struct {
	Action   *models.Action
	Pending  int
	Settled  int
	Rejected int
}

// ShowAction is a use case for inspecting an action
type ShowAction struct {
	api ActionAPI
}

// NewShowAction creates a new ShowAction use case
func NewShowAction(api ActionAPI) *ShowAction {
	return &ShowAction{api: api}
}

// Run executes the show action use case
func (uc *ShowAction) Run(ctx context.Context, id string) (*ShowActionResult, error) {
	action, err := uc.api.GetAction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch action %s: %w", id, err)
	}

	settled := lo.CountBy(action.Transactions, func(tx models.Transaction) bool { return tx.Status.IsSettled() })
	rejected := lo.CountBy(action.Transactions, func(tx models.Transaction) bool { return tx.Status.IsRejected() })

	return &ShowActionResult{
		Action:   action,
		Settled:  settled,
		Rejected: rejected,
		Pending:  len(action.Transactions) - settled - rejected,
	}, nil
}
