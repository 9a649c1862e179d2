package models

import "fmt"

// ActionKind is the trading intent an action executes
type ActionKind string

const (
	ActionKindOpen           ActionKind = "open"
	ActionKindClose          ActionKind = "close"
	ActionKindUpdateLeverage ActionKind = "updateLeverage"
	ActionKindStopLoss       ActionKind = "stopLoss"
	ActionKindTakeProfit     ActionKind = "takeProfit"
	ActionKindCancelOrder    ActionKind = "cancelOrder"
	ActionKindFund           ActionKind = "fund"
	ActionKindWithdraw       ActionKind = "withdraw"
)

// ActionKinds lists every supported kind in display order
func ActionKinds() []ActionKind {
	return []ActionKind{
		ActionKindOpen,
		ActionKindClose,
		ActionKindUpdateLeverage,
		ActionKindStopLoss,
		ActionKindTakeProfit,
		ActionKindCancelOrder,
		ActionKindFund,
		ActionKindWithdraw,
	}
}

// ParseActionKind accepts the canonical kind or its CLI spelling
// (e.g. "stop-loss", "leverage")
func ParseActionKind(s string) (ActionKind, error) {
	switch s {
	case "open":
		return ActionKindOpen, nil
	case "close":
		return ActionKindClose, nil
	case "updateLeverage", "update-leverage", "leverage":
		return ActionKindUpdateLeverage, nil
	case "stopLoss", "stop-loss":
		return ActionKindStopLoss, nil
	case "takeProfit", "take-profit":
		return ActionKindTakeProfit, nil
	case "cancelOrder", "cancel-order", "cancel":
		return ActionKindCancelOrder, nil
	case "fund", "deposit":
		return ActionKindFund, nil
	case "withdraw":
		return ActionKindWithdraw, nil
	}
	return "", fmt.Errorf("unknown action kind %q", s)
}

// ActionStatus represents the overall backend status of an action
type ActionStatus string

const (
	ActionStatusCreated ActionStatus = "CREATED"
	ActionStatusPending ActionStatus = "PENDING"
	ActionStatusSuccess ActionStatus = "SUCCESS"
	ActionStatusFailed  ActionStatus = "FAILED"
)

// Action is a backend-issued unit of work made of ordered transactions
type Action struct {
	ID           string        `json:"id"`
	ProviderID   string        `json:"providerId"`
	Kind         ActionKind    `json:"type"`
	Status       ActionStatus  `json:"status"`
	Transactions []Transaction `json:"transactions"`
}

// Clone returns a deep copy of the action
func (a Action) Clone() Action {
	c := a
	c.Transactions = CloneTransactions(a.Transactions)
	return c
}

// CloneTransactions deep-copies a transaction list
func CloneTransactions(txs []Transaction) []Transaction {
	if txs == nil {
		return nil
	}
	out := make([]Transaction, len(txs))
	for i, tx := range txs {
		out[i] = tx.Clone()
	}
	return out
}
