package usecase

import (
	"fmt"

	"github.com/perpdesk/perpdesk/internal/domain/models"
	"github.com/samber/lo"
)

// flowEvent is the closed set of transitions the signing loop applies to its
// state cell. Every event is handled by reduce.
type flowEvent interface {
	name() string
}

type (
	machineStart struct{}
	signStart    struct{}
	signDone     struct{ hash string }
	submitStart  struct{}
	submitDone   struct{}
	checkStart   struct{}
	checkDone    struct {
		// action is the refreshed action, nil when the step was skipped
		action *models.Action
		tx     models.Transaction
	}
	stepFailed struct{ err error }
)

func (machineStart) name() string { return "machine_start" }
func (signStart) name() string    { return "sign_start" }
func (signDone) name() string     { return "sign_done" }
func (submitStart) name() string  { return "submit_start" }
func (submitDone) name() string   { return "submit_done" }
func (checkStart) name() string   { return "check_start" }
func (checkDone) name() string    { return "check_done" }
func (stepFailed) name() string   { return "step_failed" }

// reduce returns the state that follows s after ev
func reduce(s models.SignFlowState, ev flowEvent) models.SignFlowState {
	next := s
	switch e := ev.(type) {
	case machineStart:
		next.Error = nil
		if len(next.Transactions) == 0 {
			next.IsDone = true
			next.Step = models.StepNone
			break
		}
		next.Step = models.StepSign

	case signStart:
		next.Error = nil
		next.Step = models.StepSign

	case signDone:
		next.TxHash = e.hash
		next.Step = models.StepSubmit

	case submitStart:
		next.Error = nil
		next.Step = models.StepSubmit

	case submitDone:
		next.Step = models.StepCheck

	case checkStart:
		next.Error = nil
		next.Step = models.StepCheck

	case checkDone:
		refreshed := []models.Transaction{e.tx}
		if e.action != nil {
			next.Action = e.action.Clone()
			refreshed = e.action.Transactions
		}
		next.Transactions = mergeTransactions(next.Transactions, refreshed)
		next.TxHash = ""
		next.Error = nil
		if next.CurrentTxIndex >= len(next.Transactions)-1 {
			next.IsDone = true
			next.Step = models.StepNone
			break
		}
		next.CurrentTxIndex++
		next.Step = models.StepSign

	case stepFailed:
		next.Error = e.err

	default:
		panic(fmt.Sprintf("sign flow: unhandled event %T", ev))
	}
	return next
}

// mergeTransactions replaces working entries with their refreshed versions,
// keeping the working order
func mergeTransactions(working, refreshed []models.Transaction) []models.Transaction {
	return lo.Map(working, func(tx models.Transaction, _ int) models.Transaction {
		if r, ok := lo.Find(refreshed, func(r models.Transaction) bool { return r.ID == tx.ID }); ok {
			return r.Clone()
		}
		return tx
	})
}
