package usecase

import (
	"errors"
	"testing"

	"github.com/perpdesk/perpdesk/internal/domain/models"
	"github.com/stretchr/testify/assert"
)

func twoTxState() models.SignFlowState {
	txs := []models.Transaction{
		{ID: "tx-1", Status: models.TransactionStatusCreated},
		{ID: "tx-2", Status: models.TransactionStatusCreated},
	}
	return models.SignFlowState{
		Action:       models.Action{ID: "act-1", Transactions: txs},
		Transactions: models.CloneTransactions(txs),
	}
}

func TestReduce(t *testing.T) {
	t.Run("machine start enters sign", func(t *testing.T) {
		s := reduce(twoTxState(), machineStart{})
		assert.Equal(t, models.StepSign, s.Step)
		assert.Equal(t, 0, s.CurrentTxIndex)
		assert.False(t, s.IsDone)
	})

	t.Run("machine start on empty action is done", func(t *testing.T) {
		s := reduce(models.SignFlowState{}, machineStart{})
		assert.True(t, s.IsDone)
		assert.Equal(t, models.StepNone, s.Step)
	})

	t.Run("sign done records hash and moves to submit", func(t *testing.T) {
		s := reduce(reduce(twoTxState(), machineStart{}), signDone{hash: "0xabc"})
		assert.Equal(t, "0xabc", s.TxHash)
		assert.Equal(t, models.StepSubmit, s.Step)
	})

	t.Run("step failure keeps step", func(t *testing.T) {
		s := twoTxState()
		s.Step = models.StepSubmit
		s.TxHash = "0xabc"
		s = reduce(s, stepFailed{err: errors.New("boom")})
		assert.Equal(t, models.StepSubmit, s.Step)
		assert.Equal(t, "0xabc", s.TxHash)
		assert.True(t, s.Halted())
	})

	t.Run("step start clears error", func(t *testing.T) {
		s := twoTxState()
		s.Step = models.StepCheck
		s.Error = errors.New("boom")
		s = reduce(s, checkStart{})
		assert.NoError(t, s.Error)
		assert.Equal(t, models.StepCheck, s.Step)
	})

	t.Run("check done advances to next transaction", func(t *testing.T) {
		s := twoTxState()
		s.Step = models.StepCheck
		s.TxHash = "0xabc"
		refreshed := &models.Action{ID: "act-1", Status: models.ActionStatusPending, Transactions: []models.Transaction{
			{ID: "tx-1", Status: models.TransactionStatusConfirmed},
			{ID: "tx-2", Status: models.TransactionStatusCreated},
		}}

		s = reduce(s, checkDone{action: refreshed, tx: refreshed.Transactions[0]})

		assert.Equal(t, 1, s.CurrentTxIndex)
		assert.Equal(t, models.StepSign, s.Step)
		assert.Empty(t, s.TxHash)
		assert.Equal(t, models.TransactionStatusConfirmed, s.Transactions[0].Status)
		assert.Equal(t, models.ActionStatusPending, s.Action.Status)
		assert.False(t, s.IsDone)
	})

	t.Run("check done on last transaction finishes", func(t *testing.T) {
		s := twoTxState()
		s.CurrentTxIndex = 1
		s.Step = models.StepCheck
		s.TxHash = "0xdef"

		s = reduce(s, checkDone{tx: models.Transaction{ID: "tx-2", Status: models.TransactionStatusBroadcasted}})

		assert.True(t, s.IsDone)
		assert.Equal(t, models.StepNone, s.Step)
		assert.Empty(t, s.TxHash)
		assert.NoError(t, s.Error)
		assert.Equal(t, 1, s.CurrentTxIndex)
		assert.Equal(t, models.TransactionStatusBroadcasted, s.Transactions[1].Status)
	})

	t.Run("merge preserves working order", func(t *testing.T) {
		working := []models.Transaction{{ID: "a"}, {ID: "b"}, {ID: "c"}}
		refreshed := []models.Transaction{
			{ID: "c", Status: models.TransactionStatusSigned},
			{ID: "a", Status: models.TransactionStatusConfirmed},
		}
		merged := mergeTransactions(working, refreshed)
		assert.Equal(t, []string{"a", "b", "c"}, []string{merged[0].ID, merged[1].ID, merged[2].ID})
		assert.Equal(t, models.TransactionStatusConfirmed, merged[0].Status)
		assert.Equal(t, models.TransactionStatus(""), merged[1].Status)
		assert.Equal(t, models.TransactionStatusSigned, merged[2].Status)
	})

	t.Run("unknown event panics", func(t *testing.T) {
		assert.Panics(t, func() { reduce(twoTxState(), bogusEvent{}) })
	})
}

type bogusEvent struct{}

func (bogusEvent) name() string { return "bogus" }
