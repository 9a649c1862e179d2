package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/perpdesk/perpdesk/internal/domain"
	"github.com/perpdesk/perpdesk/internal/domain/config"
	"github.com/perpdesk/perpdesk/internal/domain/models"
	"github.com/perpdesk/perpdesk/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults", func(t *testing.T) {
		p := usecase.DefaultPollPolicy()
		assert.Equal(t, 2*time.Second, p.Interval)
		assert.Equal(t, 20, p.MaxAttempts)
	})

	t.Run("runtime config overrides", func(t *testing.T) {
		p := usecase.NewPollPolicy(&config.RuntimeConfig{Poll: config.PollConfig{Interval: time.Second, Attempts: 5}})
		assert.Equal(t, time.Second, p.Interval)
		assert.Equal(t, 5, p.MaxAttempts)

		p = usecase.NewPollPolicy(&config.RuntimeConfig{})
		assert.Equal(t, usecase.DefaultPollPolicy().Interval, p.Interval)
		assert.Equal(t, usecase.DefaultPollPolicy().MaxAttempts, p.MaxAttempts)
	})

	t.Run("fetch errors exhaust into timeout carrying the cause", func(t *testing.T) {
		rec := &sleepRecorder{}
		p := usecase.PollPolicy{Interval: 50 * time.Millisecond, MaxAttempts: 3, Sleep: rec.sleep}
		cause := errors.New("dial tcp: connection refused")
		calls := 0

		_, _, err := p.Confirm(ctx, func(context.Context) (*models.Action, error) {
			calls++
			return nil, cause
		}, "tx-a")

		assert.ErrorIs(t, err, domain.ErrConfirmationTimeout)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []time.Duration{50 * time.Millisecond, 50 * time.Millisecond}, rec.recorded())
	})

	t.Run("cancelled context stops polling", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		calls := 0
		p := usecase.PollPolicy{Interval: time.Hour, MaxAttempts: 20}

		_, _, err := p.Confirm(cctx, func(context.Context) (*models.Action, error) {
			calls++
			cancel()
			return withStatus(testAction(1), models.TransactionStatusSigned), nil
		}, "tx-a")

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})

	t.Run("settled returns the refreshed transaction", func(t *testing.T) {
		action, tx, err := usecase.DefaultPollPolicy().Confirm(ctx, func(context.Context) (*models.Action, error) {
			return withStatus(testAction(2), models.TransactionStatusConfirmed), nil
		}, "tx-b")

		require.NoError(t, err)
		assert.Equal(t, "tx-b", tx.ID)
		assert.Equal(t, models.TransactionStatusConfirmed, tx.Status)
		assert.Len(t, action.Transactions, 2)
	})

	t.Run("missing transaction is a defect", func(t *testing.T) {
		_, _, err := usecase.DefaultPollPolicy().Confirm(ctx, func(context.Context) (*models.Action, error) {
			return testAction(1), nil
		}, "tx-z")

		assert.True(t, domain.IsDefect(err))
		assert.ErrorIs(t, err, domain.ErrTransactionMissing)
	})
}
