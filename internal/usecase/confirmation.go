package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jpillora/backoff"
	"github.com/perpdesk/perpdesk/internal/domain"
	"github.com/perpdesk/perpdesk/internal/domain/config"
	"github.com/perpdesk/perpdesk/internal/domain/models"
	"github.com/samber/lo"
)

// PollPolicy bounds confirmation polling: at most MaxAttempts fetches spaced
// Interval apart.
type PollPolicy struct {
	Interval    time.Duration
	MaxAttempts int

	// Sleep waits between attempts. Nil waits on a timer that honours ctx.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPollPolicy polls 20 times, 2 seconds apart
func DefaultPollPolicy() PollPolicy {
	poll := config.DefaultPollConfig()
	return PollPolicy{
		Interval:    poll.Interval,
		MaxAttempts: poll.Attempts,
	}
}

// NewPollPolicy builds the policy from the runtime config
func NewPollPolicy(cfg *config.RuntimeConfig) PollPolicy {
	p := DefaultPollPolicy()
	if cfg.Poll.Interval > 0 {
		p.Interval = cfg.Poll.Interval
	}
	if cfg.Poll.Attempts > 0 {
		p.MaxAttempts = cfg.Poll.Attempts
	}
	return p
}

// ActionFetcher re-reads an action from the backend
type ActionFetcher func(ctx context.Context) (*models.Action, error)

// Confirm polls fetch until the transaction identified by txID reaches a
// settled status. FAILED and NOT_FOUND end polling immediately. A transaction
// missing from a fetched action is a defect.
func (p PollPolicy) Confirm(ctx context.Context, fetch ActionFetcher, txID string) (*models.Action, models.Transaction, error) {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultPollPolicy().MaxAttempts
	}
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollPolicy().Interval
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	// constant schedule
	b := &backoff.Backoff{Min: interval, Max: interval, Factor: 1}

	var (
		lastStatus models.TransactionStatus
		lastErr    error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, b.Duration()); err != nil {
				return nil, models.Transaction{}, err
			}
		}

		action, err := fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, models.Transaction{}, ctx.Err()
			}
			lastErr = err
			continue
		}

		tx, ok := lo.Find(action.Transactions, func(t models.Transaction) bool {
			return t.ID == txID
		})
		if !ok {
			return nil, models.Transaction{}, domain.Defect("%w: %s not in action %s", domain.ErrTransactionMissing, txID, action.ID)
		}

		switch {
		case tx.Status.IsSettled():
			return action, tx, nil
		case tx.Status.IsRejected():
			return nil, tx, fmt.Errorf("%w: transaction %s is %s", domain.ErrConfirmationFailed, txID, tx.Status)
		}
		lastStatus = tx.Status
		lastErr = nil
	}

	if lastErr != nil {
		return nil, models.Transaction{}, fmt.Errorf("%w after %d attempts: %w", domain.ErrConfirmationTimeout, attempts, lastErr)
	}
	return nil, models.Transaction{}, fmt.Errorf("%w after %d attempts: transaction %s still %s", domain.ErrConfirmationTimeout, attempts, txID, lastStatus)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
