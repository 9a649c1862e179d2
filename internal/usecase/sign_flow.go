package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/perpdesk/perpdesk/internal/domain"
	"github.com/perpdesk/perpdesk/internal/domain/models"
	"github.com/perpdesk/perpdesk/pkg/stream"
)

// SignFlowDeps are the collaborators a signing flow is built from
type SignFlowDeps struct {
	Signer Signer
	API    ActionAPI
	Poll   PollPolicy
	Log    *slog.Logger
}

// SignFlow drives every transaction of an action through sign, submit and
// check, in order. Each transition is published to subscribers before the
// loop moves on. A failing step halts the loop with the step preserved so
// Retry resumes exactly there; defects abort the flow instead.
type SignFlow struct {
	id       string
	actionID string
	deps     SignFlowDeps
	account  common.Address
	log      *slog.Logger

	updates *stream.Broadcaster[models.SignFlowState]
	aborted chan struct{}

	mu      sync.Mutex
	state   models.SignFlowState
	started bool
	running bool
	err     error
}

// NewSignFlow creates a flow for action, signing as account. The flow is idle
// until Start is called.
func NewSignFlow(deps SignFlowDeps, action *models.Action, account common.Address) *SignFlow {
	id := uuid.NewString()
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	return &SignFlow{
		id:       id,
		actionID: action.ID,
		deps:     deps,
		account:  account,
		log:      log.With("component", "SignFlow", "flow", id, "action", action.ID),
		updates:  stream.NewBroadcaster[models.SignFlowState](),
		aborted:  make(chan struct{}),
		state: models.SignFlowState{
			FlowID:       id,
			Action:       action.Clone(),
			Transactions: models.CloneTransactions(action.Transactions),
		},
	}
}

// ID returns the flow identifier
func (f *SignFlow) ID() string {
	return f.id
}

// Account returns the account the flow signs with
func (f *SignFlow) Account() common.Address {
	return f.account
}

// Subscribe returns a subscription to every snapshot published from now on
func (f *SignFlow) Subscribe() *stream.Subscription[models.SignFlowState] {
	return f.updates.Subscribe()
}

// Snapshot returns the current state
func (f *SignFlow) Snapshot() models.SignFlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Clone()
}

// Running reports whether the driving loop is active
func (f *SignFlow) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

// Err returns the defect that aborted the flow, if any
func (f *SignFlow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Aborted is closed when a defect aborts the flow
func (f *SignFlow) Aborted() <-chan struct{} {
	return f.aborted
}

// Start launches the driving loop in the background. It may only be called
// once per flow.
func (f *SignFlow) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.started {
		return fmt.Errorf("%w: already started", domain.ErrFlowRunning)
	}
	f.started = true
	f.running = true
	go f.drive(ctx)
	return nil
}

// Retry re-enters the driving loop at the step the flow halted on. It is only
// valid while the flow is halted on an error; otherwise it returns an error
// and leaves the state untouched.
func (f *SignFlow) Retry(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case f.err != nil:
		return fmt.Errorf("%w: %w", domain.ErrFlowAborted, f.err)
	case f.running:
		return domain.ErrFlowRunning
	case !f.state.Halted():
		return domain.ErrFlowNotHalted
	}
	f.log.Info("retrying", "index", f.state.CurrentTxIndex, "step", f.state.Step)
	f.running = true
	go f.drive(ctx)
	return nil
}

func (f *SignFlow) drive(ctx context.Context) {
	if step, _, _ := f.position(); step == models.StepNone {
		f.apply(machineStart{})
	}

	for {
		step, idx, tx := f.position()
		if step == models.StepNone {
			return
		}

		var err error
		switch step {
		case models.StepSign:
			err = f.sign(ctx, tx)
		case models.StepSubmit:
			err = f.submit(ctx, tx)
		case models.StepCheck:
			err = f.check(ctx, tx)
		default:
			err = domain.Defect("unknown step %q", step)
		}
		if err == nil {
			continue
		}

		if domain.IsDefect(err) {
			f.abort(err)
			return
		}
		f.apply(stepFailed{err: &domain.StepError{
			Step:          step,
			TxIndex:       idx,
			TransactionID: tx.ID,
			Err:           err,
		}})
		return
	}
}

func (f *SignFlow) sign(ctx context.Context, tx models.Transaction) error {
	f.apply(signStart{})

	if !tx.HasPayload() {
		f.log.Debug("nothing to sign, treating as confirmed", "tx", tx.ID)
		f.apply(checkDone{tx: tx})
		return nil
	}

	accounts := f.deps.Signer.AccountState()
	if !accounts.Connected {
		return domain.Defect("%w: cannot sign transaction %s", domain.ErrWalletDisconnected, tx.ID)
	}
	if accounts.CurrentAccount != f.account {
		if !accounts.Knows(f.account) {
			return fmt.Errorf("%w: %w: %s", domain.ErrSigningFailed, domain.ErrUnknownAccount, f.account.Hex())
		}
		f.log.Debug("switching account", "from", accounts.CurrentAccount.Hex(), "to", f.account.Hex())
		if err := f.deps.Signer.SwitchAccount(ctx, f.account); err != nil {
			return fmt.Errorf("%w: switch account: %w", domain.ErrSigningFailed, err)
		}
	}

	hash, err := f.deps.Signer.SignTransaction(ctx, &tx, f.account)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSigningFailed, err)
	}
	f.apply(signDone{hash: hash})
	return nil
}

func (f *SignFlow) submit(ctx context.Context, tx models.Transaction) error {
	f.apply(submitStart{})

	hash := f.Snapshot().TxHash
	if hash == "" {
		return domain.Defect("no signature recorded for transaction %s", tx.ID)
	}

	req := SubmitRequest{TxHash: hash}
	if tx.SigningFormat.IsTypedData() {
		req = SubmitRequest{SignedPayload: hash}
	}
	ack, err := f.deps.API.SubmitTransaction(ctx, tx.ID, req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSubmissionFailed, err)
	}
	if ack != nil {
		f.log.Debug("submission acknowledged", "tx", tx.ID, "status", ack.Status)
	}
	f.apply(submitDone{})
	return nil
}

func (f *SignFlow) check(ctx context.Context, tx models.Transaction) error {
	f.apply(checkStart{})

	action, refreshed, err := f.deps.Poll.Confirm(ctx, func(ctx context.Context) (*models.Action, error) {
		return f.deps.API.GetAction(ctx, f.actionID)
	}, tx.ID)
	if err != nil {
		return err
	}
	f.apply(checkDone{action: action, tx: refreshed})
	return nil
}

// position reads what the loop should do next
func (f *SignFlow) position() (models.SignFlowStep, int, models.Transaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, _ := f.state.Current()
	return f.state.Step, f.state.CurrentTxIndex, tx.Clone()
}

// apply reduces ev into the state cell and publishes the result. The loop is
// marked idle in the same critical section that publishes a done or halted
// snapshot, so an observer of that snapshot can Retry immediately.
func (f *SignFlow) apply(ev flowEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.state = reduce(f.state, ev)
	if f.state.IsDone || f.state.Halted() {
		f.running = false
	}
	f.log.Debug("transition",
		"event", ev.name(),
		"index", f.state.CurrentTxIndex,
		"step", f.state.Step,
		"done", f.state.IsDone,
	)
	f.updates.Publish(f.state.Clone())
}

// abort stops the flow for good. The state cell is left as it was; the
// stream is closed and Err reports the defect.
func (f *SignFlow) abort(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.log.Error("sign flow aborted", "error", err)
	f.err = err
	f.running = false
	close(f.aborted)
	f.updates.Close()
}
