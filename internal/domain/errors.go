package domain

import (
	"errors"
	"fmt"

	"github.com/perpdesk/perpdesk/internal/domain/models"
)

// Sentinel errors for the signing flow and its collaborators
var (
	// ErrNotFound is returned when a requested resource doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrSigningFailed is returned when the wallet rejected or could not sign
	ErrSigningFailed = errors.New("signing failed")

	// ErrSubmissionFailed is returned when the backend rejected a submission
	ErrSubmissionFailed = errors.New("submission failed")

	// ErrConfirmationFailed is returned when the chain reports a terminal failure
	ErrConfirmationFailed = errors.New("confirmation failed")

	// ErrConfirmationTimeout is returned when polling exhausted its attempts
	ErrConfirmationTimeout = errors.New("confirmation not reached")

	// ErrUnsupportedSigningFormat is returned for payloads a signer cannot handle
	ErrUnsupportedSigningFormat = errors.New("unsupported signing format")

	// ErrUnknownAccount is returned when an account is not held by the wallet
	ErrUnknownAccount = errors.New("account unknown to connected wallet")

	// ErrWalletDisconnected is returned when no wallet session is available
	ErrWalletDisconnected = errors.New("wallet disconnected")

	// ErrTransactionMissing is returned when a refreshed action lost a transaction
	ErrTransactionMissing = errors.New("transaction missing from action")

	// ErrFlowRunning is returned when retrying while the loop is still running
	ErrFlowRunning = errors.New("signing flow is running")

	// ErrFlowNotHalted is returned when retrying a flow that has no failure
	ErrFlowNotHalted = errors.New("signing flow is not halted on an error")

	// ErrFlowAborted is returned when retrying a flow that hit a defect
	ErrFlowAborted = errors.New("signing flow aborted")
)

// StepError is a retryable failure recorded in the flow state. The flow halts
// with Step preserved so a retry resumes there.
type StepError struct {
	Step          models.SignFlowStep
	TxIndex       int
	TransactionID string
	Err           error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step failed for transaction %d (%s): %v", e.Step, e.TxIndex, e.TransactionID, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// DefectError is an unrecoverable condition. It is never written into the
// flow state; the flow aborts instead.
type DefectError struct {
	Err error
}

func (e *DefectError) Error() string {
	return fmt.Sprintf("defect: %v", e.Err)
}

func (e *DefectError) Unwrap() error {
	return e.Err
}

// Defect wraps err as a DefectError
func Defect(format string, args ...any) error {
	return &DefectError{Err: fmt.Errorf(format, args...)}
}

// IsDefect reports whether err carries a DefectError
func IsDefect(err error) bool {
	var d *DefectError
	return errors.As(err, &d)
}
