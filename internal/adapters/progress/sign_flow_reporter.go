package progress

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/perpdesk/perpdesk/internal/domain/models"
	"github.com/perpdesk/perpdesk/pkg/stream"
)

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
	stepColor = color.New(color.FgYellow)
	faint     = color.New(color.Faint)
)

// SignFlowReporter prints one line per step transition of a signing flow.
// It is the plain-terminal counterpart of the sign TUI.
type SignFlowReporter struct {
	out     io.Writer
	spinner *spinner.Spinner

	seen     bool
	lastIdx  int
	lastStep models.SignFlowStep
	lastErr  error
}

// NewSignFlowReporter creates a reporter writing to out. With animate set, a
// spinner runs while a step is in flight.
func NewSignFlowReporter(out io.Writer, animate bool) *SignFlowReporter {
	r := &SignFlowReporter{out: out}
	if animate {
		r.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
		r.spinner.HideCursor = false
	}
	return r
}

// Follow renders snapshots from sub until the flow finishes or halts. It
// returns the last snapshot seen and false when the stream ended first.
func (r *SignFlowReporter) Follow(ctx context.Context, sub *stream.Subscription[models.SignFlowState]) (models.SignFlowState, bool) {
	defer r.stopSpinner()

	var last models.SignFlowState
	for {
		select {
		case <-ctx.Done():
			return last, false
		case s, ok := <-sub.C():
			if !ok {
				return last, false
			}
			last = s
			r.Render(s)
			if s.IsDone || s.Halted() {
				return last, true
			}
		}
	}
}

// Render prints whatever changed since the previous snapshot
func (r *SignFlowReporter) Render(s models.SignFlowState) {
	lines, suffix := r.diff(s)

	r.stopSpinner()
	for _, line := range lines {
		fmt.Fprintln(r.out, line)
	}
	if r.spinner != nil && suffix != "" {
		r.spinner.Suffix = " " + suffix
		r.spinner.Start()
	}
}

func (r *SignFlowReporter) diff(s models.SignFlowState) ([]string, string) {
	var lines []string
	total := len(s.Transactions)

	if !r.seen {
		r.seen = true
		r.lastIdx = s.CurrentTxIndex
		lines = append(lines, fmt.Sprintf("Signing action %s (%d transactions)", s.Action.ID, total))
		for i := 0; i < s.CurrentTxIndex && i < total; i++ {
			lines = append(lines, okColor.Sprintf("✓ %s settled", label(s, i)))
		}
	}

	for i := r.lastIdx; i < s.CurrentTxIndex && i < total; i++ {
		lines = append(lines, okColor.Sprintf("✓ %s %s", label(s, i), settledWord(s.Transactions[i])))
	}

	if s.IsDone {
		if s.CurrentTxIndex < total {
			lines = append(lines, okColor.Sprintf("✓ %s %s", label(s, s.CurrentTxIndex), settledWord(s.Transactions[s.CurrentTxIndex])))
		}
		r.lastIdx, r.lastStep, r.lastErr = total, models.StepNone, nil
		return append(lines, okColor.Sprintf("✓ Action %s complete", s.Action.ID)), ""
	}

	if s.Error != nil {
		if s.Error != r.lastErr {
			lines = append(lines, failColor.Sprintf("✗ %s failed: %v", label(s, s.CurrentTxIndex), s.Error))
		}
		r.lastIdx, r.lastStep, r.lastErr = s.CurrentTxIndex, s.Step, s.Error
		return lines, ""
	}

	suffix := ""
	if s.Step != models.StepNone {
		suffix = fmt.Sprintf("%s %s", label(s, s.CurrentTxIndex), stepText(s))
		if s.Step != r.lastStep || s.CurrentTxIndex != r.lastIdx || r.lastErr != nil {
			lines = append(lines, stepColor.Sprintf("● %s", suffix))
		}
	}
	r.lastIdx, r.lastStep, r.lastErr = s.CurrentTxIndex, s.Step, nil
	return lines, suffix
}

func (r *SignFlowReporter) stopSpinner() {
	if r.spinner != nil && r.spinner.Active() {
		r.spinner.Stop()
	}
}

func label(s models.SignFlowState, i int) string {
	if i < 0 || i >= len(s.Transactions) {
		return fmt.Sprintf("[%d/%d]", i+1, len(s.Transactions))
	}
	tx := s.Transactions[i]
	return fmt.Sprintf("[%d/%d] %s %s", i+1, len(s.Transactions), tx.Type, faint.Sprintf("(%s)", tx.ID))
}

func stepText(s models.SignFlowState) string {
	switch s.Step {
	case models.StepSign:
		return "waiting for wallet signature"
	case models.StepSubmit:
		return "submitting " + short(s.TxHash)
	case models.StepCheck:
		return "waiting for confirmation"
	}
	return ""
}

func settledWord(tx models.Transaction) string {
	if tx.Status == "" {
		return "settled"
	}
	return "settled " + faint.Sprintf("(%s)", tx.Status)
}

func short(hash string) string {
	if len(hash) <= 14 {
		return hash
	}
	return hash[:8] + "…" + hash[len(hash)-6:]
}
