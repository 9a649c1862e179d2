package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/perpdesk/perpdesk/internal/domain"
	"github.com/perpdesk/perpdesk/internal/domain/models"
	"github.com/perpdesk/perpdesk/pkg/stream"
)

// flowHandle is the part of a signing flow the view drives
type flowHandle interface {
	Snapshot() models.SignFlowState
	Retry(ctx context.Context) error
}

type (
	stateMsg        struct{ state models.SignFlowState }
	streamClosedMsg struct{}
	retryMsg        struct{ err error }
)

// signModel is the bubbletea model following one signing flow
type signModel struct {
	ctx     context.Context
	flow    flowHandle
	sub     *stream.Subscription[models.SignFlowState]
	account common.Address

	state    models.SignFlowState
	retryErr error
	closed   bool
	quit     bool
}

func newSignModel(ctx context.Context, flow flowHandle, sub *stream.Subscription[models.SignFlowState], account common.Address) signModel {
	return signModel{
		ctx:     ctx,
		flow:    flow,
		sub:     sub,
		account: account,
		state:   flow.Snapshot(),
	}
}

// Init is the initial command for bubbletea
func (m signModel) Init() tea.Cmd {
	return waitForState(m.sub)
}

func waitForState(sub *stream.Subscription[models.SignFlowState]) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-sub.C()
		if !ok {
			return streamClosedMsg{}
		}
		return stateMsg{state: s}
	}
}

func (m signModel) retry() tea.Cmd {
	return func() tea.Msg {
		return retryMsg{err: m.flow.Retry(m.ctx)}
	}
}

// Update handles messages and updates the model
func (m signModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		m.state = msg.state
		m.retryErr = nil
		if m.state.IsDone {
			return m, tea.Quit
		}
		return m, waitForState(m.sub)
	case streamClosedMsg:
		m.closed = true
		return m, tea.Quit
	case retryMsg:
		// a retry that raced the loop restarting is harmless
		if msg.err != nil && !errors.Is(msg.err, domain.ErrFlowRunning) {
			m.retryErr = msg.err
		}
		if errors.Is(msg.err, domain.ErrFlowAborted) {
			return m, tea.Quit
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quit = true
			return m, tea.Quit
		case "r", "enter":
			if m.state.Halted() {
				return m, m.retry()
			}
		}
	}
	return m, nil
}

// View renders the UI
func (m signModel) View() string {
	var b strings.Builder

	title := fmt.Sprintf("Signing action %s", m.state.Action.ID)
	if m.state.Action.Kind != "" {
		title += fmt.Sprintf(" (%s)", m.state.Action.Kind)
	}
	b.WriteString(color.New(color.FgCyan, color.Bold).Sprintf("%s\n", title))
	b.WriteString(color.New(color.Faint).Sprintf("Account %s\n\n", m.account.Hex()))

	if len(m.state.Transactions) == 0 {
		b.WriteString("No transactions to sign\n")
	}

	for i, tx := range m.state.Transactions {
		icon, detail := m.row(i, tx)
		fmt.Fprintf(&b, "%s %s %s %s\n",
			icon,
			color.New(color.FgWhite).Sprintf("%d.", i+1),
			tx.Type,
			color.New(color.FgYellow).Sprintf("(%s)", tx.ID),
		)
		if detail != "" {
			fmt.Fprintf(&b, "     %s\n", detail)
		}
	}

	b.WriteString("\n")
	switch {
	case m.state.IsDone:
		b.WriteString(color.New(color.FgGreen, color.Bold).Sprint("✓ Action complete\n"))
	case m.closed:
		b.WriteString(color.New(color.FgRed, color.Bold).Sprint("✗ Signing aborted\n"))
	case m.state.Halted():
		if m.retryErr != nil {
			b.WriteString(color.New(color.FgRed).Sprintf("Retry failed: %v\n", m.retryErr))
		}
		b.WriteString(color.New(color.FgYellow).Sprint("r: retry  q: quit\n"))
	default:
		b.WriteString(color.New(color.FgYellow).Sprint("q: quit\n"))
	}

	return b.String()
}

// row returns the status icon and the detail line for transaction i
func (m signModel) row(i int, tx models.Transaction) (string, string) {
	s := m.state
	switch {
	case i < s.CurrentTxIndex || s.IsDone:
		return color.New(color.FgGreen).Sprint("✓"), color.New(color.Faint).Sprint(tx.Status)
	case i > s.CurrentTxIndex:
		return color.New(color.FgWhite).Sprint("○"), ""
	case s.Error != nil:
		return color.New(color.FgRed).Sprint("✗"), color.New(color.FgRed).Sprintf("%s failed: %v", s.Step, s.Error)
	}

	var detail string
	switch s.Step {
	case models.StepSign:
		detail = "waiting for wallet signature"
	case models.StepSubmit:
		detail = "submitting " + s.TxHash
	case models.StepCheck:
		detail = "waiting for confirmation"
	}
	return color.New(color.FgCyan).Sprint("▸"), detail
}

// runSignView follows the flow in a full-screen view until it completes,
// aborts or the user quits. It returns the last state seen.
func runSignView(ctx context.Context, flow flowHandle, sub *stream.Subscription[models.SignFlowState], account common.Address) (models.SignFlowState, error) {
	p := tea.NewProgram(newSignModel(ctx, flow, sub, account), tea.WithContext(ctx))

	finalModel, err := p.Run()
	if err != nil {
		return models.SignFlowState{}, fmt.Errorf("signing view failed: %w", err)
	}

	m := finalModel.(signModel)
	if m.quit && !m.state.IsDone {
		return m.state, fmt.Errorf("signing cancelled")
	}
	return m.state, nil
}
