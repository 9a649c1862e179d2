package models

import "encoding/json"

// SignFlowStep is the step the signing loop is on for the current transaction
type SignFlowStep string

const (
	StepNone   SignFlowStep = ""
	StepSign   SignFlowStep = "sign"
	StepSubmit SignFlowStep = "submit"
	StepCheck  SignFlowStep = "check"
)

// SignFlowState is one snapshot of a signing flow.
//
// Invariants: IsDone implies Step == StepNone and Error == nil; while not done,
// 0 <= CurrentTxIndex < len(Transactions).
type SignFlowState struct {
	FlowID string `json:"flowId"`

	Action       Action        `json:"action"`
	Transactions []Transaction `json:"transactions"`

	CurrentTxIndex int          `json:"currentTxIndex"`
	Step           SignFlowStep `json:"step"`
	TxHash         string       `json:"txHash,omitempty"`
	Error          error        `json:"-"`
	IsDone         bool         `json:"isDone"`
}

// Clone returns a snapshot that shares no mutable memory with s
func (s SignFlowState) Clone() SignFlowState {
	c := s
	c.Action = s.Action.Clone()
	c.Transactions = CloneTransactions(s.Transactions)
	return c
}

// Halted reports whether the loop stopped on a recorded failure
func (s SignFlowState) Halted() bool {
	return !s.IsDone && s.Error != nil
}

// Current returns the transaction being processed, if any
func (s SignFlowState) Current() (Transaction, bool) {
	if s.CurrentTxIndex < 0 || s.CurrentTxIndex >= len(s.Transactions) {
		return Transaction{}, false
	}
	return s.Transactions[s.CurrentTxIndex], true
}

// MarshalJSON renders Error as its message
func (s SignFlowState) MarshalJSON() ([]byte, error) {
	type plain SignFlowState
	out := struct {
		plain
		Error string `json:"error,omitempty"`
	}{plain: plain(s)}
	if s.Error != nil {
		out.Error = s.Error.Error()
	}
	return json.Marshal(out)
}
