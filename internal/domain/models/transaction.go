package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// TransactionStatus represents the backend status of a transaction
type TransactionStatus string

const (
	TransactionStatusCreated     TransactionStatus = "CREATED"
	TransactionStatusSigned      TransactionStatus = "SIGNED"
	TransactionStatusBroadcasted TransactionStatus = "BROADCASTED"
	TransactionStatusConfirmed   TransactionStatus = "CONFIRMED"
	TransactionStatusFailed      TransactionStatus = "FAILED"
	TransactionStatusNotFound    TransactionStatus = "NOT_FOUND"
)

// IsSettled reports whether the chain accepted the transaction
func (s TransactionStatus) IsSettled() bool {
	return s == TransactionStatusConfirmed || s == TransactionStatusBroadcasted
}

// IsRejected reports whether the transaction can no longer succeed
func (s TransactionStatus) IsRejected() bool {
	return s == TransactionStatusFailed || s == TransactionStatusNotFound
}

// SigningFormat tells a signer how the payload must be signed
type SigningFormat string

const (
	SigningFormatEVMTransaction SigningFormat = "evm_transaction"
	SigningFormatEIP712         SigningFormat = "eip712"
	SigningFormatSolana         SigningFormat = "solana"
	SigningFormatCosmos         SigningFormat = "cosmos"
)

// IsTypedData reports whether the payload produces a signature rather than a
// broadcast transaction
func (f SigningFormat) IsTypedData() bool {
	return f == SigningFormatEIP712
}

// Transaction is one chain-level operation of an action
type Transaction struct {
	// Identification
	ID      string `json:"id"`
	Network string `json:"network"`
	ChainID uint64 `json:"chainId"`
	Type    string `json:"type"` // e.g. "approve", "createOrder", "deposit"

	// Lifecycle
	Status  TransactionStatus `json:"status"`
	Address string            `json:"address"` // acting address

	// Action-specific arguments (optional)
	Args *TransactionArgs `json:"args,omitempty"`

	// Signing (both absent once the backend finalized the step)
	SigningFormat   SigningFormat   `json:"signingFormat,omitempty"`
	SignablePayload json.RawMessage `json:"signablePayload,omitempty"`
}

// HasPayload reports whether there is anything left to sign
func (t *Transaction) HasPayload() bool {
	return len(t.SignablePayload) > 0 && string(t.SignablePayload) != "null"
}

// Clone returns a copy that shares no mutable memory with t
func (t Transaction) Clone() Transaction {
	c := t
	if t.Args != nil {
		args := *t.Args
		c.Args = &args
	}
	if t.SignablePayload != nil {
		c.SignablePayload = append(json.RawMessage(nil), t.SignablePayload...)
	}
	return c
}

// TransactionArgs carries the trading parameters a transaction executes
type TransactionArgs struct {
	Market     string           `json:"market,omitempty"`
	Side       string           `json:"side,omitempty"` // long, short
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Leverage   *decimal.Decimal `json:"leverage,omitempty"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	PositionID string           `json:"positionId,omitempty"`
	OrderID    string           `json:"orderId,omitempty"`
}
