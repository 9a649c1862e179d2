package blockchain

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// TxRequest is an unsigned EVM transaction as issued by the backend. Hex
// quantities follow the eth_sendTransaction encoding; missing nonce, gas and
// fee fields are filled from the chain before signing.
type TxRequest struct {
	From                 *common.Address `json:"from,omitempty"`
	To                   *common.Address `json:"to,omitempty"`
	Data                 hexutil.Bytes   `json:"data,omitempty"`
	Value                *hexutil.Big    `json:"value,omitempty"`
	Gas                  *hexutil.Uint64 `json:"gas,omitempty"`
	GasPrice             *hexutil.Big    `json:"gasPrice,omitempty"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas,omitempty"`
	Nonce                *hexutil.Uint64 `json:"nonce,omitempty"`
	ChainID              *hexutil.Big    `json:"chainId,omitempty"`
}

// DecodeTxRequest parses a signable payload
func DecodeTxRequest(raw json.RawMessage) (*TxRequest, error) {
	var req TxRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("invalid transaction payload: %w", err)
	}
	if req.To == nil && len(req.Data) == 0 {
		return nil, fmt.Errorf("invalid transaction payload: neither to nor data set")
	}
	return &req, nil
}

// Complete reports whether the request can be turned into a transaction
// without asking the chain
func (r *TxRequest) Complete() bool {
	hasFees := r.GasPrice != nil || (r.MaxFeePerGas != nil && r.MaxPriorityFeePerGas != nil)
	return r.Nonce != nil && r.Gas != nil && hasFees
}

// IsDynamicFee reports whether the request uses EIP-1559 fees
func (r *TxRequest) IsDynamicFee() bool {
	return r.GasPrice == nil
}

// Transaction builds the unsigned transaction. The request must be Complete.
func (r *TxRequest) Transaction(chainID *big.Int) (*types.Transaction, error) {
	if !r.Complete() {
		return nil, fmt.Errorf("transaction request is missing nonce, gas or fees")
	}
	if r.ChainID != nil && r.ChainID.ToInt().Cmp(chainID) != 0 {
		return nil, fmt.Errorf("chain ID mismatch: payload %s, transaction %s", r.ChainID.ToInt(), chainID)
	}

	value := new(big.Int)
	if r.Value != nil {
		value = r.Value.ToInt()
	}

	if !r.IsDynamicFee() {
		return types.NewTx(&types.LegacyTx{
			Nonce:    uint64(*r.Nonce),
			GasPrice: r.GasPrice.ToInt(),
			Gas:      uint64(*r.Gas),
			To:       r.To,
			Value:    value,
			Data:     r.Data,
		}), nil
	}
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     uint64(*r.Nonce),
		GasTipCap: r.MaxPriorityFeePerGas.ToInt(),
		GasFeeCap: r.MaxFeePerGas.ToInt(),
		Gas:       uint64(*r.Gas),
		To:        r.To,
		Value:     value,
		Data:      r.Data,
	}), nil
}
