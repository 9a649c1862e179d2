package signer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/perpdesk/perpdesk/internal/adapters/blockchain"
	"github.com/perpdesk/perpdesk/internal/domain"
	"github.com/perpdesk/perpdesk/internal/domain/models"
)

// Chain fills and broadcasts native transactions for signers that sign
// locally and therefore cannot rely on the wallet to broadcast
type Chain interface {
	Prepare(ctx context.Context, chainID uint64, from common.Address, req *blockchain.TxRequest) (*types.Transaction, error)
	SendTransaction(ctx context.Context, chainID uint64, tx *types.Transaction) error
}

// typedPayload is a decoded EIP-712 payload with its signing digest
type typedPayload struct {
	data    apitypes.TypedData
	hash    []byte
	rawData []byte // 0x19 0x01 || domainSeparator || structHash
}

func decodeTypedData(raw json.RawMessage) (*typedPayload, error) {
	var td apitypes.TypedData
	if err := json.Unmarshal(raw, &td); err != nil {
		return nil, fmt.Errorf("invalid typed data payload: %w", err)
	}
	hash, rawData, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return nil, fmt.Errorf("invalid typed data payload: %w", err)
	}
	return &typedPayload{data: td, hash: hash, rawData: []byte(rawData)}, nil
}

func decodeTxRequest(tx *models.Transaction, account common.Address) (*blockchain.TxRequest, error) {
	req, err := blockchain.DecodeTxRequest(tx.SignablePayload)
	if err != nil {
		return nil, err
	}
	if req.From != nil && *req.From != account {
		return nil, fmt.Errorf("payload is for %s, signing as %s", req.From.Hex(), account.Hex())
	}
	req.From = &account
	return req, nil
}

func unsupportedFormat(tx *models.Transaction) error {
	return fmt.Errorf("%w: %q for transaction %s", domain.ErrUnsupportedSigningFormat, tx.SigningFormat, tx.ID)
}

// format treats an untagged payload as a native transaction
func format(tx *models.Transaction) models.SigningFormat {
	if tx.SigningFormat == "" {
		return models.SigningFormatEVMTransaction
	}
	return tx.SigningFormat
}
