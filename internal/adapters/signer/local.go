package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/perpdesk/perpdesk/internal/domain/models"
	"github.com/perpdesk/perpdesk/pkg/stream"
)

// LocalSigner signs with an in-memory private key. Meant for development
// and test networks.
type LocalSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chain   Chain
	book    *accountBook
	log     *slog.Logger
}

// NewLocalSigner parses a hex private key
func NewLocalSigner(privateKey string, chain Chain, log *slog.Logger) (*LocalSigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &LocalSigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chain:   chain,
		book:    newAccountBook(),
		log:     log.With("component", "LocalSigner"),
	}, nil
}

// Connect exposes the key's address as the only account
func (s *LocalSigner) Connect(ctx context.Context) error {
	s.book.connect([]common.Address{s.address})
	return nil
}

// Close ends the session
func (s *LocalSigner) Close() error {
	s.book.disconnect()
	return nil
}

// SignTransaction signs and broadcasts native transactions, or signs typed data
func (s *LocalSigner) SignTransaction(ctx context.Context, tx *models.Transaction, account common.Address) (string, error) {
	if err := s.book.active(account); err != nil {
		return "", err
	}

	switch format(tx) {
	case models.SigningFormatEVMTransaction:
		req, err := decodeTxRequest(tx, account)
		if err != nil {
			return "", err
		}
		unsigned, err := s.chain.Prepare(ctx, tx.ChainID, account, req)
		if err != nil {
			return "", err
		}
		signed, err := types.SignTx(unsigned, types.LatestSignerForChainID(new(big.Int).SetUint64(tx.ChainID)), s.key)
		if err != nil {
			return "", fmt.Errorf("failed to sign transaction: %w", err)
		}
		if err := s.chain.SendTransaction(ctx, tx.ChainID, signed); err != nil {
			return "", err
		}
		return signed.Hash().Hex(), nil

	case models.SigningFormatEIP712:
		payload, err := decodeTypedData(tx.SignablePayload)
		if err != nil {
			return "", err
		}
		sig, err := crypto.Sign(payload.hash, s.key)
		if err != nil {
			return "", fmt.Errorf("failed to sign typed data: %w", err)
		}
		sig[crypto.RecoveryIDOffset] += 27
		s.log.Debug("signed typed data", "primaryType", payload.data.PrimaryType)
		return hexutil.Encode(sig), nil
	}
	return "", unsupportedFormat(tx)
}

// SwitchAccount only accepts the key's own address
func (s *LocalSigner) SwitchAccount(ctx context.Context, account common.Address) error {
	return s.book.switchTo(account)
}

// SubscribeAccounts streams account state changes
func (s *LocalSigner) SubscribeAccounts() *stream.Subscription[models.AccountState] {
	return s.book.subscribe()
}

// AccountState returns the current account state
func (s *LocalSigner) AccountState() models.AccountState {
	return s.book.get()
}
