package blockchain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/perpdesk/perpdesk/internal/domain/config"
)

// Pool keeps one RPC client per configured chain. Signers that hold keys
// themselves use it to fill and broadcast native transactions.
type Pool struct {
	chains map[uint64]config.ChainConfig
	log    *slog.Logger

	mu      sync.Mutex
	clients map[uint64]*ethclient.Client
}

// NewPool creates a client pool over the configured chains
func NewPool(cfg *config.RuntimeConfig, log *slog.Logger) *Pool {
	return &Pool{
		chains:  cfg.Chains,
		log:     log.With("component", "ChainPool"),
		clients: make(map[uint64]*ethclient.Client),
	}
}

// Client returns a connected client for chainID
func (p *Pool) Client(ctx context.Context, chainID uint64) (*ethclient.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[chainID]; ok {
		return c, nil
	}

	chain, ok := p.chains[chainID]
	if !ok || chain.RPCURL == "" {
		return nil, fmt.Errorf("no rpc_url configured for chain %d (add [chains.%d] to perpdesk.toml)", chainID, chainID)
	}

	client, err := ethclient.DialContext(ctx, chain.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	// Verify chain ID matches
	networkChainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	if networkChainID.Uint64() != chainID {
		client.Close()
		return nil, fmt.Errorf("chain ID mismatch: expected %d, got %d", chainID, networkChainID.Uint64())
	}

	p.log.Debug("connected", "chain", chainID, "name", chain.Name)
	p.clients[chainID] = client
	return client, nil
}

// Prepare returns the unsigned transaction for req sent from from, filling
// nonce, gas and fees from the chain where the request leaves them out
func (p *Pool) Prepare(ctx context.Context, chainID uint64, from common.Address, req *TxRequest) (*types.Transaction, error) {
	id := new(big.Int).SetUint64(chainID)
	if req.Complete() {
		return req.Transaction(id)
	}
	client, err := p.Client(ctx, chainID)
	if err != nil {
		return nil, err
	}
	return fill(ctx, client, id, from, req)
}

// SendTransaction broadcasts a signed transaction
func (p *Pool) SendTransaction(ctx context.Context, chainID uint64, tx *types.Transaction) error {
	client, err := p.Client(ctx, chainID)
	if err != nil {
		return err
	}
	if err := client.SendTransaction(ctx, tx); err != nil {
		return fmt.Errorf("failed to broadcast transaction: %w", err)
	}
	p.log.Info("broadcast", "chain", chainID, "hash", tx.Hash().Hex())
	return nil
}

// Close drops every connection
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, c := range p.clients {
		c.Close()
		delete(p.clients, id)
	}
}

// chainReader is the part of ethclient used to complete a request
type chainReader interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
}

func fill(ctx context.Context, c chainReader, chainID *big.Int, from common.Address, in *TxRequest) (*types.Transaction, error) {
	req := *in

	if req.Nonce == nil {
		nonce, err := c.PendingNonceAt(ctx, from)
		if err != nil {
			return nil, fmt.Errorf("failed to get nonce: %w", err)
		}
		req.Nonce = (*hexutil.Uint64)(&nonce)
	}

	if req.GasPrice == nil && (req.MaxFeePerGas == nil || req.MaxPriorityFeePerGas == nil) {
		head, err := c.HeaderByNumber(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to get latest header: %w", err)
		}
		if head.BaseFee == nil {
			price, err := c.SuggestGasPrice(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to suggest gas price: %w", err)
			}
			req.GasPrice = (*hexutil.Big)(price)
			req.MaxFeePerGas, req.MaxPriorityFeePerGas = nil, nil
		} else {
			if req.MaxPriorityFeePerGas == nil {
				tip, err := c.SuggestGasTipCap(ctx)
				if err != nil {
					return nil, fmt.Errorf("failed to suggest gas tip: %w", err)
				}
				req.MaxPriorityFeePerGas = (*hexutil.Big)(tip)
			}
			if req.MaxFeePerGas == nil {
				// 2 * baseFee + tip
				feeCap := new(big.Int).Add(new(big.Int).Mul(head.BaseFee, big.NewInt(2)), req.MaxPriorityFeePerGas.ToInt())
				req.MaxFeePerGas = (*hexutil.Big)(feeCap)
			}
		}
	}

	if req.Gas == nil {
		msg := ethereum.CallMsg{From: from, To: req.To, Data: req.Data}
		if req.Value != nil {
			msg.Value = req.Value.ToInt()
		}
		gas, err := c.EstimateGas(ctx, msg)
		if err != nil {
			return nil, fmt.Errorf("failed to estimate gas: %w", err)
		}
		req.Gas = (*hexutil.Uint64)(&gas)
	}

	return req.Transaction(chainID)
}
