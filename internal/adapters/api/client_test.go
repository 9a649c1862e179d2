package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/perpdesk/perpdesk/internal/domain"
	"github.com/perpdesk/perpdesk/internal/domain/config"
	"github.com/perpdesk/perpdesk/internal/domain/models"
	"github.com/perpdesk/perpdesk/internal/usecase"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const actionJSON = `{
  "id": "act-1",
  "providerId": "hyperliquid",
  "type": "open",
  "status": "PENDING",
  "transactions": [
    {
      "id": "tx-1",
      "network": "arbitrum",
      "chainId": 42161,
      "type": "approve",
      "status": "CONFIRMED",
      "address": "0x00000000000000000000000000000000000a11ce"
    },
    {
      "id": "tx-2",
      "network": "arbitrum",
      "chainId": 42161,
      "type": "createOrder",
      "status": "CREATED",
      "address": "0x00000000000000000000000000000000000a11ce",
      "args": {"market": "ETH-USD", "side": "long", "amount": "100.25", "leverage": "3"},
      "signingFormat": "eip712",
      "signablePayload": {"primaryType": "Order"}
    }
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "secret", srv.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_GetAction(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/actions/act-1", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(actionJSON))
	})

	action, err := c.GetAction(context.Background(), "act-1")
	require.NoError(t, err)
	assert.Equal(t, "act-1", action.ID)
	assert.Equal(t, models.ActionKindOpen, action.Kind)
	assert.Equal(t, models.ActionStatusPending, action.Status)
	require.Len(t, action.Transactions, 2)

	first, second := action.Transactions[0], action.Transactions[1]
	assert.False(t, first.HasPayload())
	assert.True(t, second.HasPayload())
	assert.Equal(t, models.SigningFormatEIP712, second.SigningFormat)
	assert.Equal(t, uint64(42161), second.ChainID)
	require.NotNil(t, second.Args)
	assert.True(t, decimal.RequireFromString("100.25").Equal(*second.Args.Amount))
}

func TestClient_SubmitTransaction(t *testing.T) {
	tests := []struct {
		name string
		req  usecase.SubmitRequest
		want map[string]string
	}{
		{"hash", usecase.SubmitRequest{TxHash: "0xabc"}, map[string]string{"txHash": "0xabc"}},
		{"signed payload", usecase.SubmitRequest{SignedPayload: "0xsig"}, map[string]string{"signedPayload": "0xsig"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/transactions/tx-2/submit", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var body map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, tt.want, body)

				_, _ = w.Write([]byte(`{"status":"SIGNED"}`))
			})

			ack, err := c.SubmitTransaction(context.Background(), "tx-2", tt.req)
			require.NoError(t, err)
			assert.Equal(t, "tx-2", ack.TransactionID)
			assert.Equal(t, models.TransactionStatusSigned, ack.Status)
		})
	}
}

func TestClient_CreateAction(t *testing.T) {
	amount := decimal.RequireFromString("50")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/actions", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hyperliquid", body["providerId"])
		assert.Equal(t, "fund", body["type"])
		assert.Equal(t, map[string]any{"amount": "50"}, body["args"])
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"act-9","type":"fund","status":"CREATED","transactions":[]}`))
	})

	action, err := c.CreateAction(context.Background(), usecase.CreateActionRequest{
		ProviderID: "hyperliquid",
		Kind:       models.ActionKindFund,
		Address:    "0x00000000000000000000000000000000000a11ce",
		Args:       &models.TransactionArgs{Amount: &amount},
	})
	require.NoError(t, err)
	assert.Equal(t, "act-9", action.ID)
}

func TestClient_Errors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		})
		_, err := c.GetAction(context.Background(), "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("server error carries status and body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"error":"nonce too low"}`))
		})
		_, err := c.SubmitTransaction(context.Background(), "tx-1", usecase.SubmitRequest{TxHash: "0x1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "422")
		assert.Contains(t, err.Error(), "nonce too low")
	})

	t.Run("empty body is an error where an action is expected", func(t *testing.T) {
		for _, body := range []string{"", "{}"} {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			_, err := c.GetAction(context.Background(), "act-1")
			assert.Error(t, err, "body %q", body)
			_, err = c.CreateAction(context.Background(), usecase.CreateActionRequest{Kind: models.ActionKindFund})
			assert.Error(t, err, "body %q", body)
		}
	})

	t.Run("empty body while confirming is retried, not a defect", func(t *testing.T) {
		calls := 0
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				w.WriteHeader(http.StatusOK)
				return
			}
			_, _ = w.Write([]byte(actionJSON))
		})
		policy := usecase.PollPolicy{
			Interval:    time.Millisecond,
			MaxAttempts: 3,
			Sleep:       func(context.Context, time.Duration) error { return nil },
		}
		fetch := func(ctx context.Context) (*models.Action, error) { return c.GetAction(ctx, "act-1") }

		_, tx, err := policy.Confirm(context.Background(), fetch, "tx-1")
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusConfirmed, tx.Status)
		assert.Equal(t, 2, calls)
	})

	t.Run("submit acknowledgment body is optional", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		})
		ack, err := c.SubmitTransaction(context.Background(), "tx-1", usecase.SubmitRequest{TxHash: "0x1"})
		require.NoError(t, err)
		assert.Equal(t, "tx-1", ack.TransactionID)
	})

	t.Run("missing url in config", func(t *testing.T) {
		c := NewClientFromConfig(&config.RuntimeConfig{}, slog.Default())
		_, err := c.GetAction(context.Background(), "act-1")
		assert.ErrorIs(t, err, errNotConfigured)
	})
}
