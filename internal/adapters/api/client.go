package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/perpdesk/perpdesk/internal/domain"
	"github.com/perpdesk/perpdesk/internal/domain/config"
	"github.com/perpdesk/perpdesk/internal/domain/models"
	"github.com/perpdesk/perpdesk/internal/usecase"
)

// DefaultTimeout bounds a single backend request
const DefaultTimeout = 30 * time.Second

// Client talks to the perpdesk backend action API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a backend client
func NewClient(baseURL, apiKey string, httpClient *http.Client, log *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		log:        log.With("component", "ActionAPI"),
	}
}

// errNotConfigured is returned by every call when no API url is set
var (
	errEmptyResponse = errors.New("empty response body")
	errNoAction      = errors.New("response carries no action id")
)

var errNotConfigured = errors.New("backend API url is not configured (set [api] url in perpdesk.toml or PERPDESK_API_URL)")

// NewClientFromConfig creates a backend client for Wire dependency injection
func NewClientFromConfig(cfg *config.RuntimeConfig, log *slog.Logger) *Client {
	timeout := cfg.API.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return NewClient(cfg.API.URL, cfg.API.Key, &http.Client{Timeout: timeout}, log)
}

// GetAction retrieves an action with its current transaction statuses
func (c *Client) GetAction(ctx context.Context, id string) (*models.Action, error) {
	var action models.Action
	path := "/actions/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodGet, path, nil, &action); err != nil {
		return nil, err
	}
	if action.ID == "" {
		return nil, fmt.Errorf("GET %s: %w", path, errNoAction)
	}
	return &action, nil
}

// SubmitTransaction hands a hash or signed payload to the backend
func (c *Client) SubmitTransaction(ctx context.Context, transactionID string, req usecase.SubmitRequest) (*usecase.SubmitAck, error) {
	var ack usecase.SubmitAck
	// an acknowledgment body is optional
	err := c.do(ctx, http.MethodPost, "/transactions/"+url.PathEscape(transactionID)+"/submit", req, &ack)
	if err != nil && !errors.Is(err, errEmptyResponse) {
		return nil, err
	}
	if ack.TransactionID == "" {
		ack.TransactionID = transactionID
	}
	return &ack, nil
}

// CreateAction asks the backend to expand a trading intent into an action
func (c *Client) CreateAction(ctx context.Context, req usecase.CreateActionRequest) (*models.Action, error) {
	var action models.Action
	if err := c.do(ctx, http.MethodPost, "/actions", req, &action); err != nil {
		return nil, err
	}
	if action.ID == "" {
		return nil, fmt.Errorf("POST /actions: %w", errNoAction)
	}
	return &action, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.baseURL == "" {
		return errNotConfigured
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.log.Debug("request", "method", method, "path", path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, domain.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s %s: %w", method, path, errEmptyResponse)
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Ensure Client implements ActionAPI
var _ usecase.ActionAPI = (*Client)(nil)
