package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/perpdesk/perpdesk/internal/domain"
	"github.com/perpdesk/perpdesk/internal/domain/config"
	"github.com/perpdesk/perpdesk/internal/domain/models"
	"github.com/perpdesk/perpdesk/internal/usecase"
	"github.com/perpdesk/perpdesk/pkg/stream"
	"github.com/stretchr/testify/mock"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

// fakeSigner is a scripted Signer that records what it was asked to do
type fakeSigner struct {
	mu       sync.Mutex
	state    models.AccountState
	updates  *stream.Broadcaster[models.AccountState]
	signFunc func(tx *models.Transaction) (string, error)

	signed   []string
	switched []common.Address
}

func newFakeSigner(accounts ...common.Address) *fakeSigner {
	s := &fakeSigner{updates: stream.NewBroadcaster[models.AccountState]()}
	if len(accounts) > 0 {
		s.state = models.AccountState{Connected: true, CurrentAccount: accounts[0], Accounts: accounts}
	}
	return s
}

func (s *fakeSigner) SignTransaction(ctx context.Context, tx *models.Transaction, account common.Address) (string, error) {
	s.mu.Lock()
	s.signed = append(s.signed, tx.ID)
	sign := s.signFunc
	s.mu.Unlock()
	if sign != nil {
		return sign(tx)
	}
	return "0xhash-" + tx.ID, nil
}

func (s *fakeSigner) SwitchAccount(ctx context.Context, account common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Knows(account) {
		return domain.ErrUnknownAccount
	}
	s.switched = append(s.switched, account)
	s.state.CurrentAccount = account
	s.updates.Publish(s.state.Clone())
	return nil
}

func (s *fakeSigner) SubscribeAccounts() *stream.Subscription[models.AccountState] {
	return s.updates.Subscribe()
}

func (s *fakeSigner) AccountState() models.AccountState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *fakeSigner) setState(state models.AccountState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *fakeSigner) signedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.signed...)
}

func (s *fakeSigner) switchedTo() []common.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]common.Address(nil), s.switched...)
}

type submission struct {
	TransactionID string
	Request       usecase.SubmitRequest
}

// fakeAPI is a scripted ActionAPI. Every GetAction call is counted; by
// default each fetch reports all transactions as confirmed.
type fakeAPI struct {
	mu         sync.Mutex
	action     *models.Action
	fetchFunc  func(call int) (*models.Action, error)
	submitFunc func(call int, id string, req usecase.SubmitRequest) error

	fetches     int
	submissions []submission
}

func newFakeAPI(action *models.Action) *fakeAPI {
	return &fakeAPI{action: action}
}

func (a *fakeAPI) GetAction(ctx context.Context, id string) (*models.Action, error) {
	a.mu.Lock()
	a.fetches++
	call := a.fetches
	fetch := a.fetchFunc
	a.mu.Unlock()
	if fetch != nil {
		return fetch(call)
	}
	return withStatus(a.action, models.TransactionStatusConfirmed), nil
}

func (a *fakeAPI) SubmitTransaction(ctx context.Context, transactionID string, req usecase.SubmitRequest) (*usecase.SubmitAck, error) {
	a.mu.Lock()
	a.submissions = append(a.submissions, submission{TransactionID: transactionID, Request: req})
	call := len(a.submissions)
	submit := a.submitFunc
	a.mu.Unlock()
	if submit != nil {
		if err := submit(call, transactionID, req); err != nil {
			return nil, err
		}
	}
	return &usecase.SubmitAck{TransactionID: transactionID, Status: models.TransactionStatusSigned}, nil
}

func (a *fakeAPI) CreateAction(ctx context.Context, req usecase.CreateActionRequest) (*models.Action, error) {
	return nil, errors.New("not implemented")
}

func (a *fakeAPI) fetchCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fetches
}

func (a *fakeAPI) submitted() []submission {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]submission(nil), a.submissions...)
}

// withStatus returns a copy of action with every transaction set to status
func withStatus(action *models.Action, status models.TransactionStatus) *models.Action {
	c := action.Clone()
	for i := range c.Transactions {
		c.Transactions[i].Status = status
	}
	return &c
}

func testAction(n int) *models.Action {
	action := &models.Action{
		ID:         "act-1",
		ProviderID: "hyperliquid",
		Kind:       models.ActionKindOpen,
		Status:     models.ActionStatusCreated,
	}
	for i := 0; i < n; i++ {
		action.Transactions = append(action.Transactions, models.Transaction{
			ID:              "tx-" + string(rune('a'+i)),
			Network:         "arbitrum",
			ChainID:         42161,
			Type:            "createOrder",
			Status:          models.TransactionStatusCreated,
			Address:         alice.Hex(),
			SigningFormat:   models.SigningFormatEVMTransaction,
			SignablePayload: json.RawMessage(`{"to":"0x0000000000000000000000000000000000000001","data":"0x"}`),
		})
	}
	return action
}

// MockLocalConfigStore is a mock implementation of LocalConfigRepository
type MockLocalConfigStore struct {
	mock.Mock
}

func (m *MockLocalConfigStore) Exists() bool {
	return m.Called().Bool(0)
}

func (m *MockLocalConfigStore) Load(ctx context.Context) (*config.LocalConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*config.LocalConfig), args.Error(1)
}

func (m *MockLocalConfigStore) Save(ctx context.Context, cfg *config.LocalConfig) error {
	return m.Called(ctx, cfg).Error(0)
}

func (m *MockLocalConfigStore) GetPath() string {
	return m.Called().String(0)
}
