package session

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"slices"
	"sync"

	"github.com/me/gobank/pkg/bankapi"
	"github.com/me/gobank/pkg/model"
	"github.com/shopspring/decimal"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeGateway is a scripted Gateway that records every call by name.
// Fields are set by the test before the session runs; per-call errors are
// looked up in errs by operation name.
type fakeGateway struct {
	mu    sync.Mutex
	calls []string

	token   string
	userID  int64
	account model.Account
	noAcct  bool
	created *model.Account
	txs     []model.Transaction
	users   []model.UserSummary
	groups  map[int64]model.Group
	nextID  int64
	errs    map[string]error

	// gate, when set, makes Transfer wait until it is closed. entered
	// receives once the call has started.
	gate    chan struct{}
	entered chan struct{}
}

func newFake() *fakeGateway {
	return &fakeGateway{
		token:   "tok-alice",
		userID:  7,
		account: model.Account{Name: "Alice", Balance: decimal.RequireFromString("250.00"), IsActive: true, Gender: model.GenderFemale},
		txs: []model.Transaction{
			{From: "Alice", To: "Bob", Amount: decimal.RequireFromString("-10.00"), Type: model.TransactionTypeUser},
		},
		groups: map[int64]model.Group{},
		nextID: 100,
		errs:   map[string]error{},
	}
}

func (f *fakeGateway) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
	return f.errs[op]
}

func (f *fakeGateway) setErr(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, op)
		return
	}
	f.errs[op] = err
}

// Calls returns the recorded calls and clears the log.
func (f *fakeGateway) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := slices.Clone(f.calls)
	f.calls = nil
	return out
}

func (f *fakeGateway) auth(op, token string) error {
	if err := f.record(op); err != nil {
		return err
	}
	if token != f.token {
		return errExpired(op)
	}
	return nil
}

func (f *fakeGateway) Login(_ context.Context, username, password string) (string, error) {
	if err := f.record("login"); err != nil {
		return "", err
	}
	return f.token, nil
}

func (f *fakeGateway) Register(_ context.Context, username, password string) error {
	return f.record("register")
}

func (f *fakeGateway) CheckToken(_ context.Context, token string) (int64, error) {
	if err := f.auth("checkToken", token); err != nil {
		return 0, err
	}
	return f.userID, nil
}

func (f *fakeGateway) ViewAccount(_ context.Context, token string) (model.Account, error) {
	if err := f.auth("viewAccount", token); err != nil {
		return model.Account{}, err
	}
	if f.noAcct {
		return model.Account{}, &model.Error{Kind: model.KindProfileMissing, Op: "viewAccount", Message: bankapi.MsgNoProfile, Status: http.StatusNotFound}
	}
	return f.account, nil
}

func (f *fakeGateway) CreateAccount(_ context.Context, token, name string, balance decimal.Decimal, gender *int) (*model.Account, error) {
	if err := f.auth("createAccount", token); err != nil {
		return nil, err
	}
	f.noAcct = false
	f.account = model.Account{Name: name, Balance: balance, IsActive: true}
	return f.created, nil
}

func (f *fakeGateway) DeactivateAccount(_ context.Context, token string) error {
	return f.auth("deactivateAccount", token)
}

func (f *fakeGateway) Transfer(_ context.Context, token string, destUserID int64, amount decimal.Decimal) (model.TransferResponse, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	if err := f.auth("transfer", token); err != nil {
		return model.TransferResponse{}, err
	}
	return model.TransferResponse{UserID: destUserID, NewBalance: f.account.Balance.Sub(amount)}, nil
}

func (f *fakeGateway) FundGroup(_ context.Context, token string, groupID int64, amount decimal.Decimal, description string) (model.FundGroupResponse, error) {
	if err := f.auth("fundGroup", token); err != nil {
		return model.FundGroupResponse{}, err
	}
	return model.FundGroupResponse{}, nil
}

func (f *fakeGateway) TransactionHistory(_ context.Context, token string) ([]model.Transaction, error) {
	if err := f.auth("transactionHistory", token); err != nil {
		return nil, err
	}
	return slices.Clone(f.txs), nil
}

func (f *fakeGateway) ListUsers(_ context.Context, token string) ([]model.UserSummary, error) {
	if err := f.auth("listUsers", token); err != nil {
		return nil, err
	}
	return slices.Clone(f.users), nil
}

func (f *fakeGateway) CreateGroup(_ context.Context, token, name string, initialBalance decimal.Decimal) (model.GroupCreated, error) {
	if err := f.auth("createGroup", token); err != nil {
		return model.GroupCreated{}, err
	}
	return f.newGroup(name, initialBalance, nil), nil
}

func (f *fakeGateway) CreateGroupWithMembers(_ context.Context, token, name, description string, memberIDs []int64) (model.GroupCreated, error) {
	if err := f.auth("createGroupWithMembers", token); err != nil {
		return model.GroupCreated{}, err
	}
	return f.newGroup(name, decimal.Zero, memberIDs), nil
}

func (f *fakeGateway) newGroup(name string, balance decimal.Decimal, memberIDs []int64) model.GroupCreated {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	g := model.Group{
		ID: f.nextID, Name: name, Balance: balance, AdminID: f.userID, AdminName: f.account.Name,
		Members: []model.Member{{UserID: f.userID, UserName: f.account.Name, IsAdmin: true}},
	}
	for _, id := range memberIDs {
		g.Members = append(g.Members, model.Member{UserID: id})
	}
	f.groups[g.ID] = g
	return model.GroupCreated{GroupID: g.ID, Name: name, Balance: balance}
}

func (f *fakeGateway) AddMember(_ context.Context, token string, groupID, userID int64) (model.MemberAdded, error) {
	if err := f.auth("addMember", token); err != nil {
		return model.MemberAdded{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.groups[groupID]
	g.Members = append(g.Members, model.Member{UserID: userID})
	f.groups[groupID] = g
	return model.MemberAdded{}, nil
}

func (f *fakeGateway) RemoveMember(_ context.Context, token string, groupID, userID int64) (model.MemberRemoved, error) {
	if err := f.auth("removeMember", token); err != nil {
		return model.MemberRemoved{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.groups[groupID]
	g.Members = slices.DeleteFunc(g.Members, func(m model.Member) bool { return m.UserID == userID })
	f.groups[groupID] = g
	return model.MemberRemoved{GroupID: groupID, RemovedUserID: userID}, nil
}

func (f *fakeGateway) PayFromGroup(_ context.Context, token string, groupID int64, amount decimal.Decimal, accountID int64, description string) (model.GroupPaymentResponse, error) {
	if err := f.auth("payFromGroup", token); err != nil {
		return model.GroupPaymentResponse{}, err
	}
	return model.GroupPaymentResponse{}, nil
}

func (f *fakeGateway) DeactivateGroup(_ context.Context, token string, groupID int64) error {
	if err := f.auth("deactivateGroup", token); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.groups, groupID)
	return nil
}

func (f *fakeGateway) GroupDetails(_ context.Context, token string, groupID int64) (model.Group, error) {
	if err := f.auth("groupDetails", token); err != nil {
		return model.Group{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return model.Group{}, &model.Error{Kind: model.KindValidation, Op: "groupDetails", Message: "Group not found", Status: http.StatusNotFound}
	}
	return g.Clone(), nil
}

func errExpired(op string) error {
	return &model.Error{Kind: model.KindSessionExpired, Op: op, Message: bankapi.MsgSessionExpired, Status: http.StatusUnauthorized}
}

func errValidation(op, msg string) error {
	return &model.Error{Kind: model.KindValidation, Op: op, Message: msg, Status: http.StatusBadRequest}
}

var _ Gateway = (*fakeGateway)(nil)
