// Package session implements the client-side session state machine: it
// authenticates against the auth service, carries the bearer token to the
// banking service, and keeps the cached account, transactions and groups in
// line with the server after every mutation.
//
// A Session is owned by its caller (one per connected client). All methods
// are safe for concurrent use. At most one network operation runs at a time;
// a second one fails fast with model.ErrBusy. Snapshot never waits for an
// in-flight call.
package session

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/me/gobank/internal/logging"
	"github.com/me/gobank/pkg/model"
	"github.com/shopspring/decimal"
)

// Gateway is the set of remote operations the session depends on.
// *bankapi.Client implements it.
type Gateway interface {
	Login(ctx context.Context, username, password string) (string, error)
	Register(ctx context.Context, username, password string) error
	CheckToken(ctx context.Context, token string) (int64, error)

	ViewAccount(ctx context.Context, token string) (model.Account, error)
	CreateAccount(ctx context.Context, token, name string, balance decimal.Decimal, gender *int) (*model.Account, error)
	DeactivateAccount(ctx context.Context, token string) error
	Transfer(ctx context.Context, token string, destUserID int64, amount decimal.Decimal) (model.TransferResponse, error)
	FundGroup(ctx context.Context, token string, groupID int64, amount decimal.Decimal, description string) (model.FundGroupResponse, error)
	TransactionHistory(ctx context.Context, token string) ([]model.Transaction, error)
	ListUsers(ctx context.Context, token string) ([]model.UserSummary, error)

	CreateGroup(ctx context.Context, token, name string, initialBalance decimal.Decimal) (model.GroupCreated, error)
	CreateGroupWithMembers(ctx context.Context, token, name, description string, memberIDs []int64) (model.GroupCreated, error)
	AddMember(ctx context.Context, token string, groupID, userID int64) (model.MemberAdded, error)
	RemoveMember(ctx context.Context, token string, groupID, userID int64) (model.MemberRemoved, error)
	PayFromGroup(ctx context.Context, token string, groupID int64, amount decimal.Decimal, accountID int64, description string) (model.GroupPaymentResponse, error)
	DeactivateGroup(ctx context.Context, token string, groupID int64) error
	GroupDetails(ctx context.Context, token string, groupID int64) (model.Group, error)
}

// ErrSuperseded is returned by an operation whose session was logged out
// while its network call was in flight. Its result was discarded.
var ErrSuperseded = model.NewError(model.KindNotAuthenticated, "session", "session ended while the request was in flight")

// Session is the single source of truth for one user's client state.
type Session struct {
	api    Gateway
	logger *slog.Logger

	mu             sync.Mutex
	phase          phase
	loading        bool   // a network operation is in flight; doubles as the busy guard
	epoch          uint64 // bumped on every reset; stale completions compare against it
	errorMessage   string
	successMessage string
}

// New creates an empty, anonymous session.
func New(api Gateway, logger *slog.Logger) *Session {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Session{
		api:    api,
		logger: logger.With("component", "session"),
		phase:  anonymous{},
	}
}

// State returns the current lifecycle state.
func (s *Session) State() model.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase.state()
}

// Logout synchronously resets every field to its initial value. No network
// call is made. An operation still in flight finishes without touching the
// new state.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	s.logger.Info("logged out")
}

// ClearMessages clears both the error and the success message.
func (s *Session) ClearMessages() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorMessage = ""
	s.successMessage = ""
}

// Reject records a client-side precondition failure for op. It makes no
// network call and leaves the loading flag alone.
func (s *Session) Reject(op, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorMessage = message
	return model.PreconditionError(op, message)
}

// reset returns the session to its initial empty state. Caller holds mu.
func (s *Session) reset() {
	if _, ok := s.phase.(anonymous); !ok {
		s.logger.Info("session transition", "from", s.phase.state(), "to", model.SessionStateAnonymous)
	}
	s.phase = anonymous{}
	s.loading = false
	s.errorMessage = ""
	s.successMessage = ""
	s.epoch++
}

// expire resets the session after the server rejected its token and leaves
// an explanation behind. Caller holds mu.
func (s *Session) expire(err error) {
	s.logger.Warn("token rejected, resetting session", "error", err)
	s.reset()
	s.errorMessage = model.UserMessage(err)
}

// transition moves to next, logging the change. Caller holds mu.
func (s *Session) transition(next phase) {
	from, to := s.phase.state(), next.state()
	if from != to {
		if !from.CanTransitionTo(to) {
			s.logger.Warn("unexpected session transition", "from", from, "to", to)
		}
		s.logger.Info("session transition", "from", from, "to", to)
	}
	s.phase = next
}

// begin claims the session for one network operation. want lists the phases
// the operation is valid in; the claim fails with ErrBusy while another
// operation is in flight and with a precondition error in any other phase.
func (s *Session) begin(op string, want ...model.SessionState) (uint64, phase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		return 0, nil, model.ErrBusy
	}
	if len(want) > 0 && !slices.Contains(want, s.phase.state()) {
		msg := phaseMessage(s.phase.state())
		s.errorMessage = msg
		return 0, nil, &model.Error{Kind: model.KindNotAuthenticated, Op: op, Message: msg}
	}
	s.loading = true
	s.errorMessage = ""
	return s.epoch, s.phase, nil
}

// beginProfile claims the session for an operation that needs a profile and
// returns the credentials to call with.
func (s *Session) beginProfile(op string) (uint64, credentials, error) {
	epoch, p, err := s.begin(op, model.SessionStateWithProfile)
	if err != nil {
		return 0, credentials{}, err
	}
	return epoch, p.(*withProfile).creds, nil
}

// end releases the claim taken by begin unless a reset already did.
func (s *Session) end(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch == epoch {
		s.loading = false
	}
}

// current runs fn under the lock if the session has not been reset since
// epoch. It reports whether fn ran.
func (s *Session) current(epoch uint64, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return false
	}
	fn()
	return true
}

// profile runs fn with the cached profile if the session is still at epoch
// and still has a profile.
func (s *Session) profile(epoch uint64, fn func(p *withProfile)) bool {
	ran := false
	s.current(epoch, func() {
		if p, ok := s.phase.(*withProfile); ok {
			fn(p)
			ran = true
		}
	})
	return ran
}

// fail records the failure of op. A rejected token resets the whole session;
// anything else only sets the error message.
func (s *Session) fail(epoch uint64, label string, err error) error {
	if !s.current(epoch, func() {
		if model.IsKind(err, model.KindSessionExpired) {
			s.expire(err)
			return
		}
		s.logger.Warn("operation failed", "op", label, "kind", model.KindOf(err), "error", err)
		s.errorMessage = describe(label, err)
	}) {
		return ErrSuperseded
	}
	return err
}

// succeed records a success message if the session is still at epoch.
func (s *Session) succeed(epoch uint64, message string) {
	s.current(epoch, func() {
		s.successMessage = message
	})
}
