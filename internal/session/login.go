package session

import (
	"context"
	"errors"

	"github.com/me/gobank/pkg/bankapi"
	"github.com/me/gobank/pkg/model"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Login authenticates and then derives the two facts the session needs: the
// user id (check-token) and whether a banking profile exists (view-account).
// Both calls run concurrently and are joined before the session leaves
// AUTHENTICATING. A check-token failure always wins and resets the session.
// A missing profile is a state, not an error.
func (s *Session) Login(ctx context.Context, username, password string) error {
	const label = "Login"

	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return model.ErrBusy
	}
	if _, ok := s.phase.(anonymous); !ok {
		s.errorMessage = MsgAlreadyAuthenticated
		s.mu.Unlock()
		return model.PreconditionError("login", MsgAlreadyAuthenticated)
	}
	s.loading = true
	s.errorMessage = ""
	s.successMessage = ""
	s.transition(authenticating{})
	epoch := s.epoch
	s.mu.Unlock()

	token, err := s.api.Login(ctx, username, password)
	if err != nil {
		if !s.current(epoch, func() {
			s.logger.Warn("login rejected", "kind", model.KindOf(err))
			s.transition(anonymous{})
			s.loading = false
			s.errorMessage = describe(label, err)
		}) {
			return ErrSuperseded
		}
		return err
	}
	if !s.current(epoch, func() { s.phase = authenticating{token: token} }) {
		return ErrSuperseded
	}

	res := s.probe(ctx, token)

	var creds credentials
	if !s.current(epoch, func() {
		if failure := res.failure(); failure != nil {
			s.logger.Warn("login aborted", "kind", model.KindOf(failure), "error", failure)
			s.reset()
			s.errorMessage = describe(label, failure)
			err = failure
			return
		}
		creds = credentials{token: token, userID: res.userID}
		s.successMessage = MsgLoginSuccess
		if res.missing {
			s.transition(&noProfile{creds: creds})
			s.loading = false
			return
		}
		s.transition(&withProfile{creds: creds, account: res.account})
	}) {
		return ErrSuperseded
	}
	if err != nil || res.missing {
		return err
	}

	defer s.end(epoch)
	s.refresh(ctx, epoch, creds, loginRefresh...)
	return nil
}

// loginRefresh is what a login with an existing profile loads next.
var loginRefresh = []Resource{ResourceTransactions, ResourceGroups}

// probeResult holds the outcome of the post-login join.
type probeResult struct {
	userID   int64
	checkErr error

	account  model.Account
	missing  bool
	probeErr error
}

// failure resolves the two outcomes into the error that aborts the login, or
// nil. A check-token error counts unless it only failed because the account
// probe had already failed and cancelled it.
func (r probeResult) failure() error {
	if r.checkErr != nil && (r.probeErr == nil || !errors.Is(r.checkErr, context.Canceled)) {
		return r.checkErr
	}
	return r.probeErr
}

// probe runs check-token and view-account concurrently and waits for both.
func (s *Session) probe(ctx context.Context, token string) probeResult {
	var res probeResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		id, err := s.api.CheckToken(gctx, token)
		if err != nil {
			res.checkErr = err
			return err
		}
		res.userID = id
		return nil
	})
	g.Go(func() error {
		acct, err := s.api.ViewAccount(gctx, token)
		switch {
		case err == nil:
			res.account = acct
		case model.IsKind(err, model.KindProfileMissing):
			res.missing = true
		default:
			res.probeErr = err
			return err
		}
		return nil
	})
	_ = g.Wait()
	return res
}

// Register creates a login on the authentication service. It does not log in.
func (s *Session) Register(ctx context.Context, username, password string) error {
	epoch, _, err := s.begin("register", model.SessionStateAnonymous)
	if err != nil {
		return err
	}
	defer s.end(epoch)

	if err := s.api.Register(ctx, username, password); err != nil {
		return s.fail(epoch, "Registration", err)
	}
	s.succeed(epoch, MsgRegisterSuccess)
	return nil
}

// Revalidate re-runs check-token for the held token. Any failure, or an
// answer naming a different user, is treated as a rejected token and resets
// the session.
func (s *Session) Revalidate(ctx context.Context) error {
	epoch, p, err := s.begin("revalidate", model.SessionStateNoProfile, model.SessionStateWithProfile)
	if err != nil {
		return err
	}
	defer s.end(epoch)

	creds := credentialsOf(p)
	id, err := s.api.CheckToken(ctx, creds.token)
	if err == nil && id != creds.userID {
		err = model.NewError(model.KindSessionExpired, "revalidate", bankapi.MsgSessionExpired)
	}
	if err != nil {
		if !s.current(epoch, func() { s.expire(err) }) {
			return ErrSuperseded
		}
		return err
	}
	return nil
}

// CreateAccount creates the banking profile of a user who has none yet. The
// account comes from the response; when the service answers without one it
// is fetched. Transaction history is loaded afterwards.
func (s *Session) CreateAccount(ctx context.Context, name string, balance decimal.Decimal, gender *int) error {
	const label = "Account creation"
	epoch, p, err := s.begin("createAccount", model.SessionStateNoProfile)
	if err != nil {
		return err
	}
	defer s.end(epoch)
	creds := credentialsOf(p)

	created, err := s.api.CreateAccount(ctx, creds.token, name, balance, gender)
	if err != nil {
		return s.fail(epoch, label, err)
	}
	var acct model.Account
	if created != nil && created.Name != "" {
		acct = *created
	} else {
		acct, err = s.api.ViewAccount(ctx, creds.token)
		if err != nil {
			return s.fail(epoch, label, err)
		}
	}

	if !s.current(epoch, func() {
		s.transition(&withProfile{creds: creds, account: acct})
		s.successMessage = MsgAccountCreated
	}) {
		return ErrSuperseded
	}
	s.refresh(ctx, epoch, creds, ResourceTransactions)
	return nil
}

// credentialsOf returns the credentials held by an authenticated phase.
func credentialsOf(p phase) credentials {
	switch p := p.(type) {
	case *noProfile:
		return p.creds
	case *withProfile:
		return p.creds
	}
	return credentials{}
}
