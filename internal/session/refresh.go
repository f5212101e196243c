package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/me/gobank/pkg/bankapi"
	"github.com/me/gobank/pkg/model"
)

// Resource is one cached server resource that can be re-fetched.
type Resource int

// Resources in refresh order.
const (
	ResourceAccount Resource = iota + 1
	ResourceTransactions
	ResourceGroups
)

// refreshOrder is the fixed order in which resources are re-fetched.
var refreshOrder = [...]Resource{ResourceAccount, ResourceTransactions, ResourceGroups}

// AllResources returns every refreshable resource in refresh order.
func AllResources() []Resource {
	return slices.Clone(refreshOrder[:])
}

func (r Resource) String() string {
	switch r {
	case ResourceAccount:
		return "account"
	case ResourceTransactions:
		return "transactions"
	case ResourceGroups:
		return "groups"
	}
	return fmt.Sprintf("resource(%d)", int(r))
}

// ParseResource maps a resource name to its Resource.
func ParseResource(name string) (Resource, error) {
	for _, r := range refreshOrder {
		if strings.EqualFold(name, r.String()) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown resource %q", name)
}

// Refresh re-fetches resources (all of them when none are given) in the
// order account, transactions, groups. It returns the first failure; the
// remaining resources are still attempted unless the token was rejected.
func (s *Session) Refresh(ctx context.Context, resources ...Resource) error {
	epoch, creds, err := s.beginProfile("refresh")
	if err != nil {
		return err
	}
	defer s.end(epoch)
	if len(resources) == 0 {
		resources = AllResources()
	}
	return s.refresh(ctx, epoch, creds, resources...)
}

// SelectGroup fetches the details of a group and makes it the selected one.
// A group the user can no longer see is dropped from the cache.
func (s *Session) SelectGroup(ctx context.Context, groupID int64) error {
	epoch, creds, err := s.beginProfile("selectGroup")
	if err != nil {
		return err
	}
	defer s.end(epoch)

	g, err := s.api.GroupDetails(ctx, creds.token, groupID)
	if err != nil {
		if gone(err) {
			s.profile(epoch, func(p *withProfile) { p.dropGroup(groupID) })
		}
		return s.fail(epoch, "Loading group", err)
	}
	if !s.profile(epoch, func(p *withProfile) {
		g.ID = groupID
		p.upsertGroup(g)
		p.selectedID = groupID
	}) {
		return ErrSuperseded
	}
	return nil
}

// LoadUsers fetches the user directory.
func (s *Session) LoadUsers(ctx context.Context) error {
	epoch, creds, err := s.beginProfile("listUsers")
	if err != nil {
		return err
	}
	defer s.end(epoch)

	users, err := s.api.ListUsers(ctx, creds.token)
	if err != nil {
		return s.fail(epoch, "Loading users", err)
	}
	if !s.profile(epoch, func(p *withProfile) { p.users = users }) {
		return ErrSuperseded
	}
	return nil
}

// refresh re-fetches resources in canonical order. Each failure is recorded
// in errorMessage; a rejected token resets the session and stops the run.
func (s *Session) refresh(ctx context.Context, epoch uint64, creds credentials, resources ...Resource) error {
	var first error
	for _, r := range refreshOrder {
		if !slices.Contains(resources, r) {
			continue
		}
		err := s.refreshOne(ctx, epoch, creds, r)
		if err == nil {
			continue
		}
		if errors.Is(err, errProfileGone) {
			break
		}
		if first == nil {
			first = err
		}
		if errors.Is(err, ErrSuperseded) || model.IsKind(err, model.KindSessionExpired) {
			break
		}
	}
	return first
}

func (s *Session) refreshOne(ctx context.Context, epoch uint64, creds credentials, r Resource) error {
	s.logger.Debug("refreshing", "resource", r)
	switch r {
	case ResourceAccount:
		acct, err := s.api.ViewAccount(ctx, creds.token)
		if model.IsKind(err, model.KindProfileMissing) {
			return s.profileGone(epoch)
		}
		if err != nil {
			return s.refreshFailed(epoch, r, err)
		}
		return s.store(epoch, func(p *withProfile) { p.account = acct })

	case ResourceTransactions:
		txs, err := s.api.TransactionHistory(ctx, creds.token)
		if err != nil {
			return s.refreshFailed(epoch, r, err)
		}
		return s.store(epoch, func(p *withProfile) { p.transactions = txs })

	case ResourceGroups:
		return s.refreshGroups(ctx, epoch, creds)
	}
	return fmt.Errorf("refresh: unknown resource %d", int(r))
}

// refreshGroups re-fetches the details of every tracked group. Groups the
// user lost access to are dropped; other failures keep the cached copy.
func (s *Session) refreshGroups(ctx context.Context, epoch uint64, creds credentials) error {
	var ids []int64
	if !s.profile(epoch, func(p *withProfile) { ids = p.groupIDs() }) {
		return ErrSuperseded
	}

	var (
		fetched []model.Group
		dropped []int64
		first   error
	)
	for _, id := range ids {
		g, err := s.api.GroupDetails(ctx, creds.token, id)
		switch {
		case err == nil:
			g.ID = id
			fetched = append(fetched, g)
		case gone(err):
			s.logger.Info("dropping group", "group_id", id, "status", bankapi.StatusCode(err))
			dropped = append(dropped, id)
		default:
			if ferr := s.refreshFailed(epoch, ResourceGroups, err); first == nil {
				first = ferr
			}
			if model.IsKind(err, model.KindSessionExpired) {
				return first
			}
		}
	}

	if err := s.store(epoch, func(p *withProfile) {
		for _, g := range fetched {
			p.upsertGroup(g)
		}
		for _, id := range dropped {
			p.dropGroup(id)
		}
	}); err != nil {
		return err
	}
	return first
}

// store applies a refresh result if the session still has the same profile.
func (s *Session) store(epoch uint64, fn func(p *withProfile)) error {
	if !s.profile(epoch, fn) {
		return ErrSuperseded
	}
	return nil
}

// errProfileGone stops a refresh run after the banking service reported
// that the profile no longer exists.
var errProfileGone = errors.New("profile gone")

// profileGone drops the cached profile and its caches and moves the session
// to NoProfile. The missing profile shows up as needsSignup, not as an error.
func (s *Session) profileGone(epoch uint64) error {
	if !s.profile(epoch, func(p *withProfile) {
		s.logger.Info("profile no longer exists", "user_id", p.creds.userID)
		s.transition(&noProfile{creds: p.creds})
	}) {
		return ErrSuperseded
	}
	return errProfileGone
}

func (s *Session) refreshFailed(epoch uint64, r Resource, err error) error {
	return s.fail(epoch, "Refreshing "+r.String(), err)
}

// gone reports whether err means the group no longer exists for this user.
func gone(err error) bool {
	switch bankapi.StatusCode(err) {
	case http.StatusForbidden, http.StatusNotFound:
		return !model.IsKind(err, model.KindSessionExpired)
	}
	return false
}
