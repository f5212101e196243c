package session

import (
	"context"
	"slices"

	"github.com/me/gobank/pkg/model"
	"github.com/shopspring/decimal"
)

// mutation describes how the session reports a mutating operation and which
// resources it re-fetches once the server has accepted it. The server is the
// only source of balances, so a mutation's own response never updates them.
type mutation struct {
	label   string
	success string
	refresh []Resource
}

var mutations = map[string]mutation{
	"transfer":               {"Transfer", MsgTransferDone, []Resource{ResourceAccount, ResourceTransactions}},
	"fundGroup":              {"Funding group", MsgGroupFunded, refreshOrder[:]},
	"payFromGroup":           {"Group payment", MsgGroupPaid, refreshOrder[:]},
	"createGroup":            {"Group creation", MsgGroupCreated, []Resource{ResourceGroups}},
	"createGroupWithMembers": {"Group creation", MsgGroupCreated, []Resource{ResourceGroups}},
	"addMember":              {"Adding member", MsgMemberAdded, []Resource{ResourceGroups}},
	"removeMember":           {"Removing member", MsgMemberRemoved, []Resource{ResourceGroups}},
	"deactivateGroup":        {"Group deactivation", MsgGroupDeactivated, []Resource{ResourceGroups}},
}

// RefreshSubset returns the resources re-fetched after a successful op.
func RefreshSubset(op string) []Resource {
	return slices.Clone(mutations[op].refresh)
}

// mutate runs the shared template of every mutating operation: claim the
// session, call the service, record the outcome, apply any cache change the
// response implies, then refresh. Refresh failures end up in errorMessage
// but do not fail the already accepted mutation.
func (s *Session) mutate(ctx context.Context, op string, call func(ctx context.Context, token string) (func(*withProfile), error)) error {
	m := mutations[op]
	epoch, creds, err := s.beginProfile(op)
	if err != nil {
		return err
	}
	defer s.end(epoch)

	apply, err := call(ctx, creds.token)
	if err != nil {
		return s.fail(epoch, m.label, err)
	}
	if !s.profile(epoch, func(p *withProfile) {
		if apply != nil {
			apply(p)
		}
		s.successMessage = m.success
	}) {
		return ErrSuperseded
	}
	s.logger.Info("operation completed", "op", op)
	s.refresh(ctx, epoch, creds, m.refresh...)
	return nil
}

// Transfer sends amount to another user.
func (s *Session) Transfer(ctx context.Context, destUserID int64, amount decimal.Decimal) error {
	return s.mutate(ctx, "transfer", func(ctx context.Context, token string) (func(*withProfile), error) {
		_, err := s.api.Transfer(ctx, token, destUserID, amount)
		return nil, err
	})
}

// FundGroup moves amount from the user's account into a group.
func (s *Session) FundGroup(ctx context.Context, groupID int64, amount decimal.Decimal, description string) error {
	return s.mutate(ctx, "fundGroup", func(ctx context.Context, token string) (func(*withProfile), error) {
		if _, err := s.api.FundGroup(ctx, token, groupID, amount, description); err != nil {
			return nil, err
		}
		return func(p *withProfile) { p.track(groupID) }, nil
	})
}

// PayFromGroup pays amount out of a group's balance to accountID.
func (s *Session) PayFromGroup(ctx context.Context, groupID int64, amount decimal.Decimal, accountID int64, description string) error {
	return s.mutate(ctx, "payFromGroup", func(ctx context.Context, token string) (func(*withProfile), error) {
		if _, err := s.api.PayFromGroup(ctx, token, groupID, amount, accountID, description); err != nil {
			return nil, err
		}
		return func(p *withProfile) { p.track(groupID) }, nil
	})
}

// CreateGroup creates a group seeded with initialBalance.
func (s *Session) CreateGroup(ctx context.Context, name string, initialBalance decimal.Decimal) error {
	return s.mutate(ctx, "createGroup", func(ctx context.Context, token string) (func(*withProfile), error) {
		created, err := s.api.CreateGroup(ctx, token, name, initialBalance)
		if err != nil {
			return nil, err
		}
		return groupCreated(created), nil
	})
}

// CreateGroupWithMembers creates a group with an initial member list.
func (s *Session) CreateGroupWithMembers(ctx context.Context, name, description string, memberIDs []int64) error {
	return s.mutate(ctx, "createGroupWithMembers", func(ctx context.Context, token string) (func(*withProfile), error) {
		created, err := s.api.CreateGroupWithMembers(ctx, token, name, description, memberIDs)
		if err != nil {
			return nil, err
		}
		return groupCreated(created), nil
	})
}

func groupCreated(created model.GroupCreated) func(*withProfile) {
	return func(p *withProfile) {
		c := created
		p.lastCreated = &c
		p.track(created.GroupID)
	}
}

// AddMember adds a user to a group.
func (s *Session) AddMember(ctx context.Context, groupID, userID int64) error {
	return s.mutate(ctx, "addMember", func(ctx context.Context, token string) (func(*withProfile), error) {
		if _, err := s.api.AddMember(ctx, token, groupID, userID); err != nil {
			return nil, err
		}
		return func(p *withProfile) { p.track(groupID) }, nil
	})
}

// RemoveMember removes a user from a group.
func (s *Session) RemoveMember(ctx context.Context, groupID, userID int64) error {
	return s.mutate(ctx, "removeMember", func(ctx context.Context, token string) (func(*withProfile), error) {
		if _, err := s.api.RemoveMember(ctx, token, groupID, userID); err != nil {
			return nil, err
		}
		return func(p *withProfile) { p.track(groupID) }, nil
	})
}

// DeactivateGroup closes a group.
func (s *Session) DeactivateGroup(ctx context.Context, groupID int64) error {
	return s.mutate(ctx, "deactivateGroup", func(ctx context.Context, token string) (func(*withProfile), error) {
		return nil, s.api.DeactivateGroup(ctx, token, groupID)
	})
}

// Deactivate deactivates the user's banking profile and ends the session.
func (s *Session) Deactivate(ctx context.Context) error {
	epoch, creds, err := s.beginProfile("deactivate")
	if err != nil {
		return err
	}
	defer s.end(epoch)

	if err := s.api.DeactivateAccount(ctx, creds.token); err != nil {
		return s.fail(epoch, "Deactivation", err)
	}
	if !s.current(epoch, func() {
		s.reset()
		s.successMessage = MsgAccountDeactivated
	}) {
		return ErrSuperseded
	}
	return nil
}
