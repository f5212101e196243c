// Package actions is the boundary between raw user input and the session.
// Each method checks its inputs locally and, when they are usable, delegates
// to the matching session transition. A rejected input sets the session's
// error message without a network call.
package actions

import (
	"context"

	"github.com/me/gobank/internal/derive"
	"github.com/me/gobank/internal/session"
)

// Orchestrator validates user input for one session.
type Orchestrator struct {
	s *session.Session
}

// New returns an Orchestrator bound to s.
func New(s *session.Session) *Orchestrator {
	return &Orchestrator{s: s}
}

// Session returns the underlying session.
func (o *Orchestrator) Session() *session.Session {
	return o.s
}

func (o *Orchestrator) reject(op, msg string) error {
	return o.s.Reject(op, msg)
}

// Login checks that both credentials are present and logs in.
func (o *Orchestrator) Login(ctx context.Context, username, password string) error {
	if blank(username, password) {
		return o.reject("login", MsgFillAllFields)
	}
	return o.s.Login(ctx, username, password)
}

// Register checks the credentials and registers a new login.
func (o *Orchestrator) Register(ctx context.Context, username, password string) error {
	if blank(username, password) {
		return o.reject("register", MsgFillAllFields)
	}
	if len(password) < MinPasswordLen {
		return o.reject("register", MsgPasswordShort)
	}
	return o.s.Register(ctx, username, password)
}

// CreateAccount validates the profile form and creates the profile.
func (o *Orchestrator) CreateAccount(ctx context.Context, name, balance, gender string) error {
	const op = "createAccount"
	if blank(name, balance) {
		return o.reject(op, MsgFillAllFields)
	}
	amount, msg := ParseBalance(balance)
	if msg != "" {
		return o.reject(op, msg)
	}
	g, msg := ParseGender(gender)
	if msg != "" {
		return o.reject(op, msg)
	}
	return o.s.CreateAccount(ctx, trim(name), amount, g)
}

// Transfer validates the recipient id and amount and sends the transfer.
func (o *Orchestrator) Transfer(ctx context.Context, destUserID, amount string) error {
	const op = "transfer"
	if blank(destUserID, amount) {
		return o.reject(op, MsgFillAllFields)
	}
	id, msg := ParseID(destUserID)
	if msg != "" {
		return o.reject(op, msg)
	}
	value, msg := ParseAmount(amount)
	if msg != "" {
		return o.reject(op, msg)
	}
	return o.s.Transfer(ctx, id, value)
}

// FundGroup validates the group id and amount and funds the group.
func (o *Orchestrator) FundGroup(ctx context.Context, groupID, amount, description string) error {
	const op = "fundGroup"
	if blank(groupID, amount) {
		return o.reject(op, MsgFillAllFields)
	}
	id, msg := ParseID(groupID)
	if msg != "" {
		return o.reject(op, msg)
	}
	value, msg := ParseAmount(amount)
	if msg != "" {
		return o.reject(op, msg)
	}
	return o.s.FundGroup(ctx, id, value, trim(description))
}

// CreateGroup validates the name and starting balance and creates a group.
func (o *Orchestrator) CreateGroup(ctx context.Context, name, initialBalance string) error {
	const op = "createGroup"
	if blank(name, initialBalance) {
		return o.reject(op, MsgFillAllFields)
	}
	balance, msg := ParseBalance(initialBalance)
	if msg != "" {
		return o.reject(op, msg)
	}
	return o.s.CreateGroup(ctx, trim(name), balance)
}

// CreateGroupWithMembers validates the name and member ids and creates a group.
func (o *Orchestrator) CreateGroupWithMembers(ctx context.Context, name, description string, memberIDs []string) error {
	const op = "createGroupWithMembers"
	if blank(name) {
		return o.reject(op, MsgFillAllFields)
	}
	ids := make([]int64, 0, len(memberIDs))
	for _, raw := range memberIDs {
		id, msg := ParseID(raw)
		if msg != "" {
			return o.reject(op, msg)
		}
		ids = append(ids, id)
	}
	return o.s.CreateGroupWithMembers(ctx, trim(name), trim(description), ids)
}

// AddMember validates both ids and adds the member.
func (o *Orchestrator) AddMember(ctx context.Context, groupID, userID string) error {
	gid, uid, msg := parseMember(groupID, userID)
	if msg != "" {
		return o.reject("addMember", msg)
	}
	return o.s.AddMember(ctx, gid, uid)
}

// RemoveMember validates both ids and removes the member. When the group is
// the selected one, the admin rule is checked against the cached details first.
func (o *Orchestrator) RemoveMember(ctx context.Context, groupID, userID string) error {
	const op = "removeMember"
	gid, uid, msg := parseMember(groupID, userID)
	if msg != "" {
		return o.reject(op, msg)
	}
	snap := o.s.Snapshot()
	if g := snap.SelectedGroup; g != nil && g.ID == gid && snap.CurrentUserID != nil {
		if m, found := g.Member(uid); found && !derive.CanRemoveMember(*g, *snap.CurrentUserID, m) {
			return o.reject(op, MsgNotGroupAdmin)
		}
	}
	return o.s.RemoveMember(ctx, gid, uid)
}

// PayFromGroup validates the ids and amount and pays from the group.
func (o *Orchestrator) PayFromGroup(ctx context.Context, groupID, amount, accountID, description string) error {
	const op = "payFromGroup"
	if blank(groupID, amount, accountID) {
		return o.reject(op, MsgFillAllFields)
	}
	gid, msg := ParseID(groupID)
	if msg != "" {
		return o.reject(op, msg)
	}
	value, msg := ParseAmount(amount)
	if msg != "" {
		return o.reject(op, msg)
	}
	aid, msg := ParseID(accountID)
	if msg != "" {
		return o.reject(op, msg)
	}
	return o.s.PayFromGroup(ctx, gid, value, aid, trim(description))
}

// DeactivateGroup validates the id and closes the group.
func (o *Orchestrator) DeactivateGroup(ctx context.Context, groupID string) error {
	id, msg := ParseID(groupID)
	if msg != "" {
		return o.reject("deactivateGroup", msg)
	}
	return o.s.DeactivateGroup(ctx, id)
}

// SelectGroup validates the id and loads the group.
func (o *Orchestrator) SelectGroup(ctx context.Context, groupID string) error {
	id, msg := ParseID(groupID)
	if msg != "" {
		return o.reject("selectGroup", msg)
	}
	return o.s.SelectGroup(ctx, id)
}

// Deactivate deactivates the profile. There is nothing to validate.
func (o *Orchestrator) Deactivate(ctx context.Context) error {
	return o.s.Deactivate(ctx)
}

// parseMember parses a group id and a user id.
func parseMember(groupID, userID string) (int64, int64, string) {
	if blank(groupID, userID) {
		return 0, 0, MsgFillAllFields
	}
	gid, msg := ParseID(groupID)
	if msg != "" {
		return 0, 0, msg
	}
	uid, msg := ParseID(userID)
	if msg != "" {
		return 0, 0, msg
	}
	return gid, uid, ""
}
