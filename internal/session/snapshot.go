package session

import (
	"slices"

	"github.com/me/gobank/pkg/model"
)

// Snapshot is a point-in-time copy of the session, safe to read without
// further locking. Flag fields are derived from the lifecycle state, so
// NeedsSignup and Account are never set together.
type Snapshot struct {
	State          model.SessionState
	Token          string
	CurrentUserID  *int64
	IsLoggedIn     bool
	NeedsSignup    bool
	IsLoading      bool
	ErrorMessage   string
	SuccessMessage string

	Account          *model.Account
	Transactions     []model.Transaction
	Groups           []model.Group
	SelectedGroup    *model.Group
	Users            []model.UserSummary
	LastCreatedGroup *model.GroupCreated
}

// HasToken reports whether the session currently holds a bearer token.
func (s Snapshot) HasToken() bool {
	return s.Token != ""
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:          s.phase.state(),
		IsLoading:      s.loading,
		ErrorMessage:   s.errorMessage,
		SuccessMessage: s.successMessage,
	}

	switch p := s.phase.(type) {
	case authenticating:
		snap.Token = p.token
		snap.IsLoggedIn = p.token != ""
	case *noProfile:
		snap.applyCredentials(p.creds)
		snap.NeedsSignup = true
	case *withProfile:
		snap.applyCredentials(p.creds)
		acct := p.account
		snap.Account = &acct
		snap.Transactions = slices.Clone(p.transactions)
		if p.groups != nil {
			snap.Groups = make([]model.Group, len(p.groups))
			for i, g := range p.groups {
				snap.Groups[i] = g.Clone()
			}
		}
		if g, ok := p.group(p.selectedID); ok && p.selectedID != 0 {
			c := g.Clone()
			snap.SelectedGroup = &c
		}
		snap.Users = slices.Clone(p.users)
		if p.lastCreated != nil {
			lc := *p.lastCreated
			snap.LastCreatedGroup = &lc
		}
	}
	return snap
}

func (snap *Snapshot) applyCredentials(c credentials) {
	id := c.userID
	snap.Token = c.token
	snap.CurrentUserID = &id
	snap.IsLoggedIn = true
}
