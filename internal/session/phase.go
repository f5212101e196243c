package session

import (
	"cmp"
	"slices"

	"github.com/me/gobank/pkg/model"
)

// phase is the session's lifecycle state together with exactly the data that
// state may hold. Only *withProfile carries an account, and only *noProfile
// means the user still has to create one, so the two can never coexist.
type phase interface {
	state() model.SessionState
}

// anonymous: no token.
type anonymous struct{}

// authenticating: login in flight. token is empty until the auth service
// has answered.
type authenticating struct {
	token string
}

// credentials are set together once check-token has succeeded.
type credentials struct {
	token  string
	userID int64
}

// noProfile: valid token, the banking service has no profile for the user.
type noProfile struct {
	creds credentials
}

// withProfile: valid token and a cached account plus its dependent caches.
type withProfile struct {
	creds        credentials
	account      model.Account
	transactions []model.Transaction
	groups       []model.Group // ordered by group id
	selectedID   int64         // 0 when no group is selected
	users        []model.UserSummary
	lastCreated  *model.GroupCreated
}

func (anonymous) state() model.SessionState      { return model.SessionStateAnonymous }
func (authenticating) state() model.SessionState { return model.SessionStateAuthenticating }
func (*noProfile) state() model.SessionState     { return model.SessionStateNoProfile }
func (*withProfile) state() model.SessionState   { return model.SessionStateWithProfile }

// groupIDs returns the ids of the cached groups plus extra, sorted and
// without duplicates.
func (p *withProfile) groupIDs(extra ...int64) []int64 {
	ids := make([]int64, 0, len(p.groups)+len(extra))
	for _, g := range p.groups {
		ids = append(ids, g.ID)
	}
	for _, id := range extra {
		if id > 0 {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

func (p *withProfile) group(id int64) (model.Group, bool) {
	for _, g := range p.groups {
		if g.ID == id {
			return g, true
		}
	}
	return model.Group{}, false
}

// upsertGroup replaces or inserts g keeping id order.
func (p *withProfile) upsertGroup(g model.Group) {
	i, found := slices.BinarySearchFunc(p.groups, g.ID, func(e model.Group, id int64) int {
		return cmp.Compare(e.ID, id)
	})
	if found {
		p.groups[i] = g
		return
	}
	p.groups = slices.Insert(p.groups, i, g)
}

// dropGroup removes a group from the cache and clears the selection if it
// pointed at it.
func (p *withProfile) dropGroup(id int64) {
	p.groups = slices.DeleteFunc(p.groups, func(g model.Group) bool { return g.ID == id })
	if p.selectedID == id {
		p.selectedID = 0
	}
}

// track makes sure id is part of the groups cache. A group learned this way
// carries only its id until the next groups refresh fills in its details.
func (p *withProfile) track(id int64) {
	if id <= 0 {
		return
	}
	if _, ok := p.group(id); !ok {
		p.upsertGroup(model.Group{ID: id})
	}
}
