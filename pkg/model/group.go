package model

import "github.com/shopspring/decimal"

// Group is a shared-balance group as returned by the group details endpoint.
type Group struct {
	ID        int64           `json:"groupId"`
	Name      string          `json:"groupName"`
	Balance   decimal.Decimal `json:"balance"`
	AdminID   int64           `json:"adminId"`
	AdminName string          `json:"adminName"`
	Members   []Member        `json:"members"`
}

// Member is one entry of a group's ordered member list.
type Member struct {
	UserID   int64  `json:"userId"`
	UserName string `json:"userName"`
	IsAdmin  bool   `json:"isAdmin"`
}

// Clone returns a deep copy of g.
func (g Group) Clone() Group {
	c := g
	if g.Members != nil {
		c.Members = make([]Member, len(g.Members))
		copy(c.Members, g.Members)
	}
	return c
}

// Member returns the member with the given user id.
func (g Group) Member(userID int64) (Member, bool) {
	for _, m := range g.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return Member{}, false
}
