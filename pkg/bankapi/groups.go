package bankapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/me/gobank/pkg/model"
	"github.com/shopspring/decimal"
)

// Banking service group paths.
const (
	PathGroupCreate            = "/groups/v1/create"
	PathGroupCreateWithMembers = "/groups/v1/createWithMembers"
	PathGroupAddMember         = "/groups/v1/addMember"
	PathGroupPayment           = "/groups/v1/payment"
	PathGroupRemoveMember      = "/groups/v1/removeMember"
	PathGroupDeactivate        = "/groups/v1/de-activate-group"
	PathGroupDetails           = "/groups/v1/details"
)

// CreateGroup creates a group seeded with initialBalance from the caller's account.
func (c *Client) CreateGroup(ctx context.Context, token, name string, initialBalance decimal.Decimal) (model.GroupCreated, error) {
	return invoke[model.GroupCreated](ctx, c, "createGroup", Request{
		Service: BankService,
		Method:  http.MethodPost,
		Path:    PathGroupCreate,
		Token:   token,
		Body:    model.CreateGroupRequest{Name: name, InitialBalance: initialBalance},
	})
}

// CreateGroupWithMembers creates a group with an initial member list. An
// empty description is omitted from the request.
func (c *Client) CreateGroupWithMembers(ctx context.Context, token, name, description string, memberIDs []int64) (model.GroupCreated, error) {
	ids := make([]string, len(memberIDs))
	for i, id := range memberIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	body := model.CreateGroupWithMembersRequest{Name: name, MemberIDs: ids}
	if description != "" {
		body.Description = &description
	}
	return invoke[model.GroupCreated](ctx, c, "createGroupWithMembers", Request{
		Service: BankService,
		Method:  http.MethodPost,
		Path:    PathGroupCreateWithMembers,
		Token:   token,
		Body:    body,
	})
}

// AddMember adds userID to groupID.
func (c *Client) AddMember(ctx context.Context, token string, groupID, userID int64) (model.MemberAdded, error) {
	return invoke[model.MemberAdded](ctx, c, "addMember", Request{
		Service: BankService,
		Method:  http.MethodPost,
		Path:    PathGroupAddMember,
		Token:   token,
		Body:    model.AddMemberRequest{GroupID: groupID, UserIDToAdd: userID},
	})
}

// RemoveMember removes userID from groupID.
func (c *Client) RemoveMember(ctx context.Context, token string, groupID, userID int64) (model.MemberRemoved, error) {
	return invoke[model.MemberRemoved](ctx, c, "removeMember", Request{
		Service: BankService,
		Method:  http.MethodPost,
		Path:    PathGroupRemoveMember,
		Token:   token,
		Body:    model.RemoveMemberRequest{GroupID: groupID, UserIDToRemove: userID},
	})
}

// PayFromGroup pays amount from the group balance to accountID.
func (c *Client) PayFromGroup(ctx context.Context, token string, groupID int64, amount decimal.Decimal, accountID int64, description string) (model.GroupPaymentResponse, error) {
	return invoke[model.GroupPaymentResponse](ctx, c, "payFromGroup", Request{
		Service: BankService,
		Method:  http.MethodPost,
		Path:    PathGroupPayment,
		Token:   token,
		Body: model.GroupPaymentRequest{
			GroupID:     groupID,
			Amount:      amount,
			Account:     accountID,
			Description: description,
		},
	})
}

// DeactivateGroup closes a group. Only the group admin may do this.
func (c *Client) DeactivateGroup(ctx context.Context, token string, groupID int64) error {
	return c.ignoreBody(ctx, "deactivateGroup", Request{
		Service: BankService,
		Method:  http.MethodPost,
		Path:    PathGroupDeactivate,
		Token:   token,
		Body:    model.GroupIDRequest{GroupID: groupID},
	})
}

// GroupDetails fetches a group with its ordered member list.
func (c *Client) GroupDetails(ctx context.Context, token string, groupID int64) (model.Group, error) {
	return invoke[model.Group](ctx, c, "groupDetails", Request{
		Service: BankService,
		Method:  http.MethodPost,
		Path:    PathGroupDetails,
		Token:   token,
		Body:    model.GroupIDRequest{GroupID: groupID},
	})
}
