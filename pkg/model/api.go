package model

import "github.com/shopspring/decimal"

// Request and response bodies of the authentication service.

// Credentials is the body of the login and register endpoints.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token issued at login.
type LoginResponse struct {
	Token string `json:"token"`
}

// CheckTokenResponse identifies the owner of a valid token.
type CheckTokenResponse struct {
	UserID int64 `json:"userId"`
}

// Request and response bodies of the banking service.

// AccountInfoRequest creates or updates the banking profile.
type AccountInfoRequest struct {
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
	Gender  *int            `json:"gender"`
}

// TransferRequest moves money to another user.
type TransferRequest struct {
	DestinationID int64           `json:"destinationId"`
	Amount        decimal.Decimal `json:"amount"`
}

// TransferResponse reports the sender's balance after a transfer.
type TransferResponse struct {
	UserID     int64           `json:"userId"`
	NewBalance decimal.Decimal `json:"newBalance"`
}

// FundGroupRequest moves money from the user's account into a group.
type FundGroupRequest struct {
	GroupID     int64           `json:"groupId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// FundGroupResponse reports both balances after funding.
type FundGroupResponse struct {
	UserAmount  decimal.Decimal `json:"userAmount"`
	GroupAmount decimal.Decimal `json:"groupAmount"`
}

// TransactionHistoryResponse wraps the transaction list.
type TransactionHistoryResponse struct {
	TransactionHistory []Transaction `json:"transactionHistory"`
}

// CreateGroupRequest creates a group funded by the creator.
type CreateGroupRequest struct {
	Name           string          `json:"name"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
}

// CreateGroupWithMembersRequest creates a group with an initial member list.
// Member ids travel as strings.
type CreateGroupWithMembersRequest struct {
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	MemberIDs   []string `json:"memberIds"`
}

// GroupCreated is the response of both group creation endpoints.
type GroupCreated struct {
	GroupID int64           `json:"groupId"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

// AddMemberRequest adds a user to a group.
type AddMemberRequest struct {
	GroupID     int64 `json:"groupId"`
	UserIDToAdd int64 `json:"userIdToAdd"`
}

// MemberAdded is the membership record created by AddMember.
type MemberAdded struct {
	ID       *int64 `json:"id"`
	UserID   int64  `json:"userId"`
	GroupID  int64  `json:"groupId"`
	IsAdmin  bool   `json:"isAdmin"`
	JoinedAt Date   `json:"joinedAt"`
}

// RemoveMemberRequest removes a user from a group.
type RemoveMemberRequest struct {
	GroupID        int64 `json:"groupId"`
	UserIDToRemove int64 `json:"userIdToRemove"`
}

// MemberRemoved acknowledges a removal.
type MemberRemoved struct {
	GroupID       int64 `json:"groupId"`
	RemovedUserID int64 `json:"RemovedUserId"`
}

// GroupPaymentRequest pays from a group balance to an account.
type GroupPaymentRequest struct {
	GroupID     int64           `json:"groupId"`
	Amount      decimal.Decimal `json:"amount"`
	Account     int64           `json:"account"`
	Description string          `json:"description"`
}

// GroupPaymentResponse describes a completed group payment.
type GroupPaymentResponse struct {
	GroupName   string          `json:"groupName"`
	ToAccount   string          `json:"toAccount"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CreatedAt   Date            `json:"createdAt"`
}

// GroupIDRequest is the body of the details and de-activate endpoints.
type GroupIDRequest struct {
	GroupID int64 `json:"groupId"`
}

// MessageResponse is the shape of plain acknowledgement and error bodies.
type MessageResponse struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
