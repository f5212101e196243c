package store

import (
	"context"
	"errors"
	"time"

	"github.com/me/gobank/pkg/model"
	"github.com/shopspring/decimal"
)

// Ledger rule violations. Handlers map these to 400 responses.
var (
	ErrUsernameTaken     = errors.New("username already taken")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrAccountInactive   = errors.New("account is not active")
	ErrGroupInactive     = errors.New("group is not active")
	ErrUnknownRecipient  = errors.New("recipient has no account")
	ErrAlreadyMember     = errors.New("user is already a member")
	ErrNotMember         = errors.New("user is not a member")
	ErrSelfTransfer      = errors.New("cannot transfer to yourself")
)

// User is a login known to the auth service.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// GroupRecord is a group with the fields the bank service needs for checks.
type GroupRecord struct {
	model.Group
	Description string
	IsActive    bool
}

// Store defines the persistence layer of the stub services. Get methods
// return nil, nil when the row does not exist.
type Store interface {
	// Users
	CreateUser(ctx context.Context, username, passwordHash string) (int64, error)
	GetUserByName(ctx context.Context, username string) (*User, error)
	CountUsers(ctx context.Context) (int, error)

	// Accounts
	UpsertAccount(ctx context.Context, userID int64, name string, balance decimal.Decimal, gender int) (*model.Account, error)
	GetAccount(ctx context.Context, userID int64) (*model.Account, error)
	DeactivateAccount(ctx context.Context, userID int64) error
	ListUsers(ctx context.Context) ([]model.UserSummary, error)
	Transactions(ctx context.Context, userID int64) ([]model.Transaction, error)

	// Money movement; each runs in one database transaction.
	Transfer(ctx context.Context, fromID, toID int64, amount decimal.Decimal) (decimal.Decimal, error)
	FundGroup(ctx context.Context, userID, groupID int64, amount decimal.Decimal, description string) (model.FundGroupResponse, error)
	PayFromGroup(ctx context.Context, groupID, toUserID int64, amount decimal.Decimal, description string) (model.GroupPaymentResponse, error)

	// Groups
	CreateGroup(ctx context.Context, adminID int64, name, description string, initialBalance decimal.Decimal, memberIDs []int64) (model.GroupCreated, error)
	GetGroup(ctx context.Context, groupID int64) (*GroupRecord, error)
	AddMember(ctx context.Context, groupID, userID int64) error
	RemoveMember(ctx context.Context, groupID, userID int64) error
	DeactivateGroup(ctx context.Context, groupID int64) error

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
