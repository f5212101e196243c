package bankapi

import (
	"context"
	"net/http"

	"github.com/me/gobank/pkg/model"
	"github.com/shopspring/decimal"
)

// Banking service account paths.
const (
	PathAccountCreate       = "/account/v1/addOrUpdateInformation"
	PathAccountInfo         = "/account/v1/GetInformation"
	PathAccountDeactivate   = "/account/v1/deactive"
	PathAccountFundGroup    = "/account/v1/fundGroup"
	PathAccountTransactions = "/account/v1/userTransactionHistory"
	PathAccountTransfer     = "/account/v1/transfer"
	PathAccountUsers        = "/account/v1/allUsers"
)

// ViewAccount fetches the caller's banking profile. A 404 means the user has
// no profile yet and is reported as KindProfileMissing.
func (c *Client) ViewAccount(ctx context.Context, token string) (model.Account, error) {
	const op = "viewAccount"
	acct, err := invoke[model.Account](ctx, c, op, Request{
		Service: BankService,
		Method:  http.MethodGet,
		Path:    PathAccountInfo,
		Token:   token,
	})
	if me, ok := err.(*model.Error); ok && me.Status == http.StatusNotFound {
		me.Kind = model.KindProfileMissing
		me.Message = MsgNoProfile
	}
	return acct, err
}

// CreateAccount creates or updates the caller's banking profile. The returned
// account is nil when the service answered without a profile body.
func (c *Client) CreateAccount(ctx context.Context, token, name string, balance decimal.Decimal, gender *int) (*model.Account, error) {
	return invoke[*model.Account](ctx, c, "createAccount", Request{
		Service: BankService,
		Method:  http.MethodPost,
		Path:    PathAccountCreate,
		Token:   token,
		Body:    model.AccountInfoRequest{Name: name, Balance: balance, Gender: gender},
	})
}

// DeactivateAccount deactivates the caller's banking profile.
func (c *Client) DeactivateAccount(ctx context.Context, token string) error {
	return c.ignoreBody(ctx, "deactivateAccount", Request{
		Service: BankService,
		Method:  http.MethodPost,
		Path:    PathAccountDeactivate,
		Token:   token,
	})
}

// Transfer moves amount to the user identified by destUserID.
func (c *Client) Transfer(ctx context.Context, token string, destUserID int64, amount decimal.Decimal) (model.TransferResponse, error) {
	return invoke[model.TransferResponse](ctx, c, "transfer", Request{
		Service: BankService,
		Method:  http.MethodPost,
		Path:    PathAccountTransfer,
		Token:   token,
		Body:    model.TransferRequest{DestinationID: destUserID, Amount: amount},
	})
}

// FundGroup moves amount from the caller's account into a group.
func (c *Client) FundGroup(ctx context.Context, token string, groupID int64, amount decimal.Decimal, description string) (model.FundGroupResponse, error) {
	return invoke[model.FundGroupResponse](ctx, c, "fundGroup", Request{
		Service: BankService,
		Method:  http.MethodPost,
		Path:    PathAccountFundGroup,
		Token:   token,
		Body:    model.FundGroupRequest{GroupID: groupID, Amount: amount, Description: description},
	})
}

// TransactionHistory returns the caller's transactions in server order.
func (c *Client) TransactionHistory(ctx context.Context, token string) ([]model.Transaction, error) {
	out, err := invoke[model.TransactionHistoryResponse](ctx, c, "transactionHistory", Request{
		Service: BankService,
		Method:  http.MethodGet,
		Path:    PathAccountTransactions,
		Token:   token,
	})
	if err != nil {
		return nil, err
	}
	if out.TransactionHistory == nil {
		return []model.Transaction{}, nil
	}
	return out.TransactionHistory, nil
}

// ListUsers returns the user directory.
func (c *Client) ListUsers(ctx context.Context, token string) ([]model.UserSummary, error) {
	out, err := invoke[[]model.UserSummary](ctx, c, "listUsers", Request{
		Service: BankService,
		Method:  http.MethodGet,
		Path:    PathAccountUsers,
		Token:   token,
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return []model.UserSummary{}, nil
	}
	return out, nil
}
