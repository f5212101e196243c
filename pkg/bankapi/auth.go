package bankapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/me/gobank/pkg/model"
)

// Authentication service paths.
const (
	PathLogin      = "/api/auth/login"
	PathRegister   = "/api/auth/register"
	PathCheckToken = "/api/auth/check-token"
)

// Login exchanges credentials for a bearer token. Any 4xx answer is reported
// as KindInvalidCredentials.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	const op = "login"
	resp, err := c.call(ctx, op, Request{
		Service: AuthService,
		Method:  http.MethodPost,
		Path:    PathLogin,
		Body:    model.Credentials{Username: username, Password: password},
	})
	if err != nil {
		if resp != nil && resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return "", &model.Error{
				Kind:    model.KindInvalidCredentials,
				Op:      op,
				Message: MsgInvalidCredentials,
				Status:  resp.StatusCode,
				Err:     err,
			}
		}
		return "", err
	}
	out, err := decodeBody[model.LoginResponse](resp)
	if err != nil {
		return "", decodeFailure(op, resp, err)
	}
	if out.Token == "" {
		return "", decodeFailure(op, resp, errEmptyToken)
	}
	return out.Token, nil
}

// Register creates a user on the authentication service. A rejection body
// carrying a RegisterErrorCode is turned into its description.
func (c *Client) Register(ctx context.Context, username, password string) error {
	const op = "register"
	resp, err := c.call(ctx, op, Request{
		Service: AuthService,
		Method:  http.MethodPost,
		Path:    PathRegister,
		Body:    model.Credentials{Username: username, Password: password},
	})
	if err != nil && resp != nil {
		var rej model.RegisterError
		if json.Unmarshal(resp.Body, &rej) == nil && rej.Error != "" {
			if me, ok := err.(*model.Error); ok && me.Kind == model.KindValidation {
				me.Message = rej.Error.Describe()
			}
		}
	}
	return err
}

// CheckToken asks the authentication service who owns token. Any rejection
// of the token (4xx) is reported as KindSessionExpired.
func (c *Client) CheckToken(ctx context.Context, token string) (int64, error) {
	const op = "checkToken"
	if err := requireToken(op, token); err != nil {
		return 0, err
	}
	resp, err := c.call(ctx, op, Request{
		Service: AuthService,
		Method:  http.MethodPost,
		Path:    PathCheckToken,
		Token:   token,
	})
	if err != nil {
		if me, ok := err.(*model.Error); ok && me.Status >= 400 && me.Status < 500 {
			me.Kind = model.KindSessionExpired
			me.Message = MsgSessionExpired
		}
		return 0, err
	}
	out, err := decodeBody[model.CheckTokenResponse](resp)
	if err != nil {
		return 0, decodeFailure(op, resp, err)
	}
	return out.UserID, nil
}
