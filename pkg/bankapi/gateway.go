package bankapi

import (
	"context"
	"errors"

	"github.com/me/gobank/pkg/model"
)

var errEmptyToken = errors.New("response carried no token")

// requireToken rejects authenticated calls made without a token before any
// request is sent.
func requireToken(op, token string) error {
	if token == "" {
		return model.NewError(model.KindNotAuthenticated, op, "Please log in first")
	}
	return nil
}

// call sends req and classifies the outcome. On a non-2xx answer both the
// response and a *model.Error are returned so callers can refine the kind.
func (c *Client) call(ctx context.Context, op string, req Request) (*Response, error) {
	resp, err := c.Send(ctx, req)
	if err != nil {
		if IsNetworkError(err) {
			return nil, networkFailure(op, err)
		}
		return nil, &model.Error{Kind: model.KindPrecondition, Op: op, Message: "Invalid request", Err: err}
	}
	if !resp.OK() {
		return resp, statusFailure(op, resp, req.Token != "")
	}
	return resp, nil
}

// invoke performs an authenticated call and decodes a 2xx body into T.
func invoke[T any](ctx context.Context, c *Client, op string, req Request) (T, error) {
	var zero T
	if err := requireToken(op, req.Token); err != nil {
		return zero, err
	}
	resp, err := c.call(ctx, op, req)
	if err != nil {
		return zero, err
	}
	out, err := decodeBody[T](resp)
	if err != nil {
		return zero, decodeFailure(op, resp, err)
	}
	return out, nil
}

// ignoreBody performs an authenticated call whose 2xx body is not needed.
func (c *Client) ignoreBody(ctx context.Context, op string, req Request) error {
	if err := requireToken(op, req.Token); err != nil {
		return err
	}
	_, err := c.call(ctx, op, req)
	return err
}
