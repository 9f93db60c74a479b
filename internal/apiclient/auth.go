package apiclient

import (
	"context"
	"errors"
	"net/http"

	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
)

var ErrMissingToken = errors.New("login response did not include a token")

const (
	routeLogin    = "/auth/login"
	routeRegister = "/auth/register"
)

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, creds users.Credentials) (users.LoginResult, error) {
	var res envelope[users.LoginResult]
	err := c.do(ctx, request{
		method: http.MethodPost,
		route:  routeLogin,
		path:   routeLogin,
		body:   creds,
	}, &res)
	if err != nil {
		return users.LoginResult{}, err
	}
	if res.Data.Token == "" {
		return users.LoginResult{}, ErrMissingToken
	}
	return res.Data, nil
}

// Register creates an account. It does not log the new user in.
func (c *Client) Register(ctx context.Context, reg users.Registration) (users.User, error) {
	var res envelope[users.User]
	err := c.do(ctx, request{
		method: http.MethodPost,
		route:  routeRegister,
		path:   routeRegister,
		body:   reg,
	}, &res)
	if err != nil {
		return users.User{}, err
	}
	return res.Data, nil
}
