package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/five82/seer/internal/tokens"
)

const (
	pathAuthLogin          = "/api/auth/login/"
	pathAuthRegister       = "/api/auth/register/"
	pathAuthRefresh        = "/api/auth/refresh/"
	pathAuthLogout         = "/api/auth/logout/"
	pathAuthVerify         = "/api/auth/verify/"
	pathAuthMe             = "/api/auth/me/"
	pathAuthChangePassword = "/api/auth/change-password/"
)

// Registration is the payload for creating an account.
type Registration struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// UserUpdate changes account details.
type UserUpdate struct {
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// Session is the outcome of a successful login or registration.
type Session struct {
	User    User
	Tokens  tokens.Pair
	Message string
}

func (c *Client) anonymous(ctx context.Context, path string, payload, dest any) error {
	req, err := c.newRequest(http.MethodPost, path, nil, payload)
	if err != nil {
		return err
	}
	req.anonymous = true
	return c.roundTrip(ctx, req, dest)
}

// Login exchanges credentials for tokens, stores them and loads the user.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	var pair tokens.Pair
	body := map[string]string{"username": username, "password": password}
	if err := c.anonymous(ctx, pathAuthLogin, body, &pair); err != nil {
		return nil, err
	}
	if pair.Access == "" {
		return nil, &Error{Kind: KindDecode, Method: http.MethodPost, Path: pathAuthLogin, Err: errors.New("login response has no access token")}
	}
	if err := c.tokens.SetTokens(ctx, pair); err != nil {
		return nil, fmt.Errorf("store tokens: %w", err)
	}
	user, err := c.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	c.log.Info("logged in", zap.String("user", user.Username))
	return &Session{User: *user, Tokens: pair}, nil
}

// Register creates an account and stores the issued tokens.
func (c *Client) Register(ctx context.Context, reg Registration) (*Session, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	if reg.Password2 == "" {
		reg.Password2 = reg.Password
	}
	var resp struct {
		User    User        `json:"user"`
		Tokens  tokens.Pair `json:"tokens"`
		Message string      `json:"message"`
	}
	if err := c.anonymous(ctx, pathAuthRegister, reg, &resp); err != nil {
		return nil, err
	}
	if err := c.tokens.SetTokens(ctx, resp.Tokens); err != nil {
		return nil, fmt.Errorf("store tokens: %w", err)
	}
	c.log.Info("registered", zap.String("user", resp.User.Username))
	return &Session{User: resp.User, Tokens: resp.Tokens, Message: resp.Message}, nil
}

// Logout blacklists the refresh token and always clears local tokens. A
// failed blacklist call is logged, not returned.
func (c *Client) Logout(ctx context.Context) error {
	pair, err := c.tokens.Tokens(ctx)
	if err != nil {
		c.log.Warn("read tokens for logout", zap.Error(err))
	}
	if pair.Refresh != "" {
		if err := c.send(ctx, http.MethodPost, pathAuthLogout, map[string]string{"refresh": pair.Refresh}, nil); err != nil {
			c.log.Warn("failed to blacklist refresh token", zap.Error(err))
		}
	}
	if err := c.tokens.Clear(ctx); err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	return nil
}

// Me returns the current user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.get(ctx, pathAuthMe, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateMe patches the current user.
func (c *Client) UpdateMe(ctx context.Context, update UserUpdate) (*User, error) {
	var user User
	if err := c.send(ctx, http.MethodPatch, pathAuthMe, update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangePassword replaces the account password.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	body := map[string]string{"old_password": oldPassword, "new_password": newPassword}
	return c.send(ctx, http.MethodPost, pathAuthChangePassword, body, nil)
}

// VerifyToken asks the backend whether token is still valid. Any failure
// counts as invalid.
func (c *Client) VerifyToken(ctx context.Context, token string) bool {
	return c.anonymous(ctx, pathAuthVerify, map[string]string{"token": token}, nil) == nil
}

// Authenticated reports whether an access token is stored.
func (c *Client) Authenticated(ctx context.Context) bool {
	pair, err := c.tokens.Tokens(ctx)
	return err == nil && pair.Access != ""
}
