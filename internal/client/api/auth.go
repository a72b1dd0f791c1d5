package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/flockapp/internal/client/models"
)

// SignUpRequest is the account creation payload.
type SignUpRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Zone      string `json:"zone"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// SignIn exchanges credentials for an auth token.
func (c *Client) SignIn(ctx context.Context, email, password string) (string, error) {
	req := map[string]string{"email": email, "password": password}

	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/signin", nil, req, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("signin: no token: %w", ErrMalformedResponse)
	}
	return resp.Token, nil
}

// SignUp creates an account; the server replies with a message (typically
// asking for the emailed OTP).
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (string, error) {
	var resp messageResponse
	if err := c.do(ctx, http.MethodPost, "/auth/signup", nil, req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// VerifySignup confirms the signup OTP. Some deployments sign the user in
// right away and return a token; otherwise token is "".
func (c *Client) VerifySignup(ctx context.Context, email, otp string) (string, error) {
	req := map[string]string{"email": email, "otp": otp}

	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/signup/verify", nil, req, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// VerifyToken resolves the current token into the user's profile.
func (c *Client) VerifyToken(ctx context.Context) (*models.UserDetails, error) {
	var resp struct {
		User *models.UserDetails `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/tokenverify", nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil || resp.User.ID == "" {
		return nil, fmt.Errorf("tokenverify: no user: %w", ErrMalformedResponse)
	}
	return resp.User, nil
}

func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	req := map[string]string{"oldPassword": oldPassword, "newPassword": newPassword}
	return c.do(ctx, http.MethodPost, "/auth/change-password", nil, req, nil)
}

// NewPassword sets a password after a reset, authorised by the emailed OTP.
func (c *Client) NewPassword(ctx context.Context, email, otp, password string) error {
	req := map[string]string{"email": email, "otp": otp, "password": password}
	return c.do(ctx, http.MethodPost, "/auth/newpassword", nil, req, nil)
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/forgot-password", nil, map[string]string{"email": email}, nil)
}
