// Package services contains application services for the Flock client.
// This file defines the account service: sign-in, sign-up with OTP
// verification, password reset and change, and sign-out.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/flockapp/internal/client/api"
	"github.com/dmitrijs2005/flockapp/internal/client/models"
	"github.com/dmitrijs2005/flockapp/internal/logging"
)

var (
	ErrMissingCredentials = api.Precondition("Email and password are required.")
	ErrMissingOTP         = api.Precondition("Verification code is required.")
	// ErrVerificationFailed means the server accepted the credentials but the
	// issued token could not be resolved into a user.
	ErrVerificationFailed = errors.New("token verification failed")
)

// AuthAPI is the part of the gateway the account service needs.
type AuthAPI interface {
	SignIn(ctx context.Context, email, password string) (string, error)
	SignUp(ctx context.Context, req api.SignUpRequest) (string, error)
	VerifySignup(ctx context.Context, email, otp string) (string, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
	NewPassword(ctx context.Context, email, otp, password string) error
	ForgotPassword(ctx context.Context, email string) error
}

// Session is the identity store the service signs users in and out of.
type Session interface {
	Login(ctx context.Context, token string) error
	Logout(ctx context.Context) error
	RefetchUser(ctx context.Context) models.Identity
	RememberEmail(ctx context.Context, email string) error
	LastEmail(ctx context.Context) (string, error)
}

// AuthService defines account operations for the CLI.
//
// Contract:
//   - Restore: resolve the persisted token at startup.
//   - SignIn: exchange credentials for a token, persist it and resolve the identity.
//   - SignUp / VerifySignup: create an account and confirm it with the emailed OTP.
//   - ForgotPassword / NewPassword: reset a password with an emailed OTP.
//   - ChangePassword: change the signed-in user's password.
//   - SignOut: drop the persisted token and identity.
type AuthService interface {
	Restore(ctx context.Context) models.Identity
	SignIn(ctx context.Context, email, password string) (models.Identity, error)
	SignUp(ctx context.Context, req api.SignUpRequest) (string, error)
	VerifySignup(ctx context.Context, email, otp string) (models.Identity, error)
	ForgotPassword(ctx context.Context, email string) error
	NewPassword(ctx context.Context, email, otp, password string) error
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
	SignOut(ctx context.Context) error
	LastEmail(ctx context.Context) string
}

type authService struct {
	api     AuthAPI
	session Session
	log     logging.Logger
}

func NewAuthService(authAPI AuthAPI, session Session, log logging.Logger) AuthService {
	return &authService{api: authAPI, session: session, log: log.With("component", "auth")}
}

func (a *authService) Restore(ctx context.Context) models.Identity {
	return a.session.RefetchUser(ctx)
}

// SignIn authenticates against the server, stores the token, caches the
// email for the next sign-in and resolves the identity.
func (a *authService) SignIn(ctx context.Context, email, password string) (models.Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.Identity{}, ErrMissingCredentials
	}

	token, err := a.api.SignIn(ctx, email, password)
	if err != nil {
		return models.Identity{}, fmt.Errorf("sign in error: %w", err)
	}

	if err := a.establish(ctx, token); err != nil {
		return models.Identity{}, err
	}

	if err := a.session.RememberEmail(ctx, email); err != nil {
		a.log.Warn(ctx, "remember email failed", "err", err)
	}

	return a.resolve(ctx)
}

func (a *authService) SignUp(ctx context.Context, req api.SignUpRequest) (string, error) {
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return "", ErrMissingCredentials
	}
	msg, err := a.api.SignUp(ctx, req)
	if err != nil {
		return "", fmt.Errorf("sign up error: %w", err)
	}
	return msg, nil
}

// VerifySignup confirms the OTP. When the server answers with a token the
// user is signed in right away; otherwise the zero identity is returned and
// the user signs in normally.
func (a *authService) VerifySignup(ctx context.Context, email, otp string) (models.Identity, error) {
	if strings.TrimSpace(otp) == "" {
		return models.Identity{}, ErrMissingOTP
	}

	token, err := a.api.VerifySignup(ctx, strings.TrimSpace(email), strings.TrimSpace(otp))
	if err != nil {
		return models.Identity{}, fmt.Errorf("verify signup error: %w", err)
	}
	if token == "" {
		return models.Identity{}, nil
	}

	if err := a.establish(ctx, token); err != nil {
		return models.Identity{}, err
	}
	return a.resolve(ctx)
}

func (a *authService) ForgotPassword(ctx context.Context, email string) error {
	return a.api.ForgotPassword(ctx, strings.TrimSpace(email))
}

func (a *authService) NewPassword(ctx context.Context, email, otp, password string) error {
	if strings.TrimSpace(otp) == "" {
		return ErrMissingOTP
	}
	if password == "" {
		return ErrMissingCredentials
	}
	return a.api.NewPassword(ctx, strings.TrimSpace(email), strings.TrimSpace(otp), password)
}

func (a *authService) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return ErrMissingCredentials
	}
	return a.api.ChangePassword(ctx, oldPassword, newPassword)
}

func (a *authService) SignOut(ctx context.Context) error {
	return a.session.Logout(ctx)
}

// LastEmail returns the cached sign-in email, or "" if none or unreadable.
func (a *authService) LastEmail(ctx context.Context) string {
	email, err := a.session.LastEmail(ctx)
	if err != nil {
		a.log.Warn(ctx, "read last email failed", "err", err)
		return ""
	}
	return email
}

func (a *authService) establish(ctx context.Context, token string) error {
	if err := a.session.Login(ctx, token); err != nil {
		return fmt.Errorf("token saving error: %w", err)
	}
	return nil
}

func (a *authService) resolve(ctx context.Context) (models.Identity, error) {
	id := a.session.RefetchUser(ctx)
	if !id.Authenticated() {
		return id, ErrVerificationFailed
	}
	return id, nil
}
