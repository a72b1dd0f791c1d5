package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/flockapp/internal/client/api"
)

var errNotSignedIn = api.Precondition("Please log in first.")

// getSimpleText, getTextWithDefault and getPassword are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText      = GetSimpleText
	getTextWithDefault = GetTextWithDefault
	getPassword        = GetPassword
)

// Register prompts for the profile and password and creates an account. The
// server emails a verification code; see Verify.
func (a *App) Register(ctx context.Context) error {
	var req api.SignUpRequest
	var err error

	for _, f := range []struct {
		prompt string
		dst    *string
	}{
		{"First name", &req.FirstName},
		{"Last name", &req.LastName},
		{"Email", &req.Email},
		{"Zone", &req.Zone},
	} {
		if *f.dst, err = getSimpleText(a.reader, f.prompt, a.out); err != nil {
			return err
		}
	}

	if req.Password, err = getPassword("Password", a.out); err != nil {
		return err
	}

	msg, err := a.auth.SignUp(ctx, req)
	if err != nil {
		return err
	}
	if err := a.session.RememberEmail(ctx, req.Email); err != nil {
		a.logger.Warn(ctx, "remember email failed", "err", err)
	}

	if msg == "" {
		msg = "Account created."
	}
	fmt.Fprintln(a.out, msg)
	fmt.Fprintln(a.out, "Run 'verify' with the code from your email.")
	return nil
}

// Verify confirms a new account with the emailed code. Servers that sign the
// user in on verification leave the CLI signed in.
func (a *App) Verify(ctx context.Context) error {
	email, err := getTextWithDefault(a.reader, "Email", a.auth.LastEmail(ctx), a.out)
	if err != nil {
		return err
	}
	code, err := getSimpleText(a.reader, "Verification code", a.out)
	if err != nil {
		return err
	}

	id, err := a.auth.VerifySignup(ctx, email, code)
	if err != nil {
		return err
	}

	if !id.Authenticated() {
		fmt.Fprintln(a.out, "Account verified. You can now log in.")
		return nil
	}
	a.awaitSynced(ctx, id)
	fmt.Fprintf(a.out, "Account verified. Signed in as %s\n", displayName(id))
	return nil
}

// Login prompts for credentials, offering the last used email.
func (a *App) Login(ctx context.Context) error {
	email, err := getTextWithDefault(a.reader, "Email", a.auth.LastEmail(ctx), a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Password", a.out)
	if err != nil {
		return err
	}

	id, err := a.auth.SignIn(ctx, email, password)
	if err != nil {
		a.logger.Info(ctx, "login unsuccessful", "err", err)
		return err
	}

	a.awaitSynced(ctx, id)
	fmt.Fprintf(a.out, "Signed in as %s\n", displayName(id))
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	err := a.auth.SignOut(ctx)
	a.awaitSynced(ctx, a.session.Identity())
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	id := a.session.Identity()
	if !id.Authenticated() {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}
	fmt.Fprintln(a.out, displayName(id))
	if id.Details != nil && id.Details.Zone != "" {
		fmt.Fprintln(a.out, "Zone:", id.Details.Zone)
	}
	return nil
}

// Forgot requests a password reset code by email.
func (a *App) Forgot(ctx context.Context) error {
	email, err := getTextWithDefault(a.reader, "Email", a.auth.LastEmail(ctx), a.out)
	if err != nil {
		return err
	}
	if err := a.auth.ForgotPassword(ctx, email); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "If the account exists, a reset code is on its way. Run 'reset' to set a new password.")
	return nil
}

// Reset sets a new password using the emailed reset code.
func (a *App) Reset(ctx context.Context) error {
	email, err := getTextWithDefault(a.reader, "Email", a.auth.LastEmail(ctx), a.out)
	if err != nil {
		return err
	}
	code, err := getSimpleText(a.reader, "Reset code", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("New password", a.out)
	if err != nil {
		return err
	}

	if err := a.auth.NewPassword(ctx, email, code, password); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password updated. You can now log in.")
	return nil
}

// Passwd changes the signed-in user's password.
func (a *App) Passwd(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotSignedIn
	}
	oldPassword, err := getPassword("Current password", a.out)
	if err != nil {
		return err
	}
	newPassword, err := getPassword("New password", a.out)
	if err != nil {
		return err
	}

	if err := a.auth.ChangePassword(ctx, oldPassword, newPassword); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password changed.")
	return nil
}
