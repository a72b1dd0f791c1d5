package devserver

import (
	"net/http"

	"github.com/dmitrijs2005/flockapp/internal/devserver/auth"
)

func (s *Server) issueToken(w http.ResponseWriter, userID string) {
	token, err := auth.GenerateToken(userID, s.secret, s.tokenTTL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	userID, err := s.store.Authenticate(req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	s.issueToken(w, userID)
}

func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	var req SignUp
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	otp, err := s.store.CreateUser(req)
	if err != nil {
		writeError(w, err)
		return
	}

	// no mail delivery in development; the code goes to the log
	s.logger.Info(r.Context(), "signup code issued", "email", req.Email, "otp", otp)
	writeMessage(w, http.StatusCreated, "Account created. Check your email for the verification code.")
}

func (s *Server) verifySignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	userID, err := s.store.VerifySignup(req.Email, req.OTP)
	if err != nil {
		writeError(w, err)
		return
	}
	s.issueToken(w, userID)
}

func (s *Server) tokenVerify(w http.ResponseWriter, r *http.Request) {
	u, err := s.store.User(userIDFrom(r.Context()))
	if err != nil {
		writeError(w, ErrBadToken)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.store.ChangePassword(userIDFrom(r.Context()), req.OldPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password changed")
}

func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if otp := s.store.StartReset(req.Email); otp != "" {
		s.logger.Info(r.Context(), "reset code issued", "email", req.Email, "otp", otp)
	}
	writeMessage(w, http.StatusOK, "If the account exists, a reset code has been sent.")
}

func (s *Server) newPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		OTP      string `json:"otp"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.store.ResetPassword(req.Email, req.OTP, req.Password); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password updated")
}
