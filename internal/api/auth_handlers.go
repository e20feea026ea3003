package api

import (
	"errors"
	"net/http"

	"github.com/hayatos/hayatos/internal/auth"
	"github.com/hayatos/hayatos/internal/errs"
	"github.com/hayatos/hayatos/internal/obs"
)

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string   `json:"token"`
	User  userInfo `json:"user"`
}

type userInfo struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, r, errs.New(errs.InvalidArgument, "email and password are required"))
		return
	}

	user, err := s.Users.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAccountExists):
			writeError(w, r, errs.New(errs.FailedPrecondition, "an account with this email already exists"))
		case errors.Is(err, auth.ErrWeakPassword):
			writeError(w, r, errs.Wrap(errs.InvalidArgument, err.Error(), err))
		default:
			writeError(w, r, err)
		}
		return
	}

	token, err := s.Sessions.Create(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{
		Token: token,
		User:  userInfo{ID: user.ID, Email: user.Email, DisplayName: user.DisplayName},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := s.Users.VerifyLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, r, errs.New(errs.Unauthenticated, "invalid email or password"))
			return
		}
		writeError(w, r, err)
		return
	}

	token, err := s.Sessions.Create(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{
		Token: token,
		User:  userInfo{ID: user.ID, Email: user.Email, DisplayName: user.DisplayName},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, err := auth.BearerFromRequest(r)
	if err != nil {
		writeError(w, r, errs.New(errs.Unauthenticated, "missing bearer token"))
		return
	}
	if err := s.Sessions.Delete(r.Context(), token); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	user, err := s.Users.Me(r.Context(), udb)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userInfo{ID: user.ID, Email: user.Email, DisplayName: user.DisplayName})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	// Same response whether or not the account exists.
	if err := s.Users.SendPasswordReset(r.Context(), req.Email); err != nil {
		obs.From(r.Context()).Warn("password_reset_send_failed", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.Users.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidToken):
			writeError(w, r, errs.New(errs.InvalidArgument, "invalid or expired reset token"))
		case errors.Is(err, auth.ErrWeakPassword):
			writeError(w, r, errs.Wrap(errs.InvalidArgument, err.Error(), err))
		default:
			writeError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
