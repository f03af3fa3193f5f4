package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/GarageDrive/GarageDrive/internal/common/auth"
	"github.com/GarageDrive/GarageDrive/internal/garage"
)

type loginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupForm struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	AccessToken string      `json:"accessToken"`
	ExpiresAt   int64       `json:"expiresAt"`
	User        garage.User `json:"user"`
}

func (a *API) tokenTTL() time.Duration {
	if a.authCfg.TTLHours > 0 {
		return time.Duration(a.authCfg.TTLHours) * time.Hour
	}
	return 24 * time.Hour
}

func (a *API) issueSession(w http.ResponseWriter, u garage.User) {
	token, exp, err := auth.GenerateAccessToken(a.authCfg, u.ID, u.Email, a.tokenTTL())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		AccessToken: token,
		ExpiresAt:   exp.Unix(),
		User:        u,
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form loginForm
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	fields := map[string]string{}
	if strings.TrimSpace(form.Email) == "" {
		fields["email"] = "Email is required"
	}
	if form.Password == "" {
		fields["password"] = "Password is required"
	}
	if len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}

	u, err := a.store.Login(r.Context(), form.Email, form.Password)
	if errors.Is(err, garage.ErrInvalidCredentials) {
		// 不区分邮箱错还是密码错，避免账号枚举。
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	a.issueSession(w, *u)
}

func (a *API) handleSignup(w http.ResponseWriter, r *http.Request) {
	var form signupForm
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	fields := map[string]string{}
	if strings.TrimSpace(form.Name) == "" {
		fields["name"] = "Name is required"
	}
	if strings.TrimSpace(form.Email) == "" {
		fields["email"] = "Email is required"
	}
	if form.Password == "" {
		fields["password"] = "Password is required"
	}
	if len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}

	u, err := a.store.Signup(r.Context(), form.Name, form.Email, form.Password)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.issueSession(w, *u)
}

// handleForgotPassword 演示模式：任何非空邮箱都回复“已发送”，不做真实投递。
func (a *API) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var form struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(form.Email) == "" {
		writeFieldErrors(w, map[string]string{"email": "Email is required"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password reset email sent"})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	a.store.Logout()
	w.WriteHeader(http.StatusNoContent)
}
