package handler

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"net/http"

	"event-site/internal/auth"
	"event-site/internal/logger"
	"event-site/internal/middleware"
	"event-site/internal/service"
	"event-site/internal/session"
	"event-site/internal/view"
)

// AuthHandler holds the dependencies for the authentication handlers.
type AuthHandler struct {
	accounts *service.AccountService
	oidc     *auth.Authenticator
	sessions session.Manager
	view     *view.View
	log      logger.Logger
}

// NewAuthHandler creates a new AuthHandler. A nil authenticator disables
// single sign-on.
func NewAuthHandler(accounts *service.AccountService, a *auth.Authenticator, sm session.Manager, v *view.View, log logger.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, oidc: a, sessions: sm, view: v, log: log}
}

func (h *AuthHandler) loginFormHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if middleware.GetUserInfo(r.Context()).IsAdmin() {
		http.Redirect(w, r, "/admin/dashboard", http.StatusFound)
		return nil
	}
	return render(h.view, w, r, http.StatusOK, "login.html", map[string]interface{}{"OIDCEnabled": h.oidc != nil})
}

// loginHandler checks the submitted credentials and starts an admin session.
func (h *AuthHandler) loginHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if err := r.ParseForm(); err != nil {
		return &middleware.AppError{Error: err, Message: "Invalid form submission", Code: http.StatusBadRequest}
	}
	username := r.PostFormValue("username")

	user, err := h.accounts.Authenticate(r.Context(), username, r.PostFormValue("password"))
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			return serviceError(err, "Failed to sign in")
		}
		logger.FromContext(r.Context(), h.log).With(map[string]interface{}{"username": username, "ip": clientIP(r)}).Warn("Failed admin login")
		return render(h.view, w, r, http.StatusUnauthorized, "login.html", map[string]interface{}{
			"Error":       "Invalid username or password",
			"Username":    username,
			"OIDCEnabled": h.oidc != nil,
		})
	}

	if err := h.startSession(r, user.ID); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to start session", Code: http.StatusInternalServerError}
	}
	logger.FromContext(r.Context(), h.log).With(map[string]interface{}{"user_id": user.ID}).Info("Admin logged in")
	redirectAfter(w, r, "/admin/dashboard")
	return nil
}

func (h *AuthHandler) startSession(r *http.Request, userID int64) error {
	// Renew the token whenever the privilege level changes.
	if err := h.sessions.RenewToken(r.Context()); err != nil {
		return err
	}
	h.sessions.Put(r.Context(), session.UserIDKey, userID)
	return nil
}

// logoutHandler ends the session.
func (h *AuthHandler) logoutHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if err := h.sessions.Destroy(r.Context()); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to log out", Code: http.StatusInternalServerError}
	}
	redirectAfter(w, r, "/")
	return nil
}

// oidcLoginHandler redirects the user to the OIDC provider to log in.
// It uses a random 'state' string for CSRF protection.
func (h *AuthHandler) oidcLoginHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if h.oidc == nil {
		return &middleware.AppError{Error: errors.New("oidc disabled"), Message: "Not found", Code: http.StatusNotFound}
	}
	state, err := randString(16)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Internal Server Error", Code: http.StatusInternalServerError}
	}
	h.sessions.Put(r.Context(), session.OIDCStateKey, state)
	http.Redirect(w, r, h.oidc.AuthCodeURL(state), http.StatusFound)
	return nil
}

// oidcCallbackHandler is the redirect URL for the OIDC provider. The
// verified email must belong to an administrator account.
func (h *AuthHandler) oidcCallbackHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if h.oidc == nil {
		return &middleware.AppError{Error: errors.New("oidc disabled"), Message: "Not found", Code: http.StatusNotFound}
	}
	state := h.sessions.PopString(r.Context(), session.OIDCStateKey)
	if state == "" || r.URL.Query().Get("state") != state {
		return &middleware.AppError{Error: errors.New("state mismatch"), Message: "Invalid login state", Code: http.StatusBadRequest}
	}

	identity, err := h.oidc.Identify(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Single sign-on failed", Code: http.StatusUnauthorized}
	}
	user, err := h.accounts.AdminByEmail(r.Context(), identity.Email)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return &middleware.AppError{Error: err, Message: "No administrator account for " + identity.Email, Code: http.StatusForbidden}
		}
		return serviceError(err, "Failed to sign in")
	}

	if err := h.startSession(r, user.ID); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to start session", Code: http.StatusInternalServerError}
	}
	http.Redirect(w, r, "/admin/dashboard", http.StatusFound)
	return nil
}

// randString is a helper function to generate a random string for the 'state' parameter.
func randString(nByte int) (string, error) {
	b := make([]byte, nByte)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
