package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/waform/internal/auth"
	"github.com/sakif/waform/internal/service"
)

const (
	stateCookie = "oauth_state"

	// The state cookie carries the flow it was started for.
	purposeLogin   = "login"
	purposeConnect = "connect"
)

// AuthHandler covers local accounts, Google sign-in and connecting a
// Google account for spreadsheets.
type AuthHandler struct {
	auth          *service.AuthService
	accounts      *service.AccountService
	google        *auth.GoogleProvider
	secureCookies bool
	logger        *slog.Logger
}

func NewAuthHandler(
	authSvc *service.AuthService,
	accounts *service.AccountService,
	google *auth.GoogleProvider,
	secureCookies bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:          authSvc,
		accounts:      accounts,
		google:        google,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// HandleRegister creates a local account and signs it in.
//
// HTTP: POST /api/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.auth.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	auth.SetSessionCookie(w, res.Token, h.secureCookies)
	writeJSON(w, http.StatusCreated, res.User)
}

// HandleLogin checks the password and sets the session cookie.
//
// HTTP: POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	auth.SetSessionCookie(w, res.Token, h.secureCookies)
	writeJSON(w, http.StatusOK, res.User)
}

// HandleLogout deletes the cookie. The JWT stays valid until it expires
// but the browser no longer sends it.
//
// HTTP: POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.secureCookies)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the signed-in user.
//
// HTTP: GET /api/auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Me(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleGoogleStart redirects to Google's consent page. With
// ?mode=connect a signed-in user grants spreadsheet access instead of
// signing in.
//
// HTTP: GET /api/auth/google
func (h *AuthHandler) HandleGoogleStart(w http.ResponseWriter, r *http.Request) {
	if !h.google.Configured() {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   "unavailable",
			Message: "Google sign-in is not configured",
		})
		return
	}

	purpose := purposeLogin
	if r.URL.Query().Get("mode") == purposeConnect {
		if _, ok := auth.UserIDFromContext(r.Context()); !ok {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{
				Error:   "unauthorized",
				Message: "sign in before connecting a Google account",
			})
			return
		}
		purpose = purposeConnect
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    purpose + ":" + state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	target := h.google.AuthURL(state)
	if purpose == purposeConnect {
		target = h.google.ConnectURL(state)
	}
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

// HandleGoogleCallback finishes either flow.
//
// HTTP: GET /api/auth/google/callback?code=...&state=...
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" {
		h.logger.Warn("google callback: missing state cookie")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}
	purpose, state, _ := strings.Cut(cookie.Value, ":")
	if state == "" || r.URL.Query().Get("state") != state {
		h.logger.Warn("google callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// single use
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("google callback: authorization denied", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	identity, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("google callback: exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusBadGateway)
		return
	}

	if purpose == purposeConnect {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "session expired, sign in again", http.StatusUnauthorized)
			return
		}
		if _, err := h.accounts.Connect(r.Context(), userID, identity); err != nil {
			h.logger.Error("google callback: connect failed", slog.String("error", err.Error()))
			http.Error(w, "could not connect account", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/?connected=google", http.StatusSeeOther)
		return
	}

	res, err := h.auth.GoogleLogin(r.Context(), identity)
	if err != nil {
		h.logger.Error("google callback: sign-in failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}
	auth.SetSessionCookie(w, res.Token, h.secureCookies)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
