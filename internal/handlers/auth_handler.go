package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"golang.org/x/oauth2"

	"sliptrack/internal/security"
	"sliptrack/internal/service"
	"sliptrack/internal/validation"
)

// AuthHandler handles registration, login and profile endpoints
type AuthHandler struct {
	authService          *service.AuthService
	csrf                 *security.CSRFGenerator
	googleOAuth          *oauth2.Config
	oauthRedirectBaseURL string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, csrf *security.CSRFGenerator, googleOAuth *oauth2.Config, oauthRedirectBaseURL string) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		csrf:                 csrf,
		googleOAuth:          googleOAuth,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type sessionResponse struct {
	User      interface{} `json:"user"`
	CSRFToken string      `json:"csrfToken"`
}

// Register handles POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	user, err := h.authService.Register(req.Email, req.Password, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			respondWithError(w, http.StatusConflict, "Email already taken", "", nil)
		case errors.Is(err, validation.ErrEmailRequired),
			errors.Is(err, validation.ErrEmailInvalid),
			errors.Is(err, validation.ErrPasswordTooShort),
			errors.Is(err, validation.ErrNameRequired),
			errors.Is(err, validation.ErrNameTooLong):
			respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		default:
			respondWithError(w, http.StatusInternalServerError, "Registration failed", "register", err)
		}
		return
	}

	session, err := h.authService.CreateSession(user.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Registration failed", "create session", err)
		return
	}

	token, _ := h.csrf.GenerateToken(session.ID)
	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, session.ID, session.ExpiresAt))
	respondWithJSON(w, http.StatusCreated, sessionResponse{User: user, CSRFToken: token})
}

// Login handles POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	user, session, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondWithError(w, http.StatusUnauthorized, "Invalid email or password", "", nil)
		} else {
			respondWithError(w, http.StatusInternalServerError, "Login failed", "login", err)
		}
		return
	}

	token, _ := h.csrf.GenerateToken(session.ID)
	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, session.ID, session.ExpiresAt))
	respondWithJSON(w, http.StatusOK, sessionResponse{User: user, CSRFToken: token})
}

// Logout handles POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.authService.Logout(cookie.Value); err != nil {
			respondWithError(w, http.StatusInternalServerError, "Logout failed", "logout", err)
			return
		}
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
	w.WriteHeader(http.StatusNoContent)
}

type profileRequest struct {
	SchoolName string `json:"schoolName"`
	Region     string `json:"region"`
	Role       string `json:"role"`
}

// GetProfile handles GET /api/profile. The profile field is null until
// the user completes onboarding; the client keeps prompting until it
// is set.
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	session := GetSessionFromContext(r.Context())

	profile, err := h.authService.GetProfile(user.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load profile", "get profile", err)
		return
	}

	token, _ := h.csrf.GenerateToken(session.ID)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"user":      user,
		"profile":   profile,
		"csrfToken": token,
	})
}

// SaveProfile handles PUT /api/profile
func (h *AuthHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	if err := h.authService.SaveProfile(user.ID, req.SchoolName, req.Region, req.Role); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
