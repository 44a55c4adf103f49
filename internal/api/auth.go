package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ashureev/notifyhub/internal/domain"
	"github.com/ashureev/notifyhub/internal/identity"
	"github.com/ashureev/notifyhub/internal/store"
)

const bcryptCost = 12

// AuthHandler handles account registration and login.
type AuthHandler struct {
	*Handler
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(base *Handler) *AuthHandler {
	return &AuthHandler{Handler: base}
}

// RegisterPublicRoutes registers the unauthenticated auth routes.
func (h *AuthHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/api/auth/register", h.Register)
	r.Post("/api/auth/login", h.Login)
}

// RegisterRoutes registers the authenticated auth routes.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/auth/me", h.Me)
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = domain.NormalizeEmail(req.Email)

	if msg := validateRegistration(req); msg != "" {
		slog.Warn("Registration rejected", "reason", msg)
		Error(w, http.StatusBadRequest, "INVALID_INPUT", msg)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		slog.Error("Failed to hash password", "error", err)
		Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred during registration")
		return
	}

	account := &domain.Account{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    h.now(),
	}
	if err := h.repo.CreateAccount(r.Context(), account); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			Error(w, http.StatusConflict, "USER_ALREADY_EXISTS", "User already exists with email or username")
			return
		}
		slog.Error("Failed to create account", "error", err)
		Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred during registration")
		return
	}

	slog.Info("Registered account", "account_id", account.ID, "username", account.Username)
	JSON(w, http.StatusCreated, map[string]interface{}{
		"success":  true,
		"message":  "User registered successfully",
		"id":       account.ID,
		"username": account.Username,
		"email":    account.Email,
	})
}

func validateRegistration(req registerRequest) string {
	switch {
	case req.Username == "" || req.Email == "" || req.Password == "":
		return "Username, email and password are required"
	case !strings.Contains(req.Email, "@"):
		return "Email must be valid"
	case utf8.RuneCountInString(req.Password) < 8:
		return "Password must be at least 8 characters long"
	}
	var upper, lower, digit bool
	for _, c := range req.Password {
		switch {
		case unicode.IsUpper(c):
			upper = true
		case unicode.IsLower(c):
			lower = true
		case unicode.IsDigit(c):
			digit = true
		}
	}
	switch {
	case !upper:
		return "Password must contain at least one uppercase letter"
	case !lower:
		return "Password must contain at least one lowercase letter"
	case !digit:
		return "Password must contain at least one numeric character"
	}
	return ""
}

// Login verifies credentials and issues a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}

	account, err := h.repo.GetAccountByEmail(r.Context(), req.Email)
	if err != nil {
		slog.Error("Failed to look up account", "error", err)
		Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred during login")
		return
	}
	if account == nil || bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)) != nil {
		slog.Info("Login failed", "ip", identity.IPFromRequest(r))
		Error(w, http.StatusUnauthorized, "AUTHENTICATION_FAILED", "Invalid email or password")
		return
	}

	token, err := identity.NewToken()
	if err != nil {
		slog.Error("Failed to issue token", "error", err)
		Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred during login")
		return
	}
	now := h.now()
	if err := h.repo.CreateAPISession(r.Context(), &domain.APISession{
		Token:     token,
		AccountID: account.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(h.sessionTTL),
	}); err != nil {
		slog.Error("Failed to store session", "error", err)
		Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred during login")
		return
	}

	slog.Info("Login succeeded", "account_id", account.ID)
	JSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "Login successful",
		"token":     token,
		"tokenType": "Bearer",
		"userId":    account.ID,
		"username":  account.Username,
		"email":     account.Email,
	})
}

// Me returns the authenticated account's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	accountID := identity.AccountIDFromContext(r.Context())
	account, err := h.repo.GetAccount(r.Context(), accountID)
	if err != nil {
		slog.Error("Failed to load account", "error", err, "account_id", accountID)
		Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
		return
	}
	if account == nil {
		Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "User not found for token")
		return
	}
	p := account.Profile()
	JSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"id":       p.ID,
		"username": p.Username,
		"email":    p.Email,
	})
}
