package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ashureev/notifyhub/internal/domain"
	"github.com/ashureev/notifyhub/internal/identity"
	"github.com/ashureev/notifyhub/internal/mailbox"
)

// GmailHandler handles mailbox linking and message retrieval.
type GmailHandler struct {
	*Handler
}

// NewGmailHandler creates a GmailHandler.
func NewGmailHandler(base *Handler) *GmailHandler {
	return &GmailHandler{Handler: base}
}

// RegisterPublicRoutes registers the provider redirect target, which
// carries no bearer token.
func (h *GmailHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/api/gmail/oauth/callback", h.Callback)
}

// RegisterRoutes registers the authenticated mailbox routes.
func (h *GmailHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/gmail", func(r chi.Router) {
		r.Get("/status", h.Status)
		r.Get("/connect", h.Connect)
		r.Post("/exchange-code", h.ExchangeCode)
		r.Get("/messages", h.Messages)
		r.Delete("/disconnect", h.Disconnect)
	})
}

func (h *GmailHandler) linked(r *http.Request) (*domain.MailboxLink, error) {
	link, err := h.repo.GetMailboxLink(r.Context(), identity.AccountIDFromContext(r.Context()))
	if err != nil {
		return nil, err
	}
	if !link.Usable(h.now()) {
		return nil, nil
	}
	return link, nil
}

// Status reports whether the account has a usable mailbox link.
func (h *GmailHandler) Status(w http.ResponseWriter, r *http.Request) {
	link, err := h.linked(r)
	if err != nil {
		slog.Error("Failed to check mailbox link", "error", err)
		Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to check connection status")
		return
	}
	connected := link != nil
	msg := "Gmail is not connected"
	if connected {
		msg = "Gmail is connected"
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"connected": connected,
		"message":   msg,
	})
}

// Connect returns the provider authorization URL.
func (h *GmailHandler) Connect(w http.ResponseWriter, r *http.Request) {
	accountID := identity.AccountIDFromContext(r.Context())

	link, err := h.linked(r)
	if err != nil {
		slog.Error("Failed to check mailbox link", "error", err)
		Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to check connection status")
		return
	}
	if link != nil {
		JSON(w, http.StatusOK, map[string]interface{}{
			"success":          true,
			"message":          "Gmail is already connected!",
			"alreadyConnected": true,
		})
		return
	}

	state := uuid.NewString()
	authURL, err := h.auth.AuthCodeURL(state)
	if err != nil {
		if errors.Is(err, mailbox.ErrNotConfigured) {
			slog.Warn("Gmail connect requested without OAuth client credentials")
			Error(w, http.StatusServiceUnavailable, "OAUTH_NOT_CONFIGURED", "Gmail OAuth client credentials are not configured")
			return
		}
		slog.Error("Failed to build authorization URL", "error", err)
		Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Error: "+err.Error())
		return
	}

	if err := h.repo.SaveOAuthState(r.Context(), &domain.OAuthState{State: state, AccountID: accountID, CreatedAt: h.now()}); err != nil {
		slog.Error("Failed to save oauth state", "error", err)
		Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to start Gmail connection")
		return
	}

	slog.Info("Issued authorization URL", "account_id", accountID)
	JSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"message":          "Gmail OAuth is configured and ready!",
		"authorizationUrl": authURL,
		"state":            state,
	})
}

// Callback receives the provider redirect and forwards the code to the
// dashboard, which exchanges it with its own bearer token.
func (h *GmailHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target := h.dashboardURL()

	if e := q.Get("error"); e != "" {
		detail := e
		if d := q.Get("error_description"); d != "" {
			detail = e + ": " + d
		}
		slog.Warn("Provider returned an OAuth error", "error", e)
		http.Redirect(w, r, withQuery(target, url.Values{"gmail_error": {detail}}), http.StatusFound)
		return
	}

	code := q.Get("code")
	if code == "" {
		http.Redirect(w, r, withQuery(target, url.Values{"gmail_error": {"no_code"}}), http.StatusFound)
		return
	}

	http.Redirect(w, r, withQuery(target, url.Values{
		"gmail_code":  {code},
		"gmail_state": {q.Get("state")},
	}), http.StatusFound)
}

func (h *GmailHandler) dashboardURL() string {
	return strings.TrimRight(h.frontendURL, "/") + "/dashboard"
}

func withQuery(base string, q url.Values) string {
	return base + "?" + q.Encode()
}

type exchangeRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

// ExchangeCode trades an authorization code for tokens and links the
// account. The state must have been issued to the same account.
func (h *GmailHandler) ExchangeCode(w http.ResponseWriter, r *http.Request) {
	accountID := identity.AccountIDFromContext(r.Context())

	var req exchangeRequest
	if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.Code) == "" {
		Error(w, http.StatusBadRequest, "INVALID_INPUT", "Authorization code is required")
		return
	}

	st, err := h.repo.ConsumeOAuthState(r.Context(), req.State)
	if err != nil {
		slog.Error("Failed to consume oauth state", "error", err)
		Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to connect Gmail")
		return
	}
	if st == nil || st.AccountID != accountID {
		slog.Warn("Rejected code exchange with unknown state", "account_id", accountID, "state_known", st != nil)
		Error(w, http.StatusBadRequest, "INVALID_STATE", "Invalid or expired authorization state")
		return
	}

	tok, err := h.auth.Exchange(r.Context(), req.Code)
	if err != nil {
		slog.Warn("Code exchange failed", "error", err, "account_id", accountID)
		msg := "Failed to exchange authorization code"
		if errors.Is(err, mailbox.ErrNotConfigured) {
			msg = "Gmail OAuth client credentials are not configured"
		}
		Error(w, http.StatusBadRequest, "EXCHANGE_FAILED", msg)
		return
	}

	link := mailbox.LinkFromToken(accountID, tok, h.now())
	if err := h.repo.UpsertMailboxLink(r.Context(), link); err != nil {
		slog.Error("Failed to store mailbox link", "error", err)
		Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to connect Gmail")
		return
	}

	slog.Info("Mailbox linked", "account_id", accountID)
	JSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "Gmail connected successfully!",
		"expiresAt": link.Expiry,
		"createdAt": link.CreatedAt,
	})
}

// Messages returns the classified inbox. An unlinked mailbox answers 409,
// never 401, so the client keeps its session.
func (h *GmailHandler) Messages(w http.ResponseWriter, r *http.Request) {
	accountID := identity.AccountIDFromContext(r.Context())

	link, err := h.linked(r)
	if err != nil {
		slog.Error("Failed to check mailbox link", "error", err)
		Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch messages")
		return
	}
	if link == nil {
		Error(w, http.StatusConflict, "GMAIL_NOT_CONNECTED", "Gmail is not connected. Please connect Gmail first.")
		return
	}

	msgs, refreshed, err := h.source.Fetch(r.Context(), link)
	if err != nil {
		slog.Error("Failed to fetch messages", "error", err, "account_id", accountID)
		Error(w, http.StatusBadGateway, "MESSAGE_FETCH_FAILED", "Failed to fetch Gmail messages")
		return
	}
	if refreshed != nil {
		if err := h.repo.UpsertMailboxLink(r.Context(), refreshed); err != nil {
			slog.Warn("Failed to persist refreshed token", "error", err, "account_id", accountID)
		}
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}

	slog.Info("Fetched messages", "account_id", accountID, "count", len(msgs))
	JSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  "Messages fetched successfully",
		"messages": msgs,
		"count":    len(msgs),
	})
}

// Disconnect removes the mailbox link.
func (h *GmailHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	accountID := identity.AccountIDFromContext(r.Context())
	if err := h.repo.DeleteMailboxLink(r.Context(), accountID); err != nil {
		slog.Error("Failed to delete mailbox link", "error", err)
		Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
		return
	}
	slog.Info("Mailbox unlinked", "account_id", accountID)
	JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Gmail has been disconnected successfully",
	})
}
