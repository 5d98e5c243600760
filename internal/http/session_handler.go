package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/auth"
	d "github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/logging"
	"github.com/google/uuid"
)

// SessionHandler is a stand-in sign-in: it trusts whatever profile it is
// given and issues a signed session token for it.
type SessionHandler struct {
	tokens *auth.Tokens
	ttl    time.Duration
}

func NewSessionHandler(tokens *auth.Tokens, ttl time.Duration) *SessionHandler {
	return &SessionHandler{tokens: tokens, ttl: ttl}
}

type SessionRequestDTO struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type SessionResponseDTO struct {
	Token     string  `json:"token"`
	SessionID string  `json:"sessionId"`
	ExpiresIn int64   `json:"expiresIn"`
	User      *d.User `json:"user,omitempty"`
}

// Issue creates a session token. Without an email the token is a guest one.
// A still valid bearer token keeps its session so the cart survives sign-in.
func (h *SessionHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req SessionRequestDTO
	if _, err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	var sessionID string
	if prev, err := h.tokens.Parse(bearerToken(r)); err == nil {
		sessionID = prev.SessionID
	}

	var user d.User
	if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" {
		user = d.User{
			ID:        uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String(),
			FirstName: strings.TrimSpace(req.FirstName),
			LastName:  strings.TrimSpace(req.LastName),
			Email:     email,
			Phone:     strings.TrimSpace(req.Phone),
		}
	}

	token, id, err := h.tokens.Issue(user, sessionID)
	if err != nil {
		logging.FromCtx(r.Context()).Error("failed to issue session token", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "could not create session")
		return
	}

	resp := SessionResponseDTO{
		Token:     token,
		SessionID: id.SessionID,
		ExpiresIn: int64(h.ttl.Seconds()),
	}
	if !id.IsGuest() {
		resp.User = &id.User
	}
	respondJSON(w, http.StatusCreated, resp)
}
