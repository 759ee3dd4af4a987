package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/gcal"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/oauthstate"
	"golang.org/x/oauth2"
)

// ExchangeFunc trades an authorization code for a token.
type ExchangeFunc func(ctx context.Context, code string) (*oauth2.Token, error)

type GoogleAuthHandler struct {
	creds       gcal.Credentials
	shops       ShopStore
	tokens      TokenStore
	states      oauthstate.Store
	exchange    ExchangeFunc
	frontendURL string
	logger      *slog.Logger
}

func NewGoogleAuthHandler(creds gcal.Credentials, shops ShopStore, tokens TokenStore, states oauthstate.Store, frontendURL string, httpClient *http.Client, logger *slog.Logger) *GoogleAuthHandler {
	return &GoogleAuthHandler{
		creds:  creds,
		shops:  shops,
		tokens: tokens,
		states: states,
		exchange: func(ctx context.Context, code string) (*oauth2.Token, error) {
			return gcal.Exchange(ctx, creds, code, httpClient)
		},
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// Start serves /api/auth/google?shop_id=... and redirects to the Google consent screen.
func (h *GoogleAuthHandler) Start(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	shopID := strings.TrimSpace(r.URL.Query().Get("shop_id"))
	if shopID == "" {
		writeError(w, http.StatusBadRequest, "shop_id is required")
		return
	}
	if !h.creds.Configured() {
		writeError(w, http.StatusServiceUnavailable, "google calendar is not configured")
		return
	}
	shop, ok := loadShop(r.Context(), w, h.shops, h.logger, shopID)
	if !ok {
		return
	}

	state, err := h.states.Put(r.Context(), shop.ID)
	if err != nil {
		h.logger.Error("store oauth state failed", "err", err, "shop_id", shop.ID)
		writeError(w, http.StatusInternalServerError, "failed to start google authorization")
		return
	}
	target, err := gcal.AuthCodeURL(h.creds, state)
	if err != nil {
		h.logger.Error("build auth url failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to start google authorization")
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// Callback serves /api/auth/google/callback. Outcomes other than a malformed request redirect
// back to the frontend with google_auth_status.
func (h *GoogleAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	q := r.URL.Query()
	if reason := q.Get("error"); reason != "" {
		h.logger.Warn("google consent denied", "reason", reason)
		h.redirectStatus(w, r, false)
		return
	}
	code := strings.TrimSpace(q.Get("code"))
	state := strings.TrimSpace(q.Get("state"))
	if code == "" || state == "" {
		writeError(w, http.StatusBadRequest, "code and state are required")
		return
	}

	shopID, err := h.states.Take(r.Context(), state)
	if err != nil {
		if !errors.Is(err, oauthstate.ErrUnknownState) {
			h.logger.Error("resolve oauth state failed", "err", err)
		} else {
			h.logger.Warn("unknown oauth state")
		}
		h.redirectStatus(w, r, false)
		return
	}

	tok, err := h.exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("google token exchange failed", "err", err, "shop_id", shopID)
		h.redirectStatus(w, r, false)
		return
	}

	record := model.CalendarToken{
		ShopID:       shopID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Scope:        gcal.GrantedScope(tok),
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}
	if err := h.tokens.Upsert(r.Context(), record); err != nil {
		h.logger.Error("store google tokens failed", "err", err, "shop_id", shopID)
		h.redirectStatus(w, r, false)
		return
	}
	h.logger.Info("google calendar connected", "shop_id", shopID, "has_refresh_token", tok.RefreshToken != "")
	h.redirectStatus(w, r, true)
}

func (h *GoogleAuthHandler) redirectStatus(w http.ResponseWriter, r *http.Request, ok bool) {
	status := "error"
	if ok {
		status = "success"
	}
	http.Redirect(w, r, withQuery(h.frontendURL, "google_auth_status", status), http.StatusFound)
}

func withQuery(base, key, value string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?" + url.QueryEscape(key) + "=" + url.QueryEscape(value)
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
