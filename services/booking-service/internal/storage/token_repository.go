package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/db"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/tokencrypt"
)

// TokenRepository stores Google OAuth grants per shop. Access and refresh tokens are sealed with
// the configured cipher (nil stores plaintext).
type TokenRepository struct {
	pool   *db.Pool
	cipher *tokencrypt.Cipher
}

func NewTokenRepository(pool *db.Pool, cipher *tokencrypt.Cipher) *TokenRepository {
	return &TokenRepository{pool: pool, cipher: cipher}
}

// Upsert saves the grant from an OAuth callback. An empty refresh token keeps the stored one,
// since Google only returns it on first consent.
func (r *TokenRepository) Upsert(ctx context.Context, tok model.CalendarToken) error {
	access, err := r.cipher.Seal(tok.AccessToken)
	if err != nil {
		return fmt.Errorf("seal access token: %w", err)
	}
	refresh, err := r.cipher.Seal(tok.RefreshToken)
	if err != nil {
		return fmt.Errorf("seal refresh token: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO shop_google_tokens (shop_id, access_token, refresh_token, scope, token_type, expiry, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (shop_id) DO UPDATE
		SET access_token = EXCLUDED.access_token,
			refresh_token = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), shop_google_tokens.refresh_token),
			scope = EXCLUDED.scope,
			token_type = EXCLUDED.token_type,
			expiry = EXCLUDED.expiry,
			updated_at = now()
	`, tok.ShopID, access, refresh, tok.Scope, tok.TokenType, nullableTime(tok.Expiry))
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// UpdateAccessToken stores a refreshed access token.
func (r *TokenRepository) UpdateAccessToken(ctx context.Context, shopID, accessToken string, expiry time.Time) error {
	access, err := r.cipher.Seal(accessToken)
	if err != nil {
		return fmt.Errorf("seal access token: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		UPDATE shop_google_tokens
		SET access_token = $2, expiry = $3, updated_at = now()
		WHERE shop_id = $1
	`, shopID, access, nullableTime(expiry))
	return err
}

// Get returns ok=false when the shop never connected Google Calendar.
func (r *TokenRepository) Get(ctx context.Context, shopID string) (model.CalendarToken, bool, error) {
	var tok model.CalendarToken
	var expiry *time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT shop_id::text, access_token, refresh_token, scope, token_type, expiry, updated_at
		FROM shop_google_tokens
		WHERE shop_id = $1
	`, shopID).Scan(&tok.ShopID, &tok.AccessToken, &tok.RefreshToken, &tok.Scope, &tok.TokenType, &expiry, &tok.UpdatedAt)
	if err != nil {
		if IsNotFound(err) {
			return model.CalendarToken{}, false, nil
		}
		return model.CalendarToken{}, false, err
	}
	if expiry != nil {
		tok.Expiry = *expiry
	}
	if tok.AccessToken, err = r.cipher.Open(tok.AccessToken); err != nil {
		return model.CalendarToken{}, false, err
	}
	if tok.RefreshToken, err = r.cipher.Open(tok.RefreshToken); err != nil {
		return model.CalendarToken{}, false, err
	}
	return tok, true, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
