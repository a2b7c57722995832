package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/sptx/internal/shared"
	"golang.org/x/oauth2"
)

// StoredToken is a persisted credential with its bookkeeping.
type StoredToken struct {
	Token     *oauth2.Token
	Scopes    []string
	UpdatedAt time.Time
}

// TokenRepository stores one OAuth2 token per provider.
type TokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new [TokenRepository] with the given database connection
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Save inserts or replaces the provider's token.
//
// Refresh grants may omit the refresh token; an empty one keeps the stored value.
func (r *TokenRepository) Save(provider string, token *oauth2.Token, scopes []string) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty access token", shared.ErrInvalidInput)
	}

	tokenType := token.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	return withTx(r.db, func(tx *sql.Tx) error {
		var existing sql.NullString
		err := tx.QueryRow("SELECT refresh_token FROM tokens WHERE provider = ?", provider).Scan(&existing)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to query token: %w", err)
		}

		refresh := token.RefreshToken
		if refresh == "" && existing.Valid {
			refresh = existing.String
		}

		query := `
			INSERT INTO tokens (id, provider, access_token, refresh_token, token_type, expiry, scopes, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
			ON CONFLICT(provider) DO UPDATE SET
				access_token = excluded.access_token,
				refresh_token = excluded.refresh_token,
				token_type = excluded.token_type,
				expiry = excluded.expiry,
				scopes = CASE WHEN excluded.scopes = '' THEN tokens.scopes ELSE excluded.scopes END,
				updated_at = CURRENT_TIMESTAMP
		`
		_, err = tx.Exec(query, shared.GenerateID(), provider, token.AccessToken, refresh, tokenType,
			nullTime(token.Expiry), joinScopes(scopes))
		if err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}
		return nil
	})
}

// Load returns the provider's token, wrapping [shared.ErrNotAuthenticated] when none is stored.
func (r *TokenRepository) Load(provider string) (StoredToken, error) {
	query := `
		SELECT access_token, refresh_token, token_type, expiry, scopes, updated_at
		FROM tokens
		WHERE provider = ?
	`

	var (
		access, refresh, tokenType, scopes string
		expiry                             sql.NullTime
		updatedAt                          sql.NullTime
	)
	err := r.db.QueryRow(query, provider).Scan(&access, &refresh, &tokenType, &expiry, &scopes, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredToken{}, fmt.Errorf("%w: no stored token for %s", shared.ErrNotAuthenticated, provider)
	}
	if err != nil {
		return StoredToken{}, fmt.Errorf("failed to query token: %w", err)
	}

	token := &oauth2.Token{AccessToken: access, RefreshToken: refresh, TokenType: tokenType}
	if expiry.Valid {
		token.Expiry = expiry.Time
	}
	return StoredToken{Token: token, Scopes: splitScopes(scopes), UpdatedAt: updatedAt.Time}, nil
}

// Delete removes the provider's token. Deleting a missing token is not an error.
func (r *TokenRepository) Delete(provider string) error {
	if _, err := r.db.Exec("DELETE FROM tokens WHERE provider = ?", provider); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// Saver adapts Save to a refresh callback for the provider.
func (r *TokenRepository) Saver(provider string) func(*oauth2.Token) error {
	return func(token *oauth2.Token) error {
		return r.Save(provider, token, nil)
	}
}
