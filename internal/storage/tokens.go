package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// SaveToken stores or replaces the Yandex OAuth token of a user.
func (r *SQLiteRepository) SaveToken(ctx context.Context, userID int64, tok *oauth2.Token) error {
	if tok == nil || tok.AccessToken == "" {
		return errors.New("save token: empty access token")
	}
	row := OauthToken{
		UserID:       userID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		UpdatedAt:    r.now().UTC().Unix(),
	}
	if !tok.Expiry.IsZero() {
		row.Expiry = sql.NullInt64{Int64: tok.Expiry.UTC().Unix(), Valid: true}
	}
	if err := r.queries.UpsertOauthToken(ctx, row); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Token returns the stored token of a user or ErrNotFound.
func (r *SQLiteRepository) Token(ctx context.Context, userID int64) (*oauth2.Token, error) {
	row, err := r.queries.GetOauthToken(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("token for user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}
	tok := &oauth2.Token{
		AccessToken:  row.AccessToken,
		RefreshToken: row.RefreshToken,
		TokenType:    row.TokenType,
	}
	if row.Expiry.Valid {
		tok.Expiry = time.Unix(row.Expiry.Int64, 0).UTC()
	}
	return tok, nil
}

// DeleteToken forgets a user's token.
func (r *SQLiteRepository) DeleteToken(ctx context.Context, userID int64) error {
	if err := r.queries.DeleteOauthToken(ctx, userID); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether the user has a usable stored token.
func (r *SQLiteRepository) IsAuthenticated(ctx context.Context, userID int64) (bool, error) {
	tok, err := r.Token(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return tok.Valid() || tok.RefreshToken != "", nil
}
