// Package disk authorizes users with Yandex OAuth and uploads their
// workbooks to Yandex.Disk.
package disk

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
)

// Endpoint is Yandex's OAuth 2.0 endpoint.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://oauth.yandex.ru/authorize",
	TokenURL: "https://oauth.yandex.ru/token",
}

// ErrInvalidState is returned for a callback state that was not issued by us.
var ErrInvalidState = errors.New("invalid oauth state")

// OAuth issues authorization links and exchanges codes for tokens.
type OAuth struct {
	cfg    *oauth2.Config
	secret []byte
}

// NewOAuth returns an OAuth helper for the Yandex endpoint.
func NewOAuth(clientID, clientSecret, redirectURL string) *OAuth {
	return NewOAuthWithEndpoint(clientID, clientSecret, redirectURL, Endpoint)
}

func NewOAuthWithEndpoint(clientID, clientSecret, redirectURL string, ep oauth2.Endpoint) *OAuth {
	return &OAuth{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     ep,
		},
		secret: []byte(clientSecret),
	}
}

// AuthURL returns the link a Telegram user follows to grant Disk access.
// The state carries the user id, signed so the callback can trust it.
func (o *OAuth) AuthURL(userID int64) string {
	return o.cfg.AuthCodeURL(o.State(userID), oauth2.SetAuthURLParam("force_confirm", "yes"))
}

// State returns the signed state value for userID.
func (o *OAuth) State(userID int64) string {
	id := strconv.FormatInt(userID, 10)
	return id + "." + o.sign(id)
}

// ParseState verifies a state produced by State and returns the user id.
func (o *OAuth) ParseState(state string) (int64, error) {
	id, sig, ok := strings.Cut(state, ".")
	if !ok || !hmac.Equal([]byte(sig), []byte(o.sign(id))) {
		return 0, ErrInvalidState
	}
	userID, err := strconv.ParseInt(id, 10, 64)
	if err != nil || userID == 0 {
		return 0, ErrInvalidState
	}
	return userID, nil
}

func (o *OAuth) sign(s string) string {
	mac := hmac.New(sha256.New, o.secret)
	mac.Write([]byte(s))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil)[:16])
}

// Exchange trades an authorization code for a token.
func (o *OAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, errors.New("empty authorization code")
	}
	tok, err := o.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return tok, nil
}

// TokenSource refreshes tok when it expires.
func (o *OAuth) TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource {
	return o.cfg.TokenSource(ctx, tok)
}
