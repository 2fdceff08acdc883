package speech

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultIAMEndpoint = "https://iam.api.cloud.yandex.net/iam/v1/tokens"

	jwtLifetime = 360 * time.Second
	// Tokens are refreshed this long before they expire.
	refreshMargin = 5 * time.Minute
	// Used when the IAM response carries no expiry.
	defaultTokenTTL = time.Hour
)

// ServiceAccountKey is the authorized key JSON issued by Yandex Cloud.
type ServiceAccountKey struct {
	ID               string `json:"id"`
	ServiceAccountID string `json:"service_account_id"`
	PrivateKey       string `json:"private_key"`
}

// IAMOptions tune the token source. Zero values mean defaults.
type IAMOptions struct {
	Endpoint   string
	HTTPClient *http.Client
	Now        func() time.Time
}

// IAMTokenSource exchanges a signed JWT for short-lived IAM tokens and
// caches them. Concurrent refreshes are collapsed into one request.
type IAMTokenSource struct {
	key      ServiceAccountKey
	signer   *rsa.PrivateKey
	endpoint string
	client   *http.Client
	now      func() time.Time

	group singleflight.Group

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

var _ Authorizer = (*IAMTokenSource)(nil)

// NewIAMTokenSourceFromFile reads a key file such as key.json.
func NewIAMTokenSourceFromFile(path string, opts IAMOptions) (*IAMTokenSource, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account key: %w", err)
	}
	var key ServiceAccountKey
	if err := json.Unmarshal(b, &key); err != nil {
		return nil, fmt.Errorf("decode service account key: %w", err)
	}
	return NewIAMTokenSource(key, opts)
}

func NewIAMTokenSource(key ServiceAccountKey, opts IAMOptions) (*IAMTokenSource, error) {
	if key.ID == "" || key.ServiceAccountID == "" {
		return nil, errors.New("service account key: missing id or service_account_id")
	}
	signer, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(key.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("service account key: %w", err)
	}
	s := &IAMTokenSource{
		key:      key,
		signer:   signer,
		endpoint: opts.Endpoint,
		client:   opts.HTTPClient,
		now:      opts.Now,
	}
	if s.endpoint == "" {
		s.endpoint = DefaultIAMEndpoint
	}
	if s.client == nil {
		s.client = &http.Client{Timeout: 15 * time.Second}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Authorization returns "Bearer <IAM token>".
func (s *IAMTokenSource) Authorization(ctx context.Context) (string, error) {
	tok, err := s.Token(ctx)
	if err != nil {
		return "", err
	}
	return "Bearer " + tok, nil
}

// Token returns a cached IAM token, fetching a new one when it is missing or
// about to expire.
func (s *IAMTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.token != "" && s.now().Before(s.expiresAt.Add(-refreshMargin)) {
		tok := s.token
		s.mu.Unlock()
		return tok, nil
	}
	s.mu.Unlock()

	v, err, _ := s.group.Do("iam", func() (any, error) {
		tok, exp, err := s.fetch(ctx)
		if err != nil {
			return "", err
		}
		s.mu.Lock()
		s.token, s.expiresAt = tok, exp
		s.mu.Unlock()
		return tok, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// signedJWT builds the PS256 assertion the IAM endpoint expects.
func (s *IAMTokenSource) signedJWT() (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Audience:  jwt.ClaimStrings{DefaultIAMEndpoint},
		Issuer:    s.key.ServiceAccountID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(jwtLifetime)),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodPS256, claims)
	t.Header["kid"] = s.key.ID
	return t.SignedString(s.signer)
}

type iamResponse struct {
	IAMToken  string `json:"iamToken"`
	ExpiresAt string `json:"expiresAt"`
	Code      int    `json:"code"`
	Message   string `json:"message"`
}

func (s *IAMTokenSource) fetch(ctx context.Context) (string, time.Time, error) {
	assertion, err := s.signedJWT()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign jwt: %w", err)
	}
	payload, err := json.Marshal(map[string]string{"jwt": assertion})
	if err != nil {
		return "", time.Time{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("iam request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("iam: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("iam read body: %w", err)
	}
	var out iamResponse
	decodeErr := json.Unmarshal(body, &out)
	if resp.StatusCode != http.StatusOK {
		msg := out.Message
		if decodeErr != nil || msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return "", time.Time{}, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return "", time.Time{}, fmt.Errorf("iam decode: %w", decodeErr)
	}
	if out.IAMToken == "" {
		return "", time.Time{}, errors.New("iam: empty token in response")
	}

	exp := s.now().Add(defaultTokenTTL)
	if out.ExpiresAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, out.ExpiresAt); err == nil {
			exp = t
		}
	}
	return out.IAMToken, exp, nil
}
