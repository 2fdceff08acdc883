package disk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

const DefaultBaseURL = "https://cloud-api.yandex.net"

// ErrUnauthorized means the token was rejected; the user must log in again.
var ErrUnauthorized = errors.New("yandex disk: unauthorized")

// APIError is an error answer of the Disk REST API.
type APIError struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("yandex disk: status %d: %s: %s", e.StatusCode, e.Code, e.Description)
}

// Client talks to the Yandex.Disk REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for baseURL; empty means DefaultBaseURL.
func NewClient(baseURL string, hc *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

type link struct {
	Href   string `json:"href"`
	Method string `json:"method"`
}

// Upload stores r at remotePath, replacing an existing file. The parent
// folder is created when missing.
func (c *Client) Upload(ctx context.Context, accessToken, remotePath string, r io.Reader) error {
	if dir := path.Dir(remotePath); dir != "." && dir != "/" {
		if err := c.ensureFolder(ctx, accessToken, dir); err != nil {
			return err
		}
	}

	q := url.Values{"path": {remotePath}, "overwrite": {"true"}}
	req, err := c.newRequest(ctx, http.MethodGet, "/v1/disk/resources/upload?"+q.Encode(), accessToken, nil)
	if err != nil {
		return err
	}
	var l link
	if err := c.do(req, &l, http.StatusOK); err != nil {
		return fmt.Errorf("get upload link: %w", err)
	}
	if l.Href == "" {
		return errors.New("yandex disk: empty upload link")
	}
	method := l.Method
	if method == "" {
		method = http.MethodPut
	}

	put, err := http.NewRequestWithContext(ctx, method, l.Href, r)
	if err != nil {
		return fmt.Errorf("upload request: %w", err)
	}
	if err := c.do(put, nil, http.StatusCreated, http.StatusAccepted, http.StatusOK); err != nil {
		return fmt.Errorf("upload %s: %w", remotePath, err)
	}
	return nil
}

func (c *Client) ensureFolder(ctx context.Context, accessToken, dir string) error {
	q := url.Values{"path": {dir}}
	req, err := c.newRequest(ctx, http.MethodPut, "/v1/disk/resources?"+q.Encode(), accessToken, nil)
	if err != nil {
		return err
	}
	// 409 means the folder already exists.
	if err := c.do(req, nil, http.StatusCreated, http.StatusConflict); err != nil {
		return fmt.Errorf("create folder %s: %w", dir, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, pathAndQuery, accessToken string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+pathAndQuery, body)
	if err != nil {
		return nil, fmt.Errorf("disk request: %w", err)
	}
	req.Header.Set("Authorization", "OAuth "+accessToken)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out any, okStatus ...int) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	for _, s := range okStatus {
		if resp.StatusCode == s {
			if out == nil {
				io.Copy(io.Discard, resp.Body)
				return nil
			}
			return json.NewDecoder(resp.Body).Decode(out)
		}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	apiErr := &APIError{StatusCode: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(body, apiErr) != nil {
		apiErr.Description = strings.TrimSpace(string(body))
	}
	return apiErr
}
