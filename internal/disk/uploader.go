package disk

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"golang.org/x/oauth2"
)

// TokenStore persists OAuth tokens per Telegram user.
type TokenStore interface {
	Token(ctx context.Context, userID int64) (*oauth2.Token, error)
	SaveToken(ctx context.Context, userID int64, tok *oauth2.Token) error
}

// Uploader copies a user's local workbook to <folder>/<userID>.xlsx on their
// own Disk, refreshing the stored token when needed.
type Uploader struct {
	oauth  *OAuth
	client *Client
	tokens TokenStore
	folder string
}

func NewUploader(oauth *OAuth, client *Client, tokens TokenStore, folder string) *Uploader {
	return &Uploader{oauth: oauth, client: client, tokens: tokens, folder: folder}
}

// RemotePath is where a user's workbook lands on Disk.
func (u *Uploader) RemotePath(userID int64) string {
	return path.Join(u.folder, strconv.FormatInt(userID, 10)+".xlsx")
}

// UploadWorkbook uploads localPath for userID.
func (u *Uploader) UploadWorkbook(ctx context.Context, userID int64, localPath string) error {
	stored, err := u.tokens.Token(ctx, userID)
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	tok, err := u.oauth.TokenSource(ctx, stored).Token()
	if err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}
	if tok.AccessToken != stored.AccessToken {
		if err := u.tokens.SaveToken(ctx, userID, tok); err != nil {
			return fmt.Errorf("save refreshed token: %w", err)
		}
	}

	f, err := os.Open(filepath.Clean(localPath))
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	return u.client.Upload(ctx, tok.AccessToken, u.RemotePath(userID), f)
}
