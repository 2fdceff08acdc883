package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultEndpoint = "https://stt.api.cloud.yandex.net/speech/v1/stt:recognize"
	DefaultLang     = "ru-RU"

	// MaxAudioBytes is the synchronous recognition limit.
	MaxAudioBytes = 1 << 20

	contentTypeOgg = "audio/ogg; codecs=opus"
)

// Options tune the SpeechKit client. Zero values mean defaults.
type Options struct {
	Endpoint   string
	FolderID   string
	Lang       string
	HTTPClient *http.Client
}

// SpeechKit is a Recognizer backed by the synchronous SpeechKit v1 API.
type SpeechKit struct {
	endpoint string
	folderID string
	lang     string
	auth     Authorizer
	client   *http.Client
}

var _ Recognizer = (*SpeechKit)(nil)

func NewSpeechKit(auth Authorizer, opts Options) *SpeechKit {
	s := &SpeechKit{
		endpoint: opts.Endpoint,
		folderID: opts.FolderID,
		lang:     opts.Lang,
		auth:     auth,
		client:   opts.HTTPClient,
	}
	if s.endpoint == "" {
		s.endpoint = DefaultEndpoint
	}
	if s.lang == "" {
		s.lang = DefaultLang
	}
	if s.client == nil {
		s.client = &http.Client{Timeout: 30 * time.Second}
	}
	return s
}

type recognizeResponse struct {
	Result       string `json:"result"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// Recognize sends an OGG/Opus clip and returns the transcript.
func (s *SpeechKit) Recognize(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}
	if len(audio) > MaxAudioBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrAudioTooLarge, len(audio))
	}

	authz, err := s.auth.Authorization(ctx)
	if err != nil {
		return "", fmt.Errorf("speechkit auth: %w", err)
	}

	q := url.Values{}
	q.Set("lang", s.lang)
	if s.folderID != "" {
		q.Set("folderId", s.folderID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"?"+q.Encode(), bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("speechkit request: %w", err)
	}
	req.Header.Set("Authorization", authz)
	req.Header.Set("Content-Type", contentTypeOgg)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("speechkit: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("speechkit read body: %w", err)
	}

	var out recognizeResponse
	decodeErr := json.Unmarshal(body, &out)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Code: out.ErrorCode, Message: out.ErrorMessage}
		if decodeErr != nil {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return "", apiErr
	}
	if decodeErr != nil {
		return "", fmt.Errorf("speechkit decode: %w", decodeErr)
	}

	text := strings.TrimSpace(out.Result)
	if text == "" {
		return "", ErrEmptyResult
	}
	return text, nil
}
