// Package speech turns voice messages into text with Yandex SpeechKit.
package speech

import (
	"context"
	"errors"
	"fmt"
)

// Recognizer converts one short audio clip into its best-guess transcript.
type Recognizer interface {
	Recognize(ctx context.Context, audio []byte) (string, error)
}

var (
	// ErrEmptyAudio is returned for a zero-length clip.
	ErrEmptyAudio = errors.New("empty audio")
	// ErrAudioTooLarge is returned for clips above the synchronous API limit.
	ErrAudioTooLarge = errors.New("audio too large")
	// ErrEmptyResult means the service heard nothing it could transcribe.
	ErrEmptyResult = errors.New("empty recognition result")
)

// APIError is a non-2xx answer from a Yandex Cloud API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" && e.Message == "" {
		return fmt.Sprintf("yandex api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("yandex api: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// Authorizer produces the value of the Authorization header.
type Authorizer interface {
	Authorization(ctx context.Context) (string, error)
}

// APIKey authorizes with a static service account API key.
type APIKey string

func (k APIKey) Authorization(context.Context) (string, error) {
	if k == "" {
		return "", errors.New("empty api key")
	}
	return "Api-Key " + string(k), nil
}

// NewFromCredentials picks IAM tokens when a key file is given and the API
// key otherwise.
func NewFromCredentials(apiKey, keyFile string, opts Options) (*SpeechKit, error) {
	switch {
	case keyFile != "":
		src, err := NewIAMTokenSourceFromFile(keyFile, IAMOptions{HTTPClient: opts.HTTPClient})
		if err != nil {
			return nil, err
		}
		return NewSpeechKit(src, opts), nil
	case apiKey != "":
		return NewSpeechKit(APIKey(apiKey), opts), nil
	default:
		return nil, errors.New("speech: no credentials configured")
	}
}
