package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Output budgets. Catalog-wide calls cover many rows at once and need the larger one.
const (
	DefaultMaxOutputTokens = 1024
	BulkMaxOutputTokens    = 8192
)

// ErrRejected marks a request the provider refused (bad prompt, policy, auth). It is never retried.
var ErrRejected = errors.New("inference request rejected")

// Attachment is a binary payload sent alongside a prompt, e.g. a rendered page or a product photo.
type Attachment struct {
	Name     string
	MIMEType string
	Data     []byte
}

// CompletionRequest is one synchronous prompt/response exchange.
type CompletionRequest struct {
	System          string
	Prompt          string
	Attachments     []Attachment
	MaxOutputTokens int
}

// Provider is the inference backend the fallback extractor depends on.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// StatusError is a non-2xx reply from an HTTP provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Retryable reports whether the status is transient.
func (e *StatusError) Retryable() bool {
	return isRetryableStatus(e.StatusCode)
}

// Is makes 4xx replies match ErrRejected.
func (e *StatusError) Is(target error) bool {
	return target == ErrRejected && e.StatusCode >= http.StatusBadRequest && e.StatusCode < http.StatusInternalServerError &&
		e.StatusCode != http.StatusTooManyRequests
}
