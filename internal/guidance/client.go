// Package guidance holds the outbound client for the remote guidance
// service that answers a user message with a response payload.
package guidance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hmawbi/uniguide/internal/config"
	"github.com/hmawbi/uniguide/internal/models"
)

const defaultHTTPTimeout = 20 * time.Second

type httpDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// APIError is a non-success answer from the guidance service. The body is
// captured as a diagnostic snippet but never machine-parsed.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("guidance service error (%d): %s", e.StatusCode, e.Detail)
}

// UserDetail exposes the delivered error detail for user-facing rendering.
func (e *APIError) UserDetail() string {
	return e.Detail
}

// Client posts messages to the guidance service. Every call declares itself
// as an interactive, non-navigational request and attaches a token resolved
// through the configured TokenSource chain.
type Client struct {
	endpoint string
	client   httpDoer
	tokens   TokenSource
	logger   *zap.SugaredLogger
}

func NewClient(cfg config.GuidanceConfig, tokens TokenSource, logger *zap.SugaredLogger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	if tokens == nil {
		tokens = ChainTokens()
	}

	return &Client{
		endpoint: strings.TrimSpace(cfg.Endpoint),
		client:   &http.Client{Timeout: timeout},
		tokens:   tokens,
		logger:   logger,
	}
}

type messagePayload struct {
	Message string `json:"message"`
}

// Send submits a single message and decodes the service response. The call
// is attempted exactly once; retry policy is deliberately not applied here.
func (c *Client) Send(ctx context.Context, message string) (*models.ServiceResponse, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, errors.New("guidance: message is empty")
	}
	if c.endpoint == "" {
		return nil, errors.New("guidance: endpoint is not configured")
	}

	body, err := json.Marshal(messagePayload{Message: message})
	if err != nil {
		return nil, fmt.Errorf("guidance: marshal payload: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("guidance: create request: %w", err)
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("X-Requested-With", "XMLHttpRequest")
	if token := c.tokens.Token(); token != "" {
		request.Header.Set("X-CSRFToken", token)
	}

	response, err := c.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("guidance: call service: %w", err)
	}
	defer response.Body.Close()

	respBody, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("guidance: read response: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		apiErr := newAPIError(response.StatusCode, respBody)
		if c.logger != nil {
			c.logger.Warnw("guidance call failed", "status", response.StatusCode, "detail", apiErr.Detail)
		}
		return nil, apiErr
	}

	var out models.ServiceResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("guidance: decode response: %w", err)
	}

	return &out, nil
}

func newAPIError(statusCode int, body []byte) *APIError {
	snippet := strings.TrimSpace(string(body))
	if snippet == "" {
		snippet = http.StatusText(statusCode)
	}
	if len(snippet) > 256 {
		snippet = snippet[:256]
	}

	return &APIError{StatusCode: statusCode, Detail: snippet}
}
