package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Kind classifies an upstream completion failure.
type Kind string

const (
	KindTimeout      Kind = "timeout"
	KindServerError  Kind = "server_error"
	KindClientError  Kind = "client_error"
	KindNetworkError Kind = "network_error"
)

// UpstreamError represents a failed completion call after all eligible
// attempts were exhausted.
type UpstreamError struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream completion: %s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("upstream completion: %s: %s", e.Kind, e.Message)
}

// RateLimited reports whether the failure was a rate-limit or billing
// rejection. Handlers mask these behind a maintenance message so the
// real cause is never shown to end users.
func (e *UpstreamError) RateLimited() bool {
	return e.Status == http.StatusTooManyRequests || e.Status == http.StatusPaymentRequired
}

// MaintenanceMessage is the user-facing text for rate-limit and billing
// failures.
const MaintenanceMessage = "The service is temporarily under maintenance. Please try again in a few minutes."

// attemptTimeouts shrink on later attempts so the total wall-clock
// budget stays under the hosting platform's execution ceiling.
var attemptTimeouts = []time.Duration{4 * time.Second, 3 * time.Second, 3 * time.Second}

const retryDelay = 500 * time.Millisecond

// Client calls an OpenRouter-compatible chat completion API.
type Client struct {
	apiKey      string
	model       string
	baseURL     string
	maxAttempts int
	httpClient  *http.Client
}

// NewClient creates a new completion API client
func NewClient(apiKey, model string, maxAttempts int) *Client {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Client{
		apiKey:      apiKey,
		model:       model,
		baseURL:     "https://openrouter.ai/api/v1",
		maxAttempts: maxAttempts,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends prompt to the completion API, retrying server errors,
// timeouts, and transport failures up to the configured attempt
// ceiling. Each attempt runs under its own deadline so an abandoned
// attempt is actually cancelled, not left running.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	var lastErr *UpstreamError
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		text, callErr := c.attempt(ctx, body, attemptTimeout(attempt))
		if callErr == nil {
			return text, nil
		}
		lastErr = callErr

		if !retryable(callErr) || attempt == c.maxAttempts {
			return "", callErr
		}
		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return "", &UpstreamError{Kind: KindTimeout, Message: "request cancelled"}
		}
	}
	return "", lastErr
}

func (c *Client) attempt(ctx context.Context, body []byte, timeout time.Duration) (string, *UpstreamError) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &UpstreamError{Kind: KindNetworkError, Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &UpstreamError{
			Kind:    KindServerError,
			Status:  resp.StatusCode,
			Message: string(respBody),
		}
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusPaymentRequired {
		// Drain so the connection can be reused; the real body is
		// deliberately not surfaced to callers.
		io.Copy(io.Discard, resp.Body)
		return "", &UpstreamError{
			Kind:    KindClientError,
			Status:  resp.StatusCode,
			Message: MaintenanceMessage,
		}
	}

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &UpstreamError{
			Kind:    KindClientError,
			Status:  resp.StatusCode,
			Message: string(respBody),
		}
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", &UpstreamError{Kind: KindServerError, Message: "decoding response: " + err.Error()}
	}
	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return "", &UpstreamError{Kind: KindServerError, Message: "no content in response"}
	}
	return chatResp.Choices[0].Message.Content, nil
}

// retryable: server errors, timeouts, and transport failures are
// eligible; 4xx responses (including masked rate-limit/billing) and
// malformed 200 bodies are not.
func retryable(err *UpstreamError) bool {
	switch err.Kind {
	case KindTimeout, KindNetworkError:
		return true
	case KindServerError:
		return err.Status >= 500
	default:
		return false
	}
}

func attemptTimeout(attempt int) time.Duration {
	if attempt-1 < len(attemptTimeouts) {
		return attemptTimeouts[attempt-1]
	}
	return attemptTimeouts[len(attemptTimeouts)-1]
}

func classifyTransportError(err error) *UpstreamError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &UpstreamError{Kind: KindTimeout, Message: "request timed out"}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &UpstreamError{Kind: KindTimeout, Message: "request timed out"}
	}
	return &UpstreamError{Kind: KindNetworkError, Message: err.Error()}
}
