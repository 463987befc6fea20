package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func completionBody(text string) string {
	return fmt.Sprintf(`{"choices":[{"message":{"role":"assistant","content":%q}}]}`, text)
}

func TestCompleteRetriesServerErrorsThenSucceeds(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, completionBody("the summary"))
	}))
	defer server.Close()

	client := NewClient("test-key", "test-model", 3)
	client.baseURL = server.URL

	got, err := client.Complete(context.Background(), "a prompt")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != "the summary" {
		t.Errorf("Complete() = %q, want %q", got, "the summary")
	}
	if attempts != 3 {
		t.Errorf("Expected exactly 3 attempts, got %d", attempts)
	}
}

func TestCompleteExhaustsAttemptsOnServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient("test-key", "test-model", 3)
	client.baseURL = server.URL

	_, err := client.Complete(context.Background(), "a prompt")

	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("Expected UpstreamError, got %v", err)
	}
	if upErr.Kind != KindServerError {
		t.Errorf("Expected kind %s, got %s", KindServerError, upErr.Kind)
	}
	if attempts != 3 {
		t.Errorf("Expected exactly 3 attempts, got %d", attempts)
	}
}

func TestCompleteRateLimitedNoRetry(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limit exceeded for free tier"}}`)
	}))
	defer server.Close()

	client := NewClient("test-key", "test-model", 3)
	client.baseURL = server.URL

	_, err := client.Complete(context.Background(), "a prompt")

	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("Expected UpstreamError, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected exactly 1 attempt, got %d", attempts)
	}
	if !upErr.RateLimited() {
		t.Error("Expected RateLimited() to be true")
	}
	if upErr.Message != MaintenanceMessage {
		t.Errorf("Expected masked maintenance message, got %q", upErr.Message)
	}
	if strings.Contains(upErr.Message, "rate limit") {
		t.Errorf("Real cause leaked into message: %q", upErr.Message)
	}
}

func TestCompleteBillingErrorMasked(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, `{"error":{"message":"insufficient credits"}}`)
	}))
	defer server.Close()

	client := NewClient("test-key", "test-model", 3)
	client.baseURL = server.URL

	_, err := client.Complete(context.Background(), "a prompt")

	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("Expected UpstreamError, got %v", err)
	}
	if !upErr.RateLimited() {
		t.Error("Expected RateLimited() to be true for 402")
	}
	if upErr.Message != MaintenanceMessage {
		t.Errorf("Expected masked maintenance message, got %q", upErr.Message)
	}
}

func TestCompleteClientErrorNoRetry(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"bad model name"}}`)
	}))
	defer server.Close()

	client := NewClient("test-key", "test-model", 3)
	client.baseURL = server.URL

	_, err := client.Complete(context.Background(), "a prompt")

	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("Expected UpstreamError, got %v", err)
	}
	if upErr.Kind != KindClientError {
		t.Errorf("Expected kind %s, got %s", KindClientError, upErr.Kind)
	}
	if attempts != 1 {
		t.Errorf("Expected exactly 1 attempt, got %d", attempts)
	}
}

func TestCompleteMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer server.Close()

	client := NewClient("test-key", "test-model", 3)
	client.baseURL = server.URL

	_, err := client.Complete(context.Background(), "a prompt")

	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("Expected UpstreamError, got %v", err)
	}
	if upErr.Kind != KindServerError {
		t.Errorf("Expected kind %s, got %s", KindServerError, upErr.Kind)
	}
}

func TestCompleteSendsAuthAndModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Expected bearer auth header, got %q", auth)
		}
		fmt.Fprint(w, completionBody("ok response text"))
	}))
	defer server.Close()

	client := NewClient("test-key", "test-model", 1)
	client.baseURL = server.URL

	if _, err := client.Complete(context.Background(), "a prompt"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}
