package twitter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFetchThreadInvalidURLFormat(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	client := NewClient("test-token")
	client.baseURL = server.URL

	_, err := client.FetchThread(context.Background(), "https://x.com/u/status/notanumber")

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected FetchError, got %v", err)
	}
	if fetchErr.Reason != ReasonInvalidURL {
		t.Errorf("Expected reason %s, got %s", ReasonInvalidURL, fetchErr.Reason)
	}
	if calls != 0 {
		t.Errorf("Expected no upstream calls, got %d", calls)
	}
}

func TestFetchThreadUnconfigured(t *testing.T) {
	client := NewClient("")

	_, err := client.FetchThread(context.Background(), "https://x.com/u/status/123")

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected FetchError, got %v", err)
	}
	if fetchErr.Reason != ReasonUnconfigured {
		t.Errorf("Expected reason %s, got %s", ReasonUnconfigured, fetchErr.Reason)
	}
}

func TestFetchThreadStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   Reason
	}{
		{http.StatusUnauthorized, ReasonAuthFailed},
		{http.StatusForbidden, ReasonForbidden},
		{http.StatusNotFound, ReasonNotFound},
		{http.StatusTeapot, ReasonUnknown},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := NewClient("test-token")
			client.baseURL = server.URL

			_, err := client.FetchThread(context.Background(), "https://x.com/u/status/123")

			var fetchErr *FetchError
			if !errors.As(err, &fetchErr) {
				t.Fatalf("Expected FetchError, got %v", err)
			}
			if fetchErr.Reason != tt.want {
				t.Errorf("Expected reason %s, got %s", tt.want, fetchErr.Reason)
			}
		})
	}
}

func TestFetchThreadAssemblesConversation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/search/") {
			// Deliberately out of chronological order
			fmt.Fprint(w, `{"data":[
				{"id":"3","text":"third post","created_at":"2024-01-01T00:02:00Z"},
				{"id":"1","text":"first post","created_at":"2024-01-01T00:00:00Z"},
				{"id":"2","text":"second post","created_at":"2024-01-01T00:01:00Z"}
			]}`)
			return
		}
		fmt.Fprint(w, `{"data":{"id":"1","text":"first post","conversation_id":"1","created_at":"2024-01-01T00:00:00Z"}}`)
	}))
	defer server.Close()

	client := NewClient("test-token")
	client.baseURL = server.URL

	got, err := client.FetchThread(context.Background(), "https://x.com/u/status/1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := "1. first post\n\n2. second post\n\n3. third post"
	if got != want {
		t.Errorf("FetchThread() = %q, want %q", got, want)
	}
}

func TestFetchThreadDegradesToRootOnSearchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/search/") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"data":{"id":"1","text":"just the root","conversation_id":"1"}}`)
	}))
	defer server.Close()

	client := NewClient("test-token")
	client.baseURL = server.URL

	got, err := client.FetchThread(context.Background(), "https://x.com/u/status/1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != "just the root" {
		t.Errorf("FetchThread() = %q, want root text", got)
	}
}

func TestFetchThreadDegradesToRootOnEmptySearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/search/") {
			fmt.Fprint(w, `{"data":[]}`)
			return
		}
		fmt.Fprint(w, `{"data":{"id":"1","text":"lonely post","conversation_id":"1"}}`)
	}))
	defer server.Close()

	client := NewClient("test-token")
	client.baseURL = server.URL

	got, err := client.FetchThread(context.Background(), "https://x.com/u/status/1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != "lonely post" {
		t.Errorf("FetchThread() = %q, want %q", got, "lonely post")
	}
}

func TestFetchThreadTruncatesLongThreads(t *testing.T) {
	longText := strings.Repeat("x", maxThreadChars+500)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/search/") {
			fmt.Fprint(w, `{"data":[]}`)
			return
		}
		fmt.Fprintf(w, `{"data":{"id":"1","text":%q}}`, longText)
	}))
	defer server.Close()

	client := NewClient("test-token")
	client.baseURL = server.URL

	got, err := client.FetchThread(context.Background(), "https://x.com/u/status/1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(got) != maxThreadChars {
		t.Errorf("Expected %d chars after truncation, got %d", maxThreadChars, len(got))
	}
}

func TestFetchThreadTruncatesOnRuneBoundary(t *testing.T) {
	// 3-byte runes, so the byte limit falls mid-rune
	longText := strings.Repeat("…", maxThreadChars/3+200)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/search/") {
			fmt.Fprint(w, `{"data":[]}`)
			return
		}
		fmt.Fprintf(w, `{"data":{"id":"1","text":%q}}`, longText)
	}))
	defer server.Close()

	client := NewClient("test-token")
	client.baseURL = server.URL

	got, err := client.FetchThread(context.Background(), "https://x.com/u/status/1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(got) > maxThreadChars || len(got) == 0 {
		t.Errorf("Expected at most %d bytes after truncation, got %d", maxThreadChars, len(got))
	}
	if !utf8.ValidString(got) {
		t.Error("Truncated thread text is not valid UTF-8")
	}
}

func TestFetchManyPartialFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/tweets/404") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if strings.Contains(r.URL.Path, "/search/") {
			fmt.Fprint(w, `{"data":[]}`)
			return
		}
		fmt.Fprint(w, `{"data":{"id":"1","text":"good thread"}}`)
	}))
	defer server.Close()

	client := NewClient("test-token")
	client.baseURL = server.URL

	urls := []string{"https://x.com/u/status/1", "https://x.com/u/status/404"}
	got, err := client.FetchMany(context.Background(), urls, 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !strings.Contains(got, "good thread") {
		t.Errorf("Expected fetched thread text in output, got %q", got)
	}
	if !strings.Contains(got, "could not be fetched") {
		t.Errorf("Expected failure note in output, got %q", got)
	}
}

func TestFetchManyAllFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient("test-token")
	client.baseURL = server.URL

	urls := []string{"https://x.com/u/status/1", "https://x.com/u/status/2"}
	_, err := client.FetchMany(context.Background(), urls, 3)
	if err == nil {
		t.Fatal("Expected error when every URL fails")
	}
}

func TestFetchManyBoundsURLCount(t *testing.T) {
	rootCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/search/") {
			fmt.Fprint(w, `{"data":[]}`)
			return
		}
		rootCalls++
		fmt.Fprint(w, `{"data":{"id":"1","text":"a post"}}`)
	}))
	defer server.Close()

	client := NewClient("test-token")
	client.baseURL = server.URL

	urls := []string{
		"https://x.com/u/status/1",
		"https://x.com/u/status/2",
		"https://x.com/u/status/3",
		"https://x.com/u/status/4",
		"https://x.com/u/status/5",
	}
	if _, err := client.FetchMany(context.Background(), urls, 2); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if rootCalls != 2 {
		t.Errorf("Expected 2 root fetches, got %d", rootCalls)
	}
}
