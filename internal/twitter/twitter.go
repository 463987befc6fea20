package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// Reason classifies why a thread fetch failed.
type Reason string

const (
	ReasonInvalidURL   Reason = "invalid_url_format"
	ReasonUnconfigured Reason = "unconfigured"
	ReasonAuthFailed   Reason = "auth_failed"
	ReasonForbidden    Reason = "forbidden"
	ReasonNotFound     Reason = "not_found"
	ReasonTimeout      Reason = "timeout"
	ReasonUnknown      Reason = "unknown"
)

// FetchError represents a failed thread fetch.
type FetchError struct {
	Reason Reason
	Status int
	Body   string
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetching thread: %s (status %d)", e.Reason, e.Status)
	}
	return fmt.Sprintf("fetching thread: %s", e.Reason)
}

const (
	rootTimeout         = 3 * time.Second
	conversationTimeout = 2 * time.Second

	// maxThreadChars bounds upstream token costs and response latency.
	maxThreadChars = 4000

	// DefaultMaxURLs caps multi-URL fetches to keep total latency
	// under the hosting platform's execution ceiling.
	DefaultMaxURLs = 3
)

var tweetIDPattern = regexp.MustCompile(`/status/(\d+)`)

// Client reads threads from the X (Twitter) v2 API.
type Client struct {
	bearerToken string
	baseURL     string
	httpClient  *http.Client
}

// NewClient creates a new X API client
func NewClient(bearerToken string) *Client {
	return &Client{
		bearerToken: bearerToken,
		baseURL:     "https://api.twitter.com/2",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type tweet struct {
	ID             string `json:"id"`
	Text           string `json:"text"`
	ConversationID string `json:"conversation_id"`
	CreatedAt      string `json:"created_at"`
}

type tweetResponse struct {
	Data tweet `json:"data"`
}

type searchResponse struct {
	Data []tweet `json:"data"`
}

// FetchThread resolves a thread URL into plain text. It fetches the
// root post, then best-effort expands the rest of the conversation; a
// failure in the conversation lookup is never fatal.
func (c *Client) FetchThread(ctx context.Context, threadURL string) (string, error) {
	matches := tweetIDPattern.FindStringSubmatch(threadURL)
	if len(matches) < 2 {
		return "", &FetchError{Reason: ReasonInvalidURL}
	}
	tweetID := matches[1]

	if c.bearerToken == "" {
		return "", &FetchError{Reason: ReasonUnconfigured}
	}

	root, err := c.fetchRootTweet(ctx, tweetID)
	if err != nil {
		return "", err
	}

	text := c.fetchConversation(ctx, root)
	if len(text) > maxThreadChars {
		cut := maxThreadChars
		// back up to a rune boundary so truncation never leaves
		// invalid UTF-8
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text, nil
}

// FetchMany applies FetchThread to a bounded prefix of urls,
// concatenating successes with a labeled header per URL. It fails only
// when every URL failed.
func (c *Client) FetchMany(ctx context.Context, urls []string, maxCount int) (string, error) {
	if maxCount <= 0 {
		maxCount = DefaultMaxURLs
	}
	if len(urls) > maxCount {
		urls = urls[:maxCount]
	}

	var sections []string
	var failures []string
	var lastErr error

	for i, u := range urls {
		text, err := c.FetchThread(ctx, u)
		if err != nil {
			failures = append(failures, fmt.Sprintf("Thread %d (%s): could not be fetched", i+1, u))
			lastErr = err
			continue
		}
		sections = append(sections, fmt.Sprintf("=== Thread %d: %s ===\n%s", i+1, u, text))
	}

	if len(sections) == 0 {
		if lastErr != nil {
			return "", lastErr
		}
		return "", &FetchError{Reason: ReasonInvalidURL}
	}

	result := strings.Join(sections, "\n\n")
	if len(failures) > 0 {
		result += "\n\n[Some threads could not be fetched]\n" + strings.Join(failures, "\n")
	}
	return result, nil
}

func (c *Client) fetchRootTweet(ctx context.Context, tweetID string) (*tweet, error) {
	ctx, cancel := context.WithTimeout(ctx, rootTimeout)
	defer cancel()

	apiURL := fmt.Sprintf("%s/tweets/%s?tweet.fields=conversation_id,created_at,text", c.baseURL, tweetID)
	req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, &FetchError{Reason: ReasonUnknown, Body: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &FetchError{
			Reason: reasonForStatus(resp.StatusCode),
			Status: resp.StatusCode,
			Body:   string(body),
		}
	}

	var tr tweetResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, &FetchError{Reason: ReasonUnknown, Body: err.Error()}
	}
	if tr.Data.Text == "" {
		return nil, &FetchError{Reason: ReasonUnknown, Body: "empty tweet in response"}
	}
	return &tr.Data, nil
}

// fetchConversation renders the full thread for root, degrading to the
// root text alone when the search call fails or returns nothing.
func (c *Client) fetchConversation(ctx context.Context, root *tweet) string {
	if root.ConversationID == "" {
		return root.Text
	}

	ctx, cancel := context.WithTimeout(ctx, conversationTimeout)
	defer cancel()

	query := url.QueryEscape(fmt.Sprintf("conversation_id:%s", root.ConversationID))
	apiURL := fmt.Sprintf("%s/tweets/search/recent?query=%s&tweet.fields=created_at&max_results=50", c.baseURL, query)

	req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return root.Text
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return root.Text
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return root.Text
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return root.Text
	}
	if len(sr.Data) == 0 {
		return root.Text
	}

	tweets := sr.Data
	sort.Slice(tweets, func(i, j int) bool {
		return tweets[i].CreatedAt < tweets[j].CreatedAt
	})

	var parts []string
	for i, t := range tweets {
		parts = append(parts, fmt.Sprintf("%d. %s", i+1, t.Text))
	}
	return strings.Join(parts, "\n\n")
}

func reasonForStatus(status int) Reason {
	switch status {
	case http.StatusUnauthorized:
		return ReasonAuthFailed
	case http.StatusForbidden:
		return ReasonForbidden
	case http.StatusNotFound:
		return ReasonNotFound
	default:
		return ReasonUnknown
	}
}

func classifyTransportError(err error) *FetchError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &FetchError{Reason: ReasonTimeout}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{Reason: ReasonTimeout}
	}
	return &FetchError{Reason: ReasonUnknown, Body: err.Error()}
}
