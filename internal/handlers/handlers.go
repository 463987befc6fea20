package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/threadwise/threadwise/internal/analytics"
	"github.com/threadwise/threadwise/internal/classify"
	"github.com/threadwise/threadwise/internal/llm"
	"github.com/threadwise/threadwise/internal/postprocess"
	"github.com/threadwise/threadwise/internal/prompt"
	"github.com/threadwise/threadwise/internal/twitter"
)

const (
	defaultLength = "3 sentences"
	defaultTone   = "simple"
)

type summarizeRequest struct {
	ThreadURL string `json:"threadUrl"`
	RawText   string `json:"rawText"`
	Length    string `json:"length"`
	Tone      string `json:"tone"`
}

// summarizeHandler resolves input content, builds a prompt, calls the
// completion API, and post-processes the result.
func (s *Server) summarizeHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req summarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.ThreadURL = strings.TrimSpace(req.ThreadURL)
	req.RawText = strings.TrimSpace(req.RawText)
	if req.ThreadURL == "" && req.RawText == "" {
		writeError(w, http.StatusBadRequest, "Provide a thread URL or paste the text to summarize")
		return
	}
	if req.Length == "" {
		req.Length = defaultLength
	}
	if req.Tone == "" {
		req.Tone = defaultTone
	}

	content, isThread, contentLabel, resolveErr := s.resolveContent(ctx, req)
	if resolveErr != nil {
		status, message := fetchErrorStatus(resolveErr)
		writeError(w, status, message)
		return
	}

	analysis := classify.Analyze(content)
	instruction := prompt.Build(req.Tone, req.Length, content, isThread, analysis)

	raw, err := s.llm.Complete(ctx, instruction)
	if err != nil {
		s.recordSummarization(req.Tone, req.Length, contentLabel, false)
		status, message := upstreamErrorStatus(err)
		writeError(w, status, message)
		return
	}

	summary := postprocess.EnsureCompleteSentence(postprocess.Clean(raw, req.Tone))

	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})

	s.recordSummarization(req.Tone, req.Length, contentLabel, true)
	s.recordToneUsage(req.Tone)
}

// resolveContent turns the request into the text to summarize. Fetch
// failures degrade to pasted text whenever it is available.
func (s *Server) resolveContent(ctx context.Context, req summarizeRequest) (content string, isThread bool, contentLabel string, err error) {
	if req.ThreadURL != "" {
		text, fetchErr := s.fetcher.FetchThread(ctx, req.ThreadURL)
		if fetchErr == nil {
			return text, true, "thread_url", nil
		}
		if req.RawText == "" {
			return "", false, "", fetchErr
		}
		log.Printf("Thread fetch failed, falling back to pasted text url=%s err=%v", req.ThreadURL, fetchErr)
	}

	// Pasted text may itself embed thread URLs worth expanding.
	if urls := classify.ExtractThreadURLs(req.RawText); len(urls) > 0 {
		if text, fetchErr := s.fetcher.FetchMany(ctx, urls, twitter.DefaultMaxURLs); fetchErr == nil {
			return text, true, "thread_url", nil
		}
	}

	if classify.IsThreadLike(req.RawText) {
		return req.RawText, true, "twitter_text", nil
	}
	return req.RawText, false, classify.Analyze(req.RawText).ContentType, nil
}

type cryptoExplainRequest struct {
	Term string `json:"term"`
}

// cryptoExplainHandler explains a single crypto/web3 term.
func (s *Server) cryptoExplainHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req cryptoExplainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Term = strings.TrimSpace(req.Term)
	if req.Term == "" {
		writeError(w, http.StatusBadRequest, "Term is required")
		return
	}

	raw, err := s.llm.Complete(ctx, prompt.BuildTermExplanation(req.Term))
	if err != nil {
		status, message := upstreamErrorStatus(err)
		writeError(w, status, message)
		return
	}

	explanation := postprocess.EnsureCompleteSentence(postprocess.Clean(raw, ""))
	writeJSON(w, http.StatusOK, map[string]string{"explanation": explanation})
}

// trackVisitHandler records a site visit. Always success-shaped, even
// when the underlying write fails.
func (s *Server) trackVisitHandler(w http.ResponseWriter, r *http.Request) {
	browser, deviceType := analytics.ParseUserAgent(r.UserAgent())
	event := analytics.SiteVisitEvent{
		Timestamp:  time.Now(),
		HashedIP:   analytics.HashIP(clientIP(r)),
		Browser:    browser,
		DeviceType: deviceType,
	}

	if err := s.analytics.RecordVisit(r.Context(), event); err != nil {
		log.Printf("Error recording visit: %v", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

var dashboardTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head><title>Threadwise Analytics</title></head>
<body>
<h1>Threadwise Analytics</h1>
<h2>Tone usage</h2>
<table border="1">
<tr><th>Tone</th><th>Count</th></tr>
{{range $tone, $count := .ToneCounts}}<tr><td>{{$tone}}</td><td>{{$count}}</td></tr>
{{end}}</table>
<h2>Visits by date</h2>
<table border="1">
<tr><th>Date</th><th>Visits</th></tr>
{{range $date, $count := .VisitsByDate}}<tr><td>{{$date}}</td><td>{{$count}}</td></tr>
{{end}}</table>
<h2>Summarizations</h2>
<p>Successful: {{.Summarization.Success}} / Failed: {{.Summarization.Failure}}</p>
</body>
</html>
`))

// analyticsDashboardHandler renders aggregate counts as HTML.
func (s *Server) analyticsDashboardHandler(w http.ResponseWriter, r *http.Request) {
	totals, err := s.analytics.Totals(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not load analytics")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTemplate.Execute(w, totals); err != nil {
		log.Printf("Error rendering dashboard: %v", err)
	}
}

// initSheetsHandler idempotently ensures the spreadsheet header rows.
func (s *Server) initSheetsHandler(w http.ResponseWriter, r *http.Request) {
	if s.sheets == nil {
		writeError(w, http.StatusServiceUnavailable, "Google Sheets is not configured")
		return
	}

	if err := s.sheets.InitHeaders(r.Context()); err != nil {
		log.Printf("Error initializing sheet headers: %v", err)
		writeError(w, http.StatusBadGateway, "Could not initialize sheet headers")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Sheet headers ensured",
	})
}

// Analytics writes are best-effort: errors are logged server-side and
// never affect the response.

func (s *Server) recordSummarization(tone, length, contentType string, success bool) {
	event := analytics.SummarizationEvent{
		Tone:        tone,
		Length:      length,
		ContentType: contentType,
		Success:     success,
	}
	if err := s.analytics.RecordSummarization(context.Background(), event); err != nil {
		log.Printf("Error recording summarization event: %v", err)
	}
}

func (s *Server) recordToneUsage(tone string) {
	event := analytics.ToneUsageEvent{
		Tone: tone,
		Date: time.Now().UTC().Format("2006-01-02"),
	}
	if err := s.analytics.RecordToneUsage(context.Background(), event); err != nil {
		log.Printf("Error recording tone usage event: %v", err)
	}
}

// clientIP extracts the caller's IP from proxy headers, falling back to
// the connection address.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if idx := strings.Index(forwarded, ","); idx > 0 {
			return strings.TrimSpace(forwarded[:idx])
		}
		return strings.TrimSpace(forwarded)
	}
	if realIP := r.Header.Get("X-Real-Ip"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}

// fetchErrorStatus maps thread fetch failures to HTTP responses.
func fetchErrorStatus(err error) (int, string) {
	var fetchErr *twitter.FetchError
	if !errors.As(err, &fetchErr) {
		return http.StatusInternalServerError, "Something went wrong. Please try again."
	}

	switch fetchErr.Reason {
	case twitter.ReasonInvalidURL:
		return http.StatusBadRequest, "That doesn't look like a thread URL. Check the link or paste the text instead."
	case twitter.ReasonTimeout:
		return http.StatusGatewayTimeout, "Fetching the thread took too long. Please paste the text manually."
	default:
		return http.StatusBadGateway, "Couldn't fetch the thread. Please paste the text manually."
	}
}

// upstreamErrorStatus maps completion API failures to HTTP responses.
// Rate-limit and billing failures are deliberately masked.
func upstreamErrorStatus(err error) (int, string) {
	var upErr *llm.UpstreamError
	if !errors.As(err, &upErr) {
		return http.StatusInternalServerError, "Something went wrong. Please try again."
	}

	if upErr.RateLimited() {
		return http.StatusServiceUnavailable, llm.MaintenanceMessage
	}

	switch upErr.Kind {
	case llm.KindTimeout:
		return http.StatusGatewayTimeout, "The summarizer took too long to respond. Please try again."
	default:
		return http.StatusBadGateway, "The summarizer is having trouble right now. Please try again shortly."
	}
}
