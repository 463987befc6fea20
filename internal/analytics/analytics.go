package analytics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Sheet tab names in the backing spreadsheet.
const (
	SheetToneUsage = "ToneUsage"
	SheetVisits    = "Visits"
	SheetSummaries = "Summaries"
)

// ToneUsageEvent records one use of a tone on a given date.
type ToneUsageEvent struct {
	Tone string
	Date string // YYYY-MM-DD
}

// SiteVisitEvent records a page visit. The IP is hashed before it ever
// reaches this struct.
type SiteVisitEvent struct {
	Timestamp  time.Time
	HashedIP   string
	Browser    string
	DeviceType string
}

// SummarizationEvent records one summarization attempt.
type SummarizationEvent struct {
	Tone        string
	Length      string
	ContentType string
	Success     bool
}

// Sink accepts analytics events. Implementations are best-effort: a
// returned error is logged by the caller and never surfaced to users.
type Sink interface {
	RecordToneUsage(ctx context.Context, event ToneUsageEvent) error
	RecordVisit(ctx context.Context, event SiteVisitEvent) error
	RecordSummarization(ctx context.Context, event SummarizationEvent) error
	Totals(ctx context.Context) (*Totals, error)
}

// Totals aggregates counts for the dashboard. Reads are not
// transactionally consistent with concurrent writes.
type Totals struct {
	ToneCounts    map[string]int // tone -> count
	VisitsByDate  map[string]int // date -> count
	Summarization struct {
		Success int
		Failure int
	}
}

// HashIP returns a short SHA-256 digest of the client IP so raw
// addresses are never stored.
func HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])[:16]
}

// ParseUserAgent derives a coarse browser family and device type from a
// User-Agent header. Heuristic only.
func ParseUserAgent(ua string) (browser, deviceType string) {
	lower := strings.ToLower(ua)

	switch {
	case strings.Contains(lower, "edg/"):
		browser = "edge"
	case strings.Contains(lower, "firefox"):
		browser = "firefox"
	case strings.Contains(lower, "chrome"):
		browser = "chrome"
	case strings.Contains(lower, "safari"):
		browser = "safari"
	case ua == "":
		browser = "unknown"
	default:
		browser = "other"
	}

	switch {
	case strings.Contains(lower, "ipad") || strings.Contains(lower, "tablet"):
		deviceType = "tablet"
	case strings.Contains(lower, "mobi") || strings.Contains(lower, "android") || strings.Contains(lower, "iphone"):
		deviceType = "mobile"
	case ua == "":
		deviceType = "unknown"
	default:
		deviceType = "desktop"
	}
	return browser, deviceType
}
