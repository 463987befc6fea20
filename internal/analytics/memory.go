package analytics

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	counterRetention = 30 * 24 * time.Hour
	cleanupInterval  = time.Hour

	// pending rows waiting for the next Sheets flush are capped so a
	// long Sheets outage cannot grow memory without bound
	maxPendingRows = 1000
)

// Row is one spreadsheet row waiting to be flushed.
type Row struct {
	Sheet  string
	Values []interface{}
}

// Memory is the in-process analytics sink. Counters live in an
// expiring cache keyed by date; raw rows are buffered for the periodic
// Sheets flush when one is configured.
type Memory struct {
	counters *gocache.Cache

	mu      sync.Mutex
	pending []Row
}

// NewMemory creates a new in-memory analytics sink
func NewMemory() *Memory {
	return &Memory{
		counters: gocache.New(counterRetention, cleanupInterval),
	}
}

func (m *Memory) RecordToneUsage(ctx context.Context, event ToneUsageEvent) error {
	m.increment(fmt.Sprintf("tone|%s|%s", event.Tone, event.Date))
	m.buffer(Row{
		Sheet:  SheetToneUsage,
		Values: []interface{}{event.Date, event.Tone},
	})
	return nil
}

func (m *Memory) RecordVisit(ctx context.Context, event SiteVisitEvent) error {
	date := event.Timestamp.UTC().Format("2006-01-02")
	m.increment("visits|" + date)
	m.buffer(Row{
		Sheet: SheetVisits,
		Values: []interface{}{
			event.Timestamp.UTC().Format(time.RFC3339),
			event.HashedIP,
			event.Browser,
			event.DeviceType,
		},
	})
	return nil
}

func (m *Memory) RecordSummarization(ctx context.Context, event SummarizationEvent) error {
	outcome := "failure"
	if event.Success {
		outcome = "success"
	}
	m.increment("summaries|" + outcome)
	m.buffer(Row{
		Sheet: SheetSummaries,
		Values: []interface{}{
			time.Now().UTC().Format("2006-01-02"),
			event.Tone,
			event.Length,
			event.ContentType,
			strconv.FormatBool(event.Success),
		},
	})
	return nil
}

// Totals aggregates the current counters.
func (m *Memory) Totals(ctx context.Context) (*Totals, error) {
	totals := &Totals{
		ToneCounts:   make(map[string]int),
		VisitsByDate: make(map[string]int),
	}
	for key, item := range m.counters.Items() {
		count, ok := item.Object.(int)
		if !ok {
			continue
		}
		parts := strings.Split(key, "|")
		switch parts[0] {
		case "tone":
			if len(parts) == 3 {
				totals.ToneCounts[parts[1]] += count
			}
		case "visits":
			if len(parts) == 2 {
				totals.VisitsByDate[parts[1]] += count
			}
		case "summaries":
			if len(parts) == 2 && parts[1] == "success" {
				totals.Summarization.Success += count
			} else if len(parts) == 2 {
				totals.Summarization.Failure += count
			}
		}
	}
	return totals, nil
}

// DrainPending removes and returns all buffered rows. Called by the
// flush scheduler.
func (m *Memory) DrainPending() []Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.pending
	m.pending = nil
	return rows
}

// Requeue puts rows back at the front of the buffer after a failed
// flush, subject to the pending cap.
func (m *Memory) Requeue(rows []Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(rows, m.pending...)
	if len(m.pending) > maxPendingRows {
		m.pending = m.pending[:maxPendingRows]
	}
}

func (m *Memory) increment(key string) {
	m.counters.Add(key, 0, counterRetention) // no-op when the key exists
	m.counters.IncrementInt(key, 1)
}

func (m *Memory) buffer(row Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) >= maxPendingRows {
		// drop oldest; analytics are best-effort
		m.pending = m.pending[1:]
	}
	m.pending = append(m.pending, row)
}
