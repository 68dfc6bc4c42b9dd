package httpadapter

import (
	"sync"
	"time"

	"github.com/qwed-ai/responseguard/internal/verify"
)

// DefaultHistorySize bounds the in-memory record when no size is given.
const DefaultHistorySize = 1000

// Record is one remembered verification outcome. The response itself is
// not retained.
type Record struct {
	ID           string    `json:"id"`
	Verified     bool      `json:"verified"`
	Blocked      bool      `json:"blocked"`
	GuardsPassed int       `json:"guards_passed"`
	GuardsFailed int       `json:"guards_failed"`
	BlockReason  string    `json:"block_reason,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Summary aggregates the retained history.
type Summary struct {
	Total       int     `json:"total"`
	Passed      int     `json:"passed"`
	Failed      int     `json:"failed"`
	Blocked     int     `json:"blocked"`
	SuccessRate float64 `json:"success_rate"`
}

// History is a fixed-size ring of verification records. Safe for
// concurrent use.
type History struct {
	mu      sync.Mutex
	records []Record
	next    int
	full    bool

	total   int
	passed  int
	blocked int
}

// NewHistory builds a ring holding the last size records. A non-positive
// size gets DefaultHistorySize.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{records: make([]Record, size)}
}

// Add records one result. Counters cover the whole lifetime, the ring only
// the most recent entries.
func (h *History) Add(result verify.Result) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records[h.next] = Record{
		ID:           result.ID,
		Verified:     result.Verified,
		Blocked:      result.Blocked,
		GuardsPassed: result.GuardsPassed,
		GuardsFailed: result.GuardsFailed,
		BlockReason:  result.BlockReason,
		Timestamp:    result.Timestamp,
	}
	h.next = (h.next + 1) % len(h.records)
	if h.next == 0 {
		h.full = true
	}

	h.total++
	if result.Verified {
		h.passed++
	}
	if result.Blocked {
		h.blocked++
	}
}

// Recent returns up to n records, newest first.
func (h *History) Recent(n int) []Record {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	size := h.next
	if h.full {
		size = len(h.records)
	}
	if n > size {
		n = size
	}

	out := make([]Record, 0, n)
	for i := 1; i <= n; i++ {
		idx := (h.next - i + len(h.records)) % len(h.records)
		out = append(out, h.records[idx])
	}
	return out
}

// Summarize reports lifetime totals and the overall success rate.
func (h *History) Summarize() Summary {
	if h == nil {
		return Summary{}
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	s := Summary{
		Total:   h.total,
		Passed:  h.passed,
		Failed:  h.total - h.passed,
		Blocked: h.blocked,
	}
	if s.Total > 0 {
		s.SuccessRate = float64(s.Passed) / float64(s.Total)
	}
	return s
}
