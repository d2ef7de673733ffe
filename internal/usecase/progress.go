package usecase

import (
	"sync"
	"time"
)

// Progress tracks a running download for the status surface. All methods are
// safe for concurrent use.
type Progress struct {
	mu       sync.Mutex
	symbol   string
	total    int
	done     int
	attempt  int
	failed   int
	started  time.Time
	finished bool
}

// Snapshot is a point-in-time copy of the tracker.
type Snapshot struct {
	Symbol   string    `json:"symbol"`
	Total    int       `json:"total_hours"`
	Done     int       `json:"done_hours"`
	Attempt  int       `json:"retry_attempt"`
	Failed   int       `json:"permanent_failures"`
	Started  time.Time `json:"started"`
	Finished bool      `json:"finished"`
}

func NewProgress() *Progress {
	return &Progress{}
}

// Begin resets the tracker for a new symbol run.
func (p *Progress) Begin(symbol string, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.symbol = symbol
	p.total = total
	p.done = 0
	p.attempt = 0
	p.failed = 0
	p.started = time.Now()
	p.finished = false
}

// MarkDone counts one terminally handled hour (stored or no-data).
func (p *Progress) MarkDone() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
}

// SetAttempt records the current retry attempt.
func (p *Progress) SetAttempt(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempt = n
}

// Finish closes out the run with its permanent failure count.
func (p *Progress) Finish(failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed = failed
	p.finished = true
}

// Get returns a snapshot.
func (p *Progress) Get() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		Symbol:   p.symbol,
		Total:    p.total,
		Done:     p.done,
		Attempt:  p.attempt,
		Failed:   p.failed,
		Started:  p.started,
		Finished: p.finished,
	}
}
