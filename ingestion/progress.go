package ingestion

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Progress reports IndexAll progress to a writer, one carriage-return line
// every interval records.
type Progress struct {
	writer   io.Writer
	interval int

	mu           sync.Mutex
	total        int
	done         int
	failed       int
	lastReported int
	start        time.Time
	now          func() time.Time
}

// NewProgress creates a reporter. An interval below 1 reports every record.
func NewProgress(writer io.Writer, interval int) *Progress {
	return &Progress{
		writer:   writer,
		interval: max(interval, 1),
		now:      time.Now,
	}
}

func (p *Progress) begin(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
	p.done = 0
	p.failed = 0
	p.lastReported = 0
	p.start = p.now()
}

func (p *Progress) record(failed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = min(p.done+1, p.total)
	if failed {
		p.failed++
	}
	if p.done-p.lastReported >= p.interval {
		p.report()
		p.lastReported = p.done
	}
}

func (p *Progress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.report()
	fmt.Fprintln(p.writer)
}

// report must be called with the lock held.
func (p *Progress) report() {
	rate := 0.0
	if elapsed := p.now().Sub(p.start).Seconds(); elapsed > 0 {
		rate = float64(p.done) / elapsed
	}
	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.done) / float64(p.total) * 100.0
	}
	fmt.Fprintf(p.writer, "\rIndexed %d/%d (%.1f%%), %d failed - %.1f records/s",
		p.done, p.total, percentage, p.failed, rate)
}
