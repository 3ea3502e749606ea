package output

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
)

// Progress redraws a single progress line as archives complete.
// A nil *Progress is valid and draws nothing.
type Progress struct {
	mu     sync.Mutex
	w      io.Writer
	bar    progress.Model
	label  string
	total  int
	done   int
	failed int
}

// NewProgress returns a progress line for total items written to w.
func NewProgress(w io.Writer, label string, total int) *Progress {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
	bar.ShowPercentage = true
	return &Progress{w: w, bar: bar, label: label, total: total}
}

// Step records one finished item and redraws.
func (p *Progress) Step(failed bool) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	if failed {
		p.failed++
	}
	pct := 1.0
	if p.total > 0 {
		pct = float64(p.done) / float64(p.total)
	}
	fmt.Fprintf(p.w, "\r%s %s %d/%d", p.label, p.bar.ViewAs(pct), p.done, p.total)
	if p.failed > 0 {
		fmt.Fprintf(p.w, " (%d failed)", p.failed)
	}
}

// Finish ends the progress line.
func (p *Progress) Finish() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w)
}

// counts returns the items seen so far.
func (p *Progress) counts() (done, failed int) {
	if p == nil {
		return 0, 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done, p.failed
}
