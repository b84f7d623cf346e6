package util

import (
	"fmt"
	"sync"
	"time"

	"github.com/gosuri/uilive"
)

// ProgressPrinter repaints a single status line on a fixed interval.
// The trainer updates the line between episodes; the printer owns the
// terminal writer and the repaint goroutine.
type ProgressPrinter struct {
	frequency time.Duration
	doneCh    chan struct{}

	writer *uilive.Writer

	mu        sync.Mutex
	printable string
}

func NewProgressPrinter(frequency time.Duration) *ProgressPrinter {
	return &ProgressPrinter{
		frequency: frequency,
		doneCh:    make(chan struct{}),
		writer:    uilive.New(),
	}
}

func (p *ProgressPrinter) Start() {
	go func() {
		for {
			select {
			case <-p.doneCh:
				p.print()
				return
			case <-time.After(p.frequency):
				p.print()
			}
		}
	}()
}

func (p *ProgressPrinter) Stop() {
	close(p.doneCh)
}

// Set the status line (blocking)
func (p *ProgressPrinter) Set(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printable = s
}

func (p *ProgressPrinter) print() {
	p.mu.Lock()
	s := p.printable
	p.mu.Unlock()
	if s == "" {
		return
	}
	fmt.Fprintln(p.writer, s)
	p.writer.Flush()
}
