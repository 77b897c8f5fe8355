// Package progressbar implements functionality of printing a progress
// bar to a terminal
package progressbar

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ProgressBar implements progress bar functionality that must be
// manually managed. That is, the Display() function must be called
// whenever an updated progress bar should be printed.
//
// ProgressBar is not safe for concurrent use.
type ProgressBar struct {
	out             io.Writer
	width           int
	maxProgress     int
	currentProgress int
	bar             strings.Builder
	startTime       time.Time
}

// New returns a new ProgressBar that is width characters wide, writes
// to out and reaches 100% after max steps of progress
func New(out io.Writer, width, max int) *ProgressBar {
	if max < 1 {
		max = 1
	}
	return &ProgressBar{
		out:         out,
		width:       width,
		maxProgress: max,
		startTime:   time.Now(),
	}
}

// Increment increments the internal progress counter. Each time an
// iteration is performed, Increment should be called.
func (p *ProgressBar) Increment() {
	p.Set(p.currentProgress + 1)
}

// Set sets the internal progress counter, saturating at the maximum
func (p *ProgressBar) Set(progress int) {
	switch {
	case progress > p.maxProgress:
		p.currentProgress = p.maxProgress
	case progress < 0:
		p.currentProgress = 0
	default:
		p.currentProgress = progress
	}
}

// Fraction returns the fraction of progress completed
func (p *ProgressBar) Fraction() float64 {
	return float64(p.currentProgress) / float64(p.maxProgress)
}

// String returns the progress bar as a single line
func (p *ProgressBar) String() string {
	p.bar.Reset()
	p.bar.WriteString("|")

	filled := int(p.Fraction() * float64(p.width))
	p.bar.WriteString(strings.Repeat("█", filled))
	p.bar.WriteString(strings.Repeat(" ", p.width-filled))

	fmt.Fprintf(&p.bar, "| [%.2f%% | elapsed: %v]", p.Fraction()*100,
		time.Since(p.startTime).Truncate(time.Second))
	return p.bar.String()
}

// Display redraws the progress bar on the current line
func (p *ProgressBar) Display() {
	fmt.Fprintf(p.out, "\r\033[K%v", p)
}

// Close finishes the progress bar by moving to the next line
func (p *ProgressBar) Close() {
	fmt.Fprintln(p.out)
}
