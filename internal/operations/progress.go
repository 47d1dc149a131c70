package operations

import (
	"fmt"
	"sync"
	"time"
)

// ProgressTracker counts the items of a step (indicators scored, charts
// drawn) and mirrors the percentage onto the step state
type ProgressTracker struct {
	step      *StepState
	Total     int
	Current   int
	StartTime time.Time
	Message   string
	mu        sync.Mutex
}

// NewProgressTracker creates a new progress tracker. step may be nil.
func NewProgressTracker(step *StepState, total int) *ProgressTracker {
	return &ProgressTracker{
		step:      step,
		Total:     total,
		StartTime: time.Now(),
	}
}

// Increment increments the current progress by 1
func (p *ProgressTracker) Increment(message string) {
	p.mu.Lock()
	p.Current++
	p.Message = message
	p.mu.Unlock()

	if p.step != nil {
		_, _, pct, _ := p.GetProgress()
		p.step.UpdateProgress(pct, message)
	}
}

// GetProgress returns the current progress state
func (p *ProgressTracker) GetProgress() (current, total int, percentage float64, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Total > 0 {
		percentage = float64(p.Current) / float64(p.Total) * 100
	}
	return p.Current, p.Total, percentage, p.Message
}

// IsComplete returns true once every item was counted
func (p *ProgressTracker) IsComplete() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.Current >= p.Total
}

// Summary renders "current/total" with the elapsed time
func (p *ProgressTracker) Summary() string {
	current, total, _, _ := p.GetProgress()
	return fmt.Sprintf("%d/%d in %s", current, total, time.Since(p.StartTime).Round(time.Millisecond))
}
