package ui

import (
	"sync"
	"time"
)

// ProgressTracker holds progress state for the current stage.
// It is safe for concurrent use.
type ProgressTracker struct {
	mu         sync.RWMutex
	stage      Stage
	current    int
	total      int
	item       string
	startTime  time.Time
	stageStart time.Time
	errors     int
	warnings   int
	lastErr    string
}

// ProgressStats contains a snapshot of current progress.
type ProgressStats struct {
	Stage      Stage
	Current    int
	Total      int
	Progress   float64
	Rate       float64
	ETA        time.Duration
	Elapsed    time.Duration
	Item       string
	ErrorCount int
	WarnCount  int
	LastError  string
}

// NewProgressTracker creates a new progress tracker.
func NewProgressTracker() *ProgressTracker {
	now := time.Now()
	return &ProgressTracker{
		stage:      StageIndexing,
		startTime:  now,
		stageStart: now,
	}
}

// SetStage transitions to a new stage.
func (p *ProgressTracker) SetStage(stage Stage, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stage = stage
	p.total = total
	p.current = 0
	p.item = ""
	p.stageStart = time.Now()
}

// Update updates progress within the current stage.
func (p *ProgressTracker) Update(current int, item string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = current
	if item != "" {
		p.item = item
	}
}

// AddError records an error or warning.
func (p *ProgressTracker) AddError(event ErrorEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if event.IsWarn {
		p.warnings++
	} else {
		p.errors++
	}
	if event.Err != nil {
		p.lastErr = event.Err.Error()
	}
}

// Stats returns a snapshot of the tracker.
func (p *ProgressTracker) Stats() ProgressStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	stats := ProgressStats{
		Stage:      p.stage,
		Current:    p.current,
		Total:      p.total,
		Elapsed:    time.Since(p.startTime),
		Item:       p.item,
		ErrorCount: p.errors,
		WarnCount:  p.warnings,
		LastError:  p.lastErr,
	}

	if p.total > 0 {
		stats.Progress = float64(p.current) / float64(p.total)
		if stats.Progress > 1 {
			stats.Progress = 1
		}
	}

	inStage := time.Since(p.stageStart)
	if p.current > 0 && inStage > 0 {
		stats.Rate = float64(p.current) / inStage.Seconds()
		if remaining := p.total - p.current; remaining > 0 && stats.Rate > 0 {
			stats.ETA = time.Duration(float64(remaining) / stats.Rate * float64(time.Second))
		}
	}

	return stats
}
