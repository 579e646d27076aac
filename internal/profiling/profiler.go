// Package profiling records how long each pipeline stage takes, one JSON
// line per measurement.
package profiling

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level determines how detailed the profiling is
type Level string

const (
	LevelOff      Level = "off"      // No profiling
	LevelMinimal  Level = "minimal"  // Whole documents and consolidation
	LevelDetailed Level = "detailed" // Individual passes included
)

// ParseLevel maps a config string to a Level. Empty means off.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case "", LevelOff:
		return LevelOff, nil
	case LevelMinimal, LevelDetailed:
		return Level(s), nil
	}
	return LevelOff, fmt.Errorf("unknown profiling level %q", s)
}

// StageTiming is a single timing measurement
type StageTiming struct {
	DocumentID string         `json:"document_id,omitempty"`
	Stage      string         `json:"stage"`
	Level      Level          `json:"level"`
	StartTime  time.Time      `json:"start_time"`
	DurationMs float64        `json:"duration_ms"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Profiler writes stage timings. A nil *Profiler is valid and records nothing.
type Profiler struct {
	level   Level
	mu      sync.Mutex
	closer  io.Closer
	encoder *json.Encoder
}

// New creates a profiler writing to w.
func New(level Level, w io.Writer) *Profiler {
	p := &Profiler{level: level}
	if level != LevelOff && w != nil {
		p.encoder = json.NewEncoder(w)
	}
	return p
}

// Open creates a profiler appending to the file at path. LevelOff opens
// nothing.
func Open(level Level, path string) (*Profiler, error) {
	if level == LevelOff || path == "" {
		return New(LevelOff, nil), nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open profiling log: %w", err)
	}
	p := New(level, f)
	p.closer = f
	return p, nil
}

// Close closes the profiler's log file, if it owns one.
func (p *Profiler) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closer != nil {
		err := p.closer.Close()
		p.closer = nil
		p.encoder = nil
		return err
	}
	return nil
}

// Start begins timing a stage and returns a function to call when done.
func (p *Profiler) Start(docID, stage string, level Level) func() {
	return p.StartWithMetadata(docID, stage, level, nil)
}

// StartWithMetadata begins timing a stage. metadata is read when the returned
// function runs, so callers may fill it in after starting.
func (p *Profiler) StartWithMetadata(docID, stage string, level Level, metadata map[string]any) func() {
	if !p.ShouldProfile(level) {
		return func() {}
	}

	start := time.Now()
	return func() {
		p.Record(StageTiming{
			DocumentID: docID,
			Stage:      stage,
			Level:      level,
			StartTime:  start,
			DurationMs: float64(time.Since(start).Nanoseconds()) / 1e6,
			Metadata:   metadata,
		})
	}
}

// Record writes one timing.
func (p *Profiler) Record(t StageTiming) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.encoder != nil {
		_ = p.encoder.Encode(t)
	}
}

// ShouldProfile returns true if measurements at level are recorded
func (p *Profiler) ShouldProfile(level Level) bool {
	if p == nil {
		return false
	}
	switch p.level {
	case LevelDetailed:
		return level == LevelMinimal || level == LevelDetailed
	case LevelMinimal:
		return level == LevelMinimal
	default:
		return false
	}
}

// Level returns the configured level.
func (p *Profiler) Level() Level {
	if p == nil {
		return LevelOff
	}
	return p.level
}
