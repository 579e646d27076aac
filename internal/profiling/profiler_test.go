package profiling

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// readTimings decodes every recorded timing.
func readTimings(t *testing.T, data []byte) []StageTiming {
	t.Helper()
	var timings []StageTiming
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var st StageTiming
		if err := dec.Decode(&st); err != nil {
			t.Fatalf("decode timing: %v", err)
		}
		timings = append(timings, st)
	}
	return timings
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"", LevelOff, false},
		{"off", LevelOff, false},
		{"minimal", LevelMinimal, false},
		{"detailed", LevelDetailed, false},
		{"trace", LevelOff, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestShouldProfile(t *testing.T) {
	tests := []struct {
		level    Level
		minimal  bool
		detailed bool
	}{
		{LevelOff, false, false},
		{LevelMinimal, true, false},
		{LevelDetailed, true, true},
	}
	for _, tt := range tests {
		p := New(tt.level, &bytes.Buffer{})
		if got := p.ShouldProfile(LevelMinimal); got != tt.minimal {
			t.Errorf("%s: ShouldProfile(minimal) = %v", tt.level, got)
		}
		if got := p.ShouldProfile(LevelDetailed); got != tt.detailed {
			t.Errorf("%s: ShouldProfile(detailed) = %v", tt.level, got)
		}
	}
}

func TestNilProfiler(t *testing.T) {
	var p *Profiler
	p.Start("doc", "parse", LevelMinimal)()
	if p.ShouldProfile(LevelMinimal) {
		t.Error("nil profiler should not profile")
	}
	if p.Level() != LevelOff {
		t.Errorf("Level() = %q, want off", p.Level())
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestStartRecords(t *testing.T) {
	var buf bytes.Buffer
	p := New(LevelDetailed, &buf)

	meta := map[string]any{}
	done := p.StartWithMetadata("ch1", "census", LevelDetailed, meta)
	meta["entities"] = 3
	done()
	p.Start("ch1", "document", LevelMinimal)()

	timings := readTimings(t, buf.Bytes())
	if len(timings) != 2 {
		t.Fatalf("got %d timings, want 2", len(timings))
	}
	if timings[0].DocumentID != "ch1" || timings[0].Stage != "census" {
		t.Errorf("first timing = %+v", timings[0])
	}
	if timings[0].Metadata["entities"] != float64(3) {
		t.Errorf("metadata = %v, want entities=3", timings[0].Metadata)
	}
	if timings[0].DurationMs < 0 {
		t.Errorf("negative duration %v", timings[0].DurationMs)
	}
	if timings[1].Level != LevelMinimal {
		t.Errorf("second timing level = %q", timings[1].Level)
	}
}

func TestMinimalSkipsDetailed(t *testing.T) {
	var buf bytes.Buffer
	p := New(LevelMinimal, &buf)

	p.Start("ch1", "parse", LevelDetailed)()
	p.Start("ch1", "document", LevelMinimal)()

	timings := readTimings(t, buf.Bytes())
	if len(timings) != 1 || timings[0].Stage != "document" {
		t.Fatalf("timings = %+v, want only document", timings)
	}
}

func TestOpenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.jsonl")

	for i := 0; i < 2; i++ {
		p, err := Open(LevelMinimal, path)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		p.Start("ch1", "document", LevelMinimal)()
		if err := p.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n := len(readTimings(t, data)); n != 2 {
		t.Errorf("got %d timings, want 2", n)
	}
}

func TestOpenOffCreatesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.jsonl")
	p, err := Open(LevelOff, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	p.Start("ch1", "document", LevelMinimal)()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected no file, stat err = %v", err)
	}
}
