package timing

import (
	"math"
	"testing"

	"github.com/konkon034034/jinsei-soudan/internal/config"
	"github.com/konkon034034/jinsei-soudan/internal/script"
	"github.com/konkon034034/jinsei-soudan/internal/speech"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Timing.PerCharSeconds = 0.2
	cfg.Timing.FixedOverhead = 0.5
	cfg.Timing.InterLineGap = 0.5
	return cfg
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestResolveOneWindowPerLine(t *testing.T) {
	r := New(testConfig())
	lines := []script.Line{
		{Index: 0, Speaker: script.SpeakerConsulter, Text: "夫のことで悩んでいます"},
		{Index: 1, Speaker: script.SpeakerAdvisor, Text: "ゆっくりお話しください"},
		{Index: 2, Speaker: script.SpeakerConsulter, Text: "ありがとうございます"},
	}

	windows, err := r.Resolve(lines, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(windows) != len(lines) {
		t.Fatalf("got %d windows, want %d", len(windows), len(lines))
	}
	if !approx(windows[0].Start, 0) {
		t.Errorf("first window start = %v, want 0", windows[0].Start)
	}
	for i := 1; i < len(windows); i++ {
		wantStart := windows[i-1].End + 0.5
		if !approx(windows[i].Start, wantStart) {
			t.Errorf("window %d start = %v, want prior end + gap = %v", i, windows[i].Start, wantStart)
		}
		if windows[i].Start < windows[i-1].End {
			t.Errorf("window %d overlaps window %d", i, i-1)
		}
	}
}

func TestMeasuredModeTimeline(t *testing.T) {
	// A 2000ms segment with a 300ms gap, preceded by a line ending at
	// t=1.0s, must start at 1.0, end at 3.0, and push the next start
	// to 3.3.
	cfg := testConfig()
	cfg.Timing.InterLineGap = 0.3
	r := New(cfg)

	lines := []script.Line{
		{Index: 0, Speaker: script.SpeakerConsulter, Text: "一行目"},
		{Index: 1, Speaker: script.SpeakerAdvisor, Text: "二行目"},
		{Index: 2, Speaker: script.SpeakerConsulter, Text: "三行目"},
	}
	segments := []speech.Segment{
		{LineIndex: 0, Duration: 0.7},
		{LineIndex: 1, Duration: 2.0},
		{LineIndex: 2, Duration: 1.0},
	}

	windows, err := r.Resolve(lines, segments)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !approx(windows[0].End, 0.7) {
		t.Fatalf("window 0 end = %v, want 0.7", windows[0].End)
	}
	if !approx(windows[1].Start, 1.0) || !approx(windows[1].End, 3.0) {
		t.Errorf("window 1 = [%v, %v], want [1.0, 3.0]", windows[1].Start, windows[1].End)
	}
	if !approx(windows[2].Start, 3.3) {
		t.Errorf("window 2 start = %v, want 3.3", windows[2].Start)
	}
}

func TestEstimateTenCharLine(t *testing.T) {
	r := New(testConfig())
	// 10 runes * 0.2 + 0.5 = 2.5
	got := r.Estimate("あいうえおかきくけこ")
	if !approx(got, 2.5) {
		t.Errorf("Estimate = %v, want 2.5", got)
	}
}

func TestMeasuredAuthoritativeOverEstimate(t *testing.T) {
	r := New(testConfig())
	lines := []script.Line{
		{Index: 0, Speaker: script.SpeakerConsulter, Text: "あいうえおかきくけこ"},
		{Index: 1, Speaker: script.SpeakerAdvisor, Text: "あいうえおかきくけこ"},
	}
	// Only line 1 has a segment; line 0 falls back to the estimate.
	segments := []speech.Segment{{LineIndex: 1, Duration: 4.2}}

	windows, err := r.Resolve(lines, segments)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if windows[0].Measured {
		t.Error("window 0 should be estimated")
	}
	if !approx(windows[0].Duration(), 2.5) {
		t.Errorf("window 0 duration = %v, want estimated 2.5", windows[0].Duration())
	}
	if !windows[1].Measured {
		t.Error("window 1 should be measured")
	}
	if !approx(windows[1].Duration(), 4.2) {
		t.Errorf("window 1 duration = %v, want measured 4.2", windows[1].Duration())
	}
}

func TestResolveEmptyLines(t *testing.T) {
	if _, err := New(testConfig()).Resolve(nil, nil); err == nil {
		t.Error("expected error for empty line sequence")
	}
}

func TestTotalDuration(t *testing.T) {
	if got := TotalDuration(nil); got != 0 {
		t.Errorf("TotalDuration(nil) = %v, want 0", got)
	}
	windows := []Window{{Start: 0, End: 2}, {Start: 2.5, End: 5.5}}
	if got := TotalDuration(windows); !approx(got, 5.5) {
		t.Errorf("TotalDuration = %v, want 5.5", got)
	}
}
