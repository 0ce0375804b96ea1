package timing

import (
	"fmt"
	"log"
	"unicode/utf8"

	"github.com/konkon034034/jinsei-soudan/internal/config"
	"github.com/konkon034034/jinsei-soudan/internal/script"
	"github.com/konkon034034/jinsei-soudan/internal/speech"
)

// Window is one start/end interval on the video timeline. The same
// window drives the caption box and the speaker's character overlay.
type Window struct {
	Index   int            `json:"index"`
	Start   float64        `json:"start"`
	End     float64        `json:"end"`
	Speaker script.Speaker `json:"speaker"`
	Caption string         `json:"caption"`
	// Measured is false when the line's duration came from the
	// character-count estimate instead of the synthesized audio.
	Measured bool `json:"measured"`
}

// Duration returns the window length in seconds.
func (w Window) Duration() float64 {
	return w.End - w.Start
}

// Resolver turns script lines into a sequential, gap-separated
// timeline. Measured audio durations are authoritative; the
// character-count estimate is only used for lines whose synthesis was
// skipped, which is the main source of audio/subtitle drift.
type Resolver struct {
	cfg *config.Config
}

// New creates a Resolver.
func New(cfg *config.Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// Resolve builds one window per line. segments may be nil (estimated
// mode) or sparse (lines skipped during synthesis).
//
// Timeline construction: window[0].Start = 0, and every later window
// starts at the previous window's end plus the inter-line gap. Windows
// therefore never overlap within the caption track.
func (r *Resolver) Resolve(lines []script.Line, segments []speech.Segment) ([]Window, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("no lines to resolve")
	}

	byLine := make(map[int]speech.Segment, len(segments))
	for _, seg := range segments {
		byLine[seg.LineIndex] = seg
	}

	windows := make([]Window, 0, len(lines))
	cursor := 0.0
	estimated := 0

	for i, line := range lines {
		dur, measured := r.lineDuration(line, byLine)
		if !measured {
			estimated++
		}

		start := cursor
		if i > 0 {
			start += r.cfg.Timing.InterLineGap
		}

		windows = append(windows, Window{
			Index:    i,
			Start:    start,
			End:      start + dur,
			Speaker:  line.Speaker,
			Caption:  line.Text,
			Measured: measured,
		})
		cursor = start + dur
	}

	if estimated > 0 && r.cfg.Timing.Mode == "measured" {
		log.Printf("[timing] ⚠️  %d/%d line(s) fell back to estimated duration", estimated, len(lines))
	}
	log.Printf("[timing] ✅ %d windows, total %.1fs", len(windows), cursor)
	return windows, nil
}

// lineDuration prefers the measured segment duration whenever a
// segment exists for the line, regardless of the configured mode.
func (r *Resolver) lineDuration(line script.Line, byLine map[int]speech.Segment) (float64, bool) {
	if seg, ok := byLine[line.Index]; ok && seg.Duration > 0 {
		return seg.Duration, true
	}
	return r.Estimate(line.Text), false
}

// Estimate computes the character-count heuristic duration:
// runes * per_char_seconds + fixed_overhead. Systematically inaccurate
// because speech rate is not constant.
func (r *Resolver) Estimate(text string) float64 {
	return float64(utf8.RuneCountInString(text))*r.cfg.Timing.PerCharSeconds + r.cfg.Timing.FixedOverhead
}

// TotalDuration returns the end of the last window, or 0 for an empty
// timeline. The compositor uses this as the video duration when no
// combined audio track exists.
func TotalDuration(windows []Window) float64 {
	if len(windows) == 0 {
		return 0
	}
	return windows[len(windows)-1].End
}
