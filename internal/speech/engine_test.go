package speech

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/konkon034034/jinsei-soudan/internal/config"
	"github.com/konkon034034/jinsei-soudan/internal/script"
)

// fakeSynth fails for line texts listed in failOn and records call order.
type fakeSynth struct {
	failOn map[string]bool
	calls  []string
}

func (f *fakeSynth) Synthesize(_ context.Context, text string, _ config.VoiceProfile) ([]byte, error) {
	f.calls = append(f.calls, text)
	if f.failOn[text] {
		return nil, errors.New("provider error")
	}
	return []byte("audio:" + text), nil
}

func testEngine(t *testing.T, synth Synthesizer) *Engine {
	t.Helper()
	cfg := config.Default()
	ch := cfg.Channels[cfg.DefaultChannel]
	e := New(cfg, ch, synth)
	e.probe = func(string) (float64, error) { return 1.5, nil }
	e.sleep = func(time.Duration) {}
	return e
}

func makeLines(texts ...string) []script.Line {
	lines := make([]script.Line, len(texts))
	for i, text := range texts {
		sp := script.SpeakerConsulter
		if i%2 == 1 {
			sp = script.SpeakerAdvisor
		}
		lines[i] = script.Line{Index: i, Speaker: sp, Text: text}
	}
	return lines
}

func TestSynthesizeAllSkipsFailedLine(t *testing.T) {
	synth := &fakeSynth{failOn: map[string]bool{"line3": true}}
	e := testEngine(t, synth)
	lines := makeLines("line1", "line2", "line3", "line4", "line5")

	segments := e.synthesizeAll(context.Background(), lines, t.TempDir())

	if len(segments) != 4 {
		t.Fatalf("got %d segments, want 4", len(segments))
	}
	wantIndexes := []int{0, 1, 3, 4}
	for i, seg := range segments {
		if seg.LineIndex != wantIndexes[i] {
			t.Errorf("segment %d: line index %d, want %d", i, seg.LineIndex, wantIndexes[i])
		}
	}
}

func TestSynthesizeAllKeepsOriginalOrderAcrossBatches(t *testing.T) {
	synth := &fakeSynth{}
	e := testEngine(t, synth)
	e.cfg.Speech.BatchSize = 2
	lines := makeLines("a", "b", "c", "d", "e")

	segments := e.synthesizeAll(context.Background(), lines, t.TempDir())

	if len(segments) != 5 {
		t.Fatalf("got %d segments, want 5", len(segments))
	}
	for i, seg := range segments {
		if seg.LineIndex != i {
			t.Errorf("segment %d: line index %d, want %d", i, seg.LineIndex, i)
		}
	}
	// Batch boundaries must not reorder provider calls either.
	for i, call := range synth.calls {
		if call != lines[i].Text {
			t.Errorf("call %d was %q, want %q", i, call, lines[i].Text)
		}
	}
}

func TestRunFailsWhenNoLineSynthesizes(t *testing.T) {
	synth := &fakeSynth{failOn: map[string]bool{"x": true, "y": true}}
	e := testEngine(t, synth)

	_, _, err := e.Run(context.Background(), makeLines("x", "y"), t.TempDir())
	if !errors.Is(err, ErrNoAudio) {
		t.Fatalf("got err %v, want ErrNoAudio", err)
	}
}

func TestSynthesizeAllRateLimitSleeps(t *testing.T) {
	synth := &fakeSynth{}
	e := testEngine(t, synth)
	slept := 0
	e.sleep = func(time.Duration) { slept++ }

	e.synthesizeAll(context.Background(), makeLines("a", "b", "c"), t.TempDir())

	if slept != 2 {
		t.Errorf("slept %d times, want 2 (between each consecutive call)", slept)
	}
}

func TestVoiceForMapsSpeakersDeterministically(t *testing.T) {
	e := testEngine(t, &fakeSynth{})

	advisor := e.voiceFor(script.SpeakerAdvisor)
	consulter := e.voiceFor(script.SpeakerConsulter)

	if advisor != e.ch.AdvisorVoice {
		t.Errorf("advisor voice = %+v, want %+v", advisor, e.ch.AdvisorVoice)
	}
	if consulter != e.ch.ConsulterVoice {
		t.Errorf("consulter voice = %+v, want %+v", consulter, e.ch.ConsulterVoice)
	}
}
