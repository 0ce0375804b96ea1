package speech

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/konkon034034/jinsei-soudan/internal/config"
	"github.com/konkon034034/jinsei-soudan/internal/script"
)

// ErrNoAudio is returned when not a single line synthesized. The
// pipeline treats this as fatal; anything less is a skip.
var ErrNoAudio = fmt.Errorf("no lines produced audio")

// Engine drives per-line synthesis and assembles the combined
// narration track.
type Engine struct {
	cfg   *config.Config
	ch    config.ChannelConfig
	synth Synthesizer

	// Injectable for tests.
	probe func(path string) (float64, error)
	sleep func(d time.Duration)
}

// New creates an Engine for one channel's voice profiles.
func New(cfg *config.Config, ch config.ChannelConfig, synth Synthesizer) *Engine {
	return &Engine{
		cfg:   cfg,
		ch:    ch,
		synth: synth,
		probe: probeDuration,
		sleep: time.Sleep,
	}
}

// voiceFor maps a speaker role onto its fixed voice profile.
func (e *Engine) voiceFor(sp script.Speaker) config.VoiceProfile {
	if sp == script.SpeakerAdvisor {
		return e.ch.AdvisorVoice
	}
	return e.ch.ConsulterVoice
}

// Run synthesizes every line into audioDir and concatenates the
// results into one narration track. Lines are processed in batches of
// speech.batch_size to keep the provider's voice timbre consistent;
// batch boundaries only group calls and never alter segment order. A
// failed line is logged and skipped; Run fails only when every line
// failed.
func (e *Engine) Run(ctx context.Context, lines []script.Line, audioDir string) ([]Segment, string, error) {
	log.Printf("[speech] Synthesizing %d line(s)...", len(lines))

	if err := os.MkdirAll(audioDir, 0755); err != nil {
		return nil, "", fmt.Errorf("create audio dir: %w", err)
	}

	segments := e.synthesizeAll(ctx, lines, audioDir)
	if len(segments) == 0 {
		return nil, "", ErrNoAudio
	}
	if len(segments) < len(lines) {
		log.Printf("[speech] ⚠️  %d line(s) skipped after synthesis failure", len(lines)-len(segments))
	}

	combined := filepath.Join(audioDir, "narration.mp3")
	if err := e.concat(ctx, segments, audioDir, combined); err != nil {
		return nil, "", fmt.Errorf("concatenate narration: %w", err)
	}

	total := 0.0
	for _, s := range segments {
		total += s.Duration
	}
	log.Printf("[speech] ✅ %d segment(s), %.1fs of speech → %s", len(segments), total, combined)
	return segments, combined, nil
}

// synthesizeAll produces one persisted segment per successful line,
// in original order, with the mandatory rate-limit sleep between
// provider calls.
func (e *Engine) synthesizeAll(ctx context.Context, lines []script.Line, audioDir string) []Segment {
	batchSize := e.cfg.Speech.BatchSize
	if batchSize <= 0 {
		batchSize = len(lines)
	}

	var segments []Segment
	for start := 0; start < len(lines); start += batchSize {
		end := start + batchSize
		if end > len(lines) {
			end = len(lines)
		}
		if len(lines) > batchSize {
			log.Printf("[speech] Batch %d–%d of %d", start+1, end, len(lines))
		}

		for _, line := range lines[start:end] {
			if line.Index > 0 {
				e.sleep(time.Duration(e.cfg.Speech.RateLimitSleepMS) * time.Millisecond)
			}

			seg, err := e.synthesizeLine(ctx, line, audioDir)
			if err != nil {
				log.Printf("[speech] ⚠️  Line %d (%s) failed: %v — skipping", line.Index, line.Speaker, err)
				continue
			}
			segments = append(segments, seg)
		}
	}
	return segments
}

func (e *Engine) synthesizeLine(ctx context.Context, line script.Line, audioDir string) (Segment, error) {
	audio, err := e.synth.Synthesize(ctx, line.Text, e.voiceFor(line.Speaker))
	if err != nil {
		return Segment{}, err
	}

	path := filepath.Join(audioDir, fmt.Sprintf("line_%04d.mp3", line.Index))
	if err := os.WriteFile(path, audio, 0644); err != nil {
		return Segment{}, fmt.Errorf("write segment: %w", err)
	}

	dur, err := e.probe(path)
	if err != nil {
		log.Printf("[speech] ⚠️  Could not measure line %d, timing will fall back to estimate: %v", line.Index, err)
		dur = 0
	}

	return Segment{
		LineIndex:  line.Index,
		Path:       path,
		Duration:   dur,
		SampleRate: e.cfg.Speech.SampleRate,
		Channels:   1,
	}, nil
}

// concat joins the segments with a fixed inter-line silence. The
// silence duration equals the timing resolver's gap so the caption
// timeline and the audio track share one clock. Skipped lines are
// absent here while their caption windows keep an estimated duration,
// so each skip shifts later captions ahead of the audio by that
// estimate plus one gap; no placeholder silence is inserted for them.
func (e *Engine) concat(ctx context.Context, segments []Segment, audioDir, outFile string) error {
	silence, err := e.makeSilence(ctx, audioDir)
	if err != nil {
		return err
	}

	listFile := filepath.Join(audioDir, "concat_list.txt")
	var lines []string
	for i, seg := range segments {
		if i > 0 {
			lines = append(lines, fmt.Sprintf("file '%s'", silence))
		}
		lines = append(lines, fmt.Sprintf("file '%s'", seg.Path))
	}
	if err := os.WriteFile(listFile, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c:a", "libmp3lame",
		"-q:a", "2",
		outFile,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg concat: %w", err)
	}
	return nil
}

// makeSilence renders one reusable inter-line silence clip matching
// the segment sample rate.
func (e *Engine) makeSilence(ctx context.Context, audioDir string) (string, error) {
	path := filepath.Join(audioDir, "silence.mp3")
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("anullsrc=r=%d:cl=mono", e.cfg.Speech.SampleRate),
		"-t", fmt.Sprintf("%.3f", e.cfg.Timing.InterLineGap),
		"-c:a", "libmp3lame",
		"-q:a", "2",
		path,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("render silence clip: %w", err)
	}
	return path, nil
}

// probeDuration reads an audio file's duration via ffprobe.
func probeDuration(path string) (float64, error) {
	out, err := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, err
	}
	var dur float64
	_, err = fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &dur)
	return dur, err
}
