package compositor

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/konkon034034/jinsei-soudan/internal/config"
	"github.com/konkon034034/jinsei-soudan/internal/script"
)

// Renderer turns a Plan into the final MP4 via ffmpeg.
type Renderer struct {
	cfg *config.Config
}

// NewRenderer creates a Renderer.
func NewRenderer(cfg *config.Config) *Renderer {
	return &Renderer{cfg: cfg}
}

// Render composites all plan layers into outputDir/final_video.mp4.
// Layer order back to front: background, character overlays, burned
// captions. The output is cut to the plan duration, which equals the
// narration track's timeline.
func (r *Renderer) Render(ctx context.Context, plan *Plan, outputDir string) (string, error) {
	log.Println("[render] Compositing final video...")

	if plan.NarrationPath == "" {
		return "", fmt.Errorf("plan has no narration track")
	}

	assFile := filepath.Join(outputDir, "captions.ass")
	haveCaptions := len(plan.Captions) > 0
	if haveCaptions {
		if err := writeASS(r.cfg, plan.Captions, assFile); err != nil {
			log.Printf("[render] ⚠️  Caption file failed: %v — rendering without captions", err)
			haveCaptions = false
		}
	}

	args, filter := r.buildGraph(plan, assFile, haveCaptions)

	outFile := filepath.Join(outputDir, "final_video.mp4")
	args = append(args,
		"-filter_complex", filter,
		"-map", "[vout]",
		"-map", "[aout]",
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "22",
		"-pix_fmt", "yuv420p",
		"-r", fmt.Sprintf("%d", plan.FPS),
		"-c:a", "aac",
		"-b:a", "192k",
		"-t", fmt.Sprintf("%.3f", plan.Duration),
		"-movflags", "+faststart",
		outFile,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", append([]string{"-y"}, args...)...)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg render: %w", err)
	}

	log.Printf("[render] ✅ Final video: %s (%.1fs)", outFile, plan.Duration)
	return outFile, nil
}

// buildGraph assembles the ffmpeg inputs and filter_complex for the
// plan. Returns the input args (without -filter_complex) and the
// filter string producing [vout] and [aout].
func (r *Renderer) buildGraph(plan *Plan, assFile string, haveCaptions bool) ([]string, string) {
	var args []string
	var filters []string
	inputIdx := 0

	// Input 0: background (still image looped, or solid color).
	if plan.BackgroundPath != "" {
		args = append(args, "-loop", "1", "-i", plan.BackgroundPath)
		filters = append(filters, fmt.Sprintf(
			"[0:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1[bg]",
			plan.Width, plan.Height, plan.Width, plan.Height))
	} else {
		args = append(args, "-f", "lavfi", "-i", fmt.Sprintf(
			"color=c=%s:s=%dx%d:r=%d", plan.BackgroundColor, plan.Width, plan.Height, plan.FPS))
		filters = append(filters, "[0:v]setsar=1[bg]")
	}
	inputIdx++

	// One input per speaker with art; visibility is the OR of that
	// speaker's windows via an enable expression.
	current := "[bg]"
	for i, sp := range []script.Speaker{script.SpeakerConsulter, script.SpeakerAdvisor} {
		img, enable := speakerOverlay(plan, sp)
		if img == "" {
			continue
		}
		args = append(args, "-loop", "1", "-i", img)
		scaled := fmt.Sprintf("[char%d]", i)
		out := fmt.Sprintf("[v%d]", i)
		filters = append(filters, fmt.Sprintf("[%d:v]scale=-1:%d%s", inputIdx, r.cfg.Video.CharHeight, scaled))
		filters = append(filters, fmt.Sprintf("%s%soverlay=x=%d:y=%d:enable='%s'%s",
			current, scaled, r.cfg.Video.CharX, r.cfg.Video.CharY, enable, out))
		current = out
		inputIdx++
	}

	// Captions burn last so the box sits above the overlays.
	if haveCaptions {
		filters = append(filters, fmt.Sprintf("%ssubtitles=%s[vout]", current, assFile))
	} else {
		filters = append(filters, fmt.Sprintf("%snull[vout]", current))
	}

	// Audio: narration, plus looped BGM attenuated under it.
	narrIdx := inputIdx
	args = append(args, "-i", plan.NarrationPath)
	inputIdx++
	if plan.BGMPath != "" {
		args = append(args, "-stream_loop", "-1", "-i", plan.BGMPath)
		filters = append(filters, fmt.Sprintf("[%d:a]volume=%.2f[bgm]", inputIdx, plan.BGMVolume))
		filters = append(filters, fmt.Sprintf(
			"[%d:a][bgm]amix=inputs=2:duration=first:normalize=0[aout]", narrIdx))
	} else {
		filters = append(filters, fmt.Sprintf("[%d:a]anull[aout]", narrIdx))
	}

	return args, strings.Join(filters, ";")
}

// speakerOverlay returns the speaker's image path and the combined
// enable expression for all of its windows, or "" when the speaker
// has no art or no windows.
func speakerOverlay(plan *Plan, sp script.Speaker) (string, string) {
	var img string
	var terms []string
	for _, o := range plan.Overlays {
		if o.Speaker != sp {
			continue
		}
		img = o.ImagePath
		terms = append(terms, fmt.Sprintf("between(t,%.3f,%.3f)", o.Start, o.End))
	}
	if img == "" || len(terms) == 0 {
		return "", ""
	}
	return img, strings.Join(terms, "+")
}
