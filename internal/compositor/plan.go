package compositor

import (
	"log"

	"github.com/konkon034034/jinsei-soudan/internal/assets"
	"github.com/konkon034034/jinsei-soudan/internal/config"
	"github.com/konkon034034/jinsei-soudan/internal/script"
	"github.com/konkon034034/jinsei-soudan/internal/timing"
)

// CaptionClip is one timed caption with its wrapped display lines.
type CaptionClip struct {
	Start float64  `json:"start"`
	End   float64  `json:"end"`
	Lines []string `json:"lines"`
}

// OverlayClip is one visibility interval for a speaker's character
// art. Windows are per speaker and independent: a new speaker's line
// does not force the previous speaker's art to hide early.
type OverlayClip struct {
	Speaker   script.Speaker `json:"speaker"`
	ImagePath string         `json:"image_path"`
	Start     float64        `json:"start"`
	End       float64        `json:"end"`
}

// Plan is the full layered composition for one render: background at
// the back, character overlays above it, captions on top, narration
// plus an optional attenuated BGM bed underneath.
type Plan struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	FPS    int `json:"fps"`

	// BackgroundPath empty means the solid BackgroundColor fallback.
	BackgroundPath  string `json:"background_path"`
	BackgroundColor string `json:"background_color"`

	Captions []CaptionClip `json:"captions"`
	Overlays []OverlayClip `json:"overlays"`

	NarrationPath string  `json:"narration_path"`
	BGMPath       string  `json:"bgm_path"`
	BGMVolume     float64 `json:"bgm_volume"`

	// Duration is the timeline end; the rendered video is cut to the
	// narration track, which shares the same clock.
	Duration float64 `json:"duration"`
}

// BuildPlan assembles the composition from resolved windows and
// assets. Missing optional assets degrade to their defaults here;
// building never fails outright — at worst the plan is a solid
// background with narration only.
func BuildPlan(cfg *config.Config, windows []timing.Window, bundle *assets.Bundle, narrationPath string) *Plan {
	p := &Plan{
		Width:           cfg.Video.Width,
		Height:          cfg.Video.Height,
		FPS:             cfg.Video.FPS,
		BackgroundColor: cfg.Video.BackgroundColor,
		NarrationPath:   narrationPath,
		BGMVolume:       cfg.Video.BGMVolume,
		Duration:        timing.TotalDuration(windows),
	}

	if bundle != nil {
		p.BackgroundPath = bundle.BackgroundPath
		p.BGMPath = bundle.BGMPath
	}
	if p.BackgroundPath == "" {
		log.Printf("[compose] Background: solid %s", p.BackgroundColor)
	}
	if p.BGMPath == "" {
		log.Println("[compose] BGM: none — narration only")
	}

	for _, w := range windows {
		lines := Wrap(w.Caption, cfg.Captions.MaxCharsPerLine)
		if len(lines) == 0 {
			log.Printf("[compose] ⚠️  Caption %d is empty after wrapping — dropping clip", w.Index)
			continue
		}
		p.Captions = append(p.Captions, CaptionClip{Start: w.Start, End: w.End, Lines: lines})
	}

	for _, w := range windows {
		img := ""
		if bundle != nil {
			img = bundle.CharacterPaths[w.Speaker]
		}
		if img == "" {
			continue
		}
		p.Overlays = append(p.Overlays, OverlayClip{
			Speaker:   w.Speaker,
			ImagePath: img,
			Start:     w.Start,
			End:       w.End,
		})
	}

	log.Printf("[compose] Plan: %d caption(s), %d overlay(s), %.1fs", len(p.Captions), len(p.Overlays), p.Duration)
	return p
}
