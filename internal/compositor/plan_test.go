package compositor

import (
	"strings"
	"testing"

	"github.com/konkon034034/jinsei-soudan/internal/assets"
	"github.com/konkon034034/jinsei-soudan/internal/config"
	"github.com/konkon034034/jinsei-soudan/internal/script"
	"github.com/konkon034034/jinsei-soudan/internal/timing"
)

func testWindows() []timing.Window {
	return []timing.Window{
		{Index: 0, Start: 0, End: 2, Speaker: script.SpeakerConsulter, Caption: "夫のことで悩んでいます"},
		{Index: 1, Start: 2.5, End: 5.5, Speaker: script.SpeakerAdvisor, Caption: "ゆっくりお話しください"},
	}
}

func TestBuildPlanMissingAssetsDegrade(t *testing.T) {
	cfg := config.Default()

	// Nil bundle: no background, no BGM, no character art.
	plan := BuildPlan(cfg, testWindows(), nil, "narration.mp3")

	if plan.BackgroundPath != "" {
		t.Errorf("background path = %q, want solid-color default", plan.BackgroundPath)
	}
	if plan.BackgroundColor != cfg.Video.BackgroundColor {
		t.Errorf("background color = %q, want %q", plan.BackgroundColor, cfg.Video.BackgroundColor)
	}
	if plan.BGMPath != "" {
		t.Errorf("bgm path = %q, want narration-only default", plan.BGMPath)
	}
	if len(plan.Overlays) != 0 {
		t.Errorf("got %d overlays, want 0 when no character art exists", len(plan.Overlays))
	}
	// Captions and narration survive regardless.
	if len(plan.Captions) != 2 {
		t.Errorf("got %d captions, want 2", len(plan.Captions))
	}
	if plan.Duration != 5.5 {
		t.Errorf("duration = %v, want last window end 5.5", plan.Duration)
	}
}

func TestBuildPlanOverlaysFollowWindows(t *testing.T) {
	cfg := config.Default()
	bundle := &assets.Bundle{
		CharacterPaths: map[script.Speaker]string{
			script.SpeakerConsulter: "consulter.png",
			script.SpeakerAdvisor:   "advisor.png",
		},
	}

	plan := BuildPlan(cfg, testWindows(), bundle, "narration.mp3")

	if len(plan.Overlays) != 2 {
		t.Fatalf("got %d overlays, want 2", len(plan.Overlays))
	}
	if plan.Overlays[0].Speaker != script.SpeakerConsulter || plan.Overlays[0].Start != 0 || plan.Overlays[0].End != 2 {
		t.Errorf("overlay 0 = %+v, want consulter [0,2]", plan.Overlays[0])
	}
	if plan.Overlays[1].Speaker != script.SpeakerAdvisor || plan.Overlays[1].Start != 2.5 {
		t.Errorf("overlay 1 = %+v, want advisor starting at 2.5", plan.Overlays[1])
	}
}

func TestBuildPlanPartialCharacterArt(t *testing.T) {
	cfg := config.Default()
	bundle := &assets.Bundle{
		CharacterPaths: map[script.Speaker]string{
			script.SpeakerAdvisor: "advisor.png",
		},
	}

	plan := BuildPlan(cfg, testWindows(), bundle, "narration.mp3")

	if len(plan.Overlays) != 1 {
		t.Fatalf("got %d overlays, want 1 (consulter art missing is omitted, not fatal)", len(plan.Overlays))
	}
	if plan.Overlays[0].Speaker != script.SpeakerAdvisor {
		t.Errorf("overlay speaker = %s, want advisor", plan.Overlays[0].Speaker)
	}
}

func TestBuildGraphSolidColorFallback(t *testing.T) {
	cfg := config.Default()
	r := NewRenderer(cfg)
	plan := BuildPlan(cfg, testWindows(), nil, "narration.mp3")

	args, filter := r.buildGraph(plan, "captions.ass", true)

	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "color=c="+cfg.Video.BackgroundColor) {
		t.Errorf("args %q missing lavfi color background", joined)
	}
	if !strings.Contains(filter, "subtitles=captions.ass") {
		t.Errorf("filter %q missing caption burn", filter)
	}
	if strings.Contains(filter, "amix") {
		t.Errorf("filter %q mixes BGM that does not exist", filter)
	}
}

func TestSpeakerOverlayEnableExpression(t *testing.T) {
	plan := &Plan{Overlays: []OverlayClip{
		{Speaker: script.SpeakerAdvisor, ImagePath: "a.png", Start: 1, End: 2},
		{Speaker: script.SpeakerAdvisor, ImagePath: "a.png", Start: 3, End: 4},
		{Speaker: script.SpeakerConsulter, ImagePath: "c.png", Start: 2, End: 3},
	}}

	img, enable := speakerOverlay(plan, script.SpeakerAdvisor)
	if img != "a.png" {
		t.Errorf("img = %q, want a.png", img)
	}
	want := "between(t,1.000,2.000)+between(t,3.000,4.000)"
	if enable != want {
		t.Errorf("enable = %q, want %q", enable, want)
	}

	if img, _ := speakerOverlay(plan, "narrator"); img != "" {
		t.Errorf("unknown speaker returned img %q, want none", img)
	}
}
