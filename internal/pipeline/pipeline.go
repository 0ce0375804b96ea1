package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/konkon034034/jinsei-soudan/internal/assets"
	"github.com/konkon034034/jinsei-soudan/internal/collector"
	"github.com/konkon034034/jinsei-soudan/internal/compositor"
	"github.com/konkon034034/jinsei-soudan/internal/config"
	"github.com/konkon034034/jinsei-soudan/internal/drive"
	"github.com/konkon034034/jinsei-soudan/internal/llm"
	"github.com/konkon034034/jinsei-soudan/internal/metadata"
	"github.com/konkon034034/jinsei-soudan/internal/notify"
	"github.com/konkon034034/jinsei-soudan/internal/publisher"
	"github.com/konkon034034/jinsei-soudan/internal/script"
	"github.com/konkon034034/jinsei-soudan/internal/sheet"
	"github.com/konkon034034/jinsei-soudan/internal/speech"
	"github.com/konkon034034/jinsei-soudan/internal/timing"
)

// State is the per-run record persisted under the run dir. It is the
// only artifact (besides the final video) that survives a run.
type State struct {
	RunID       string `json:"run_id"`
	Channel     string `json:"channel"`
	Row         int    `json:"row,omitempty"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at,omitempty"`

	Theme        string `json:"theme,omitempty"`
	LineCount    int    `json:"line_count,omitempty"`
	SegmentCount int    `json:"segment_count,omitempty"`
	VideoFile    string `json:"video_file,omitempty"`
	DriveURL     string `json:"drive_url,omitempty"`
	WatchURL     string `json:"watch_url,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Pipeline wires the stages for one channel. Everything runs
// sequentially; each stage blocks until its provider answers.
type Pipeline struct {
	cfg      *config.Config
	chKey    string
	ch       config.ChannelConfig
	llm      llm.Completer
	store    *sheet.Store
	driveSvc *drive.Service
	notifier *notify.Notifier
}

// New builds a Pipeline for a channel. The sheet and Drive services
// are optional: when their credentials are missing the pipeline still
// runs end to end, it just cannot log progress or fetch Drive assets.
func New(ctx context.Context, cfg *config.Config, channelKey string) (*Pipeline, error) {
	ch, err := cfg.Channel(channelKey)
	if err != nil {
		return nil, err
	}

	client, err := llm.New(cfg)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:      cfg,
		chKey:    channelKey,
		ch:       ch,
		llm:      client,
		notifier: notify.New(cfg),
	}

	if p.store, err = sheet.New(ctx, cfg, ch); err != nil {
		log.Printf("⚠️  Sheet log unavailable: %v — progress will not be recorded", err)
		p.store = nil
	}
	if p.driveSvc, err = drive.New(ctx, cfg); err != nil {
		log.Printf("⚠️  Drive unavailable: %v — assets degrade to defaults", err)
		p.driveSvc = nil
	}
	return p, nil
}

// PendingRows lists runnable sheet rows.
func (p *Pipeline) PendingRows(ctx context.Context) ([]int, error) {
	if p.store == nil {
		return nil, fmt.Errorf("sheet log is not configured")
	}
	return p.store.FindPendingRows(ctx)
}

// RowStatus reads one row's workflow status.
func (p *Pipeline) RowStatus(ctx context.Context, rowNum int) (string, error) {
	if p.store == nil {
		return "", fmt.Errorf("sheet log is not configured")
	}
	row, err := p.store.GetRow(ctx, rowNum)
	if err != nil {
		return "", err
	}
	return row.Status, nil
}

// GenerateScript runs the first half of the workflow for one sheet
// row: collect material if the row has none, generate the dialogue,
// write it back, and ask Slack for approval.
func (p *Pipeline) GenerateScript(ctx context.Context, rowNum int) error {
	if p.store == nil {
		return fmt.Errorf("sheet log is not configured")
	}
	log.Printf("🚀 Script generation — %s row %d", p.ch.Name, rowNum)

	if err := p.store.UpdateStatus(ctx, rowNum, sheet.StatusProcessing); err != nil {
		return err
	}

	err := p.generateScript(ctx, rowNum)
	if err != nil {
		p.store.MarkError(ctx, rowNum, err)
		p.notifier.RunFailed(rowNum, err)
		return err
	}
	return nil
}

func (p *Pipeline) generateScript(ctx context.Context, rowNum int) error {
	row, err := p.store.GetRow(ctx, rowNum)
	if err != nil {
		return err
	}

	theme := row.TriggerKeyword
	summary := row.SourceSummary
	if summary == "" {
		material, err := collector.New(p.cfg, p.llm).Run(ctx)
		if err != nil {
			return fmt.Errorf("collect: %w", err)
		}
		theme, summary = material.Theme, material.Summary
		_ = p.store.UpdateCell(ctx, rowNum, sheet.ColSourceSummary, summary)
		_ = p.store.UpdateCell(ctx, rowNum, sheet.ColSourceVideoID, material.SourceID)
		_ = p.store.UpdateCell(ctx, rowNum, sheet.ColSourceVideoURL, material.SourceURL)
	}
	if theme == "" {
		theme = firstLine(summary)
	}

	gen := script.New(p.cfg, p.llm)
	s, err := gen.Run(ctx, script.Request{
		Theme:         theme,
		Summary:       summary,
		ConsulterInfo: row.ConsulterInfo,
		ConsulterName: config.PickConsulterName(),
		AdvisorName:   p.ch.AdvisorName,
		PromptMemo:    row.PromptMemo,
	})
	if err != nil {
		return err
	}

	if err := p.store.UpdateCell(ctx, rowNum, sheet.ColScript, s.Dialogue()); err != nil {
		return err
	}
	_ = p.store.UpdateCell(ctx, rowNum, sheet.ColCharCount, fmt.Sprintf("%d", s.CharCount))
	_ = p.store.UpdateCell(ctx, rowNum, sheet.ColConsulterInfo, row.ConsulterInfo)

	if err := p.store.UpdateStatus(ctx, rowNum, sheet.StatusApprovalPendingScript); err != nil {
		return err
	}
	p.notifier.ScriptApproval(rowNum, p.ch.Name, theme, s.Preview(6))
	log.Printf("✅ Script for row %d awaits approval", rowNum)
	return nil
}

// ProduceVideo runs the second half for an approved row: synthesize,
// time, composite, generate metadata, and publish. Nothing is
// uploaded unless every fatal stage before the Publisher succeeded.
func (p *Pipeline) ProduceVideo(ctx context.Context, rowNum int) error {
	if p.store == nil {
		return fmt.Errorf("sheet log is not configured")
	}
	log.Printf("🚀 Video production — %s row %d", p.ch.Name, rowNum)

	row, err := p.store.GetRow(ctx, rowNum)
	if err != nil {
		return err
	}
	if row.Script == "" {
		return fmt.Errorf("row %d has no script", rowNum)
	}

	state, runDir, err := p.newRun(rowNum)
	if err != nil {
		return err
	}
	defer p.finishRun(ctx, state, runDir)

	// Speaker names are recovered from the stored 名前：セリフ text.
	consulterName := consulterNameFromScript(row.Script, p.ch.AdvisorName)
	lines, err := script.ParseDialogue(row.Script, consulterName, p.ch.AdvisorName)
	if err != nil {
		state.Error = fmt.Sprintf("parse script: %v", err)
		return fmt.Errorf("%s", state.Error)
	}
	state.Theme = row.TriggerKeyword
	if state.Theme == "" {
		state.Theme = firstLine(row.SourceSummary)
	}
	state.LineCount = len(lines)

	result, err := p.produce(ctx, state, runDir, lines, row)
	if err != nil {
		state.Error = err.Error()
		return err
	}

	state.WatchURL = result.WatchURL
	_ = p.store.UpdateCell(ctx, rowNum, sheet.ColVideoURL, result.WatchURL)
	_ = p.store.UpdateCell(ctx, rowNum, sheet.ColCompleted, "TRUE")
	if err := p.store.UpdateStatus(ctx, rowNum, sheet.StatusCompleted); err != nil {
		log.Printf("⚠️  Could not mark row %d completed: %v", rowNum, err)
	}
	return nil
}

// produce is the fatal-stage chain shared by row-driven and
// standalone runs.
func (p *Pipeline) produce(ctx context.Context, state *State, runDir string, lines []script.Line, row *sheet.Row) (*publisher.Result, error) {
	// Stage: speech synthesis.
	synth, err := speech.NewGoogle(ctx, p.cfg)
	if err != nil {
		return nil, fmt.Errorf("tts init: %w", err)
	}
	engine := speech.New(p.cfg, p.ch, synth)
	segments, narration, err := engine.Run(ctx, lines, filepath.Join(runDir, "audio"))
	if err != nil {
		return nil, fmt.Errorf("speech: %w", err)
	}
	state.SegmentCount = len(segments)

	// Stage: timing.
	var measured []speech.Segment
	if p.cfg.Timing.Mode == "measured" {
		measured = segments
	}
	windows, err := timing.New(p.cfg).Resolve(lines, measured)
	if err != nil {
		return nil, fmt.Errorf("timing: %w", err)
	}
	saveJSON(filepath.Join(runDir, "windows.json"), windows)

	// Stage: composition.
	var dl assets.Downloader
	if p.driveSvc != nil {
		dl = p.driveSvc
	}
	bundle := assets.New(p.cfg, dl).Resolve(ctx, p.cfg.Paths.Assets)
	plan := compositor.BuildPlan(p.cfg, windows, bundle, narration)
	saveJSON(filepath.Join(runDir, "plan.json"), plan)

	videoFile, err := compositor.NewRenderer(p.cfg).Render(ctx, plan, runDir)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	state.VideoFile = videoFile

	// Stage: metadata (never fatal) and thumbnail (non-fatal).
	metaGen := metadata.New(p.cfg, p.llm)
	summary := ""
	if row != nil {
		summary = row.SourceSummary
	}
	payload := metaGen.Run(ctx, state.Theme, summary)
	saveJSON(filepath.Join(runDir, "metadata.json"), payload)
	comment := metaGen.Comment(ctx, payload)

	thumbFile := ""
	if tf, err := thumbnailFor(p.cfg, payload.Title, bundle, runDir); err != nil {
		log.Printf("⚠️  Thumbnail failed: %v — continuing without it", err)
	} else {
		thumbFile = tf
	}

	// Drive preview copy for reviewers (non-fatal).
	if p.driveSvc != nil && p.cfg.Upload.DriveFolderID != "" {
		if link, err := p.driveSvc.Upload(ctx, videoFile, p.cfg.Upload.DriveFolderID); err != nil {
			log.Printf("⚠️  Drive preview upload failed: %v", err)
		} else {
			state.DriveURL = link
		}
	}

	// Stage: publish. The only upload side effect of the run.
	result, err := publisher.New(p.cfg, p.ch).Run(ctx, videoFile, thumbFile, payload, comment)
	if err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}
	return result, nil
}

// RunStandalone executes the full pipeline without a sheet row:
// collect, script, produce, publish. Used by the CLI run command when
// no row is given.
func (p *Pipeline) RunStandalone(ctx context.Context) error {
	log.Printf("🚀 Standalone run — %s", p.ch.Name)

	state, runDir, err := p.newRun(0)
	if err != nil {
		return err
	}
	defer p.finishRun(ctx, state, runDir)

	material, err := collector.New(p.cfg, p.llm).Run(ctx)
	if err != nil {
		state.Error = err.Error()
		return err
	}
	state.Theme = material.Theme

	s, err := script.New(p.cfg, p.llm).Run(ctx, script.Request{
		Theme:         material.Theme,
		Summary:       material.Summary,
		ConsulterName: config.PickConsulterName(),
		AdvisorName:   p.ch.AdvisorName,
	})
	if err != nil {
		state.Error = err.Error()
		return err
	}
	state.LineCount = len(s.Lines)
	saveJSON(filepath.Join(runDir, "script.json"), s)

	result, err := p.produce(ctx, state, runDir, s.Lines, &sheet.Row{SourceSummary: material.Summary})
	if err != nil {
		state.Error = err.Error()
		return err
	}
	state.WatchURL = result.WatchURL
	return nil
}

// newRun allocates the run ID and output directory.
func (p *Pipeline) newRun(rowNum int) (*State, string, error) {
	runID := uuid.NewString()[:8]
	runDir := filepath.Join(p.cfg.Paths.Output, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, "", fmt.Errorf("create run dir: %w", err)
	}
	log.Printf("📁 Run %s → %s", runID, runDir)
	return &State{
		RunID:     runID,
		Channel:   p.chKey,
		Row:       rowNum,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}, runDir, nil
}

// finishRun persists the state and reports the outcome. The sheet's
// ERROR status and the Slack failure notice both happen here so every
// exit path reports the same way.
func (p *Pipeline) finishRun(ctx context.Context, state *State, runDir string) {
	state.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	saveJSON(filepath.Join(runDir, "pipeline_state.json"), state)

	if state.Error != "" {
		log.Printf("❌ Run %s failed: %s", state.RunID, state.Error)
		if p.store != nil && state.Row > 0 {
			p.store.MarkError(ctx, state.Row, fmt.Errorf("%s", state.Error))
		}
		p.notifier.RunFailed(state.Row, fmt.Errorf("%s", state.Error))
		return
	}
	log.Printf("✅ Run %s complete! %s", state.RunID, state.WatchURL)
	p.notifier.RunComplete(state.Row, state.Theme, state.WatchURL)
}

func saveJSON(path string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Printf("⚠️  Could not marshal %s: %v", path, err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Printf("⚠️  Could not save %s: %v", path, err)
	}
}
