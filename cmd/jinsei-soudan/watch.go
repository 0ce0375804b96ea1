package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/konkon034034/jinsei-soudan/internal/pipeline"
	"github.com/konkon034034/jinsei-soudan/internal/sheet"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the sheet on a schedule and run pending work",
	Long: `watch runs the script stage and the produce stage on their own
cron schedules (watch.script_cron / watch.produce_cron), replacing an
external CI scheduler. One stage runs at a time; overlapping fires of
the same job are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := pipeline.New(cmd.Context(), cfg, channelKey)
		if err != nil {
			return err
		}

		c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

		if _, err := c.AddFunc(cfg.Watch.ScriptCron, func() {
			runStage(cmd.Context(), p, "script", func(status string) bool {
				return status == sheet.StatusPending || status == ""
			}, p.GenerateScript)
		}); err != nil {
			return err
		}
		if _, err := c.AddFunc(cfg.Watch.ProduceCron, func() {
			runStage(cmd.Context(), p, "produce", func(status string) bool {
				return status == sheet.StatusApprovedScript
			}, p.ProduceVideo)
		}); err != nil {
			return err
		}

		log.Printf("👀 Watching: script %q, produce %q", cfg.Watch.ScriptCron, cfg.Watch.ProduceCron)
		c.Start()
		defer c.Stop()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()
		log.Println("Shutting down watch")
		return nil
	},
}

// runStage processes every matching pending row with one stage
// function. Failures are logged per row; the watcher never dies on a
// bad row.
func runStage(ctx context.Context, p *pipeline.Pipeline, name string, wantStatus func(string) bool, fn func(context.Context, int) error) {
	rows, err := p.PendingRows(ctx)
	if err != nil {
		log.Printf("⚠️  [%s] Pending scan failed: %v", name, err)
		return
	}
	for _, row := range rows {
		status, err := p.RowStatus(ctx, row)
		if err != nil {
			log.Printf("⚠️  [%s] Row %d unreadable: %v", name, row, err)
			continue
		}
		if !wantStatus(strings.ToUpper(status)) {
			continue
		}
		if err := fn(ctx, row); err != nil {
			log.Printf("❌ [%s] Row %d: %v", name, row, err)
		}
	}
}
