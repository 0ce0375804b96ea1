package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/konkon034034/jinsei-soudan/internal/pipeline"
	"github.com/konkon034034/jinsei-soudan/internal/sheet"
)

var rowNum int

func init() {
	scriptCmd.Flags().IntVar(&rowNum, "row", 0, "sheet row to process (default: all pending)")
	produceCmd.Flags().IntVar(&rowNum, "row", 0, "sheet row to produce (default: all approved)")
}

var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "Generate scripts for pending sheet rows and request approval",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := pipeline.New(cmd.Context(), cfg, channelKey)
		if err != nil {
			return err
		}
		rows, err := targetRows(cmd, p, func(status string) bool {
			return status == sheet.StatusPending || status == ""
		})
		if err != nil {
			return err
		}
		return forEachRow(rows, func(row int) error {
			return p.GenerateScript(cmd.Context(), row)
		})
	},
}

var produceCmd = &cobra.Command{
	Use:   "produce",
	Short: "Produce and publish videos for approved rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := pipeline.New(cmd.Context(), cfg, channelKey)
		if err != nil {
			return err
		}
		rows, err := targetRows(cmd, p, func(status string) bool {
			return status == sheet.StatusApprovedScript
		})
		if err != nil {
			return err
		}
		return forEachRow(rows, func(row int) error {
			return p.ProduceVideo(cmd.Context(), row)
		})
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline once without the sheet workflow",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := pipeline.New(cmd.Context(), cfg, channelKey)
		if err != nil {
			return err
		}
		return p.RunStandalone(cmd.Context())
	},
}

// targetRows resolves --row, or filters pending rows by status.
func targetRows(cmd *cobra.Command, p *pipeline.Pipeline, wantStatus func(string) bool) ([]int, error) {
	if rowNum > 0 {
		return []int{rowNum}, nil
	}
	pending, err := p.PendingRows(cmd.Context())
	if err != nil {
		return nil, err
	}
	var rows []int
	for _, row := range pending {
		status, err := p.RowStatus(cmd.Context(), row)
		if err != nil {
			log.Printf("⚠️  Row %d unreadable: %v — skipping", row, err)
			continue
		}
		if wantStatus(strings.ToUpper(status)) {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		log.Println("Nothing to do")
	}
	return rows, nil
}

// forEachRow keeps going after a row fails, then reports the failure
// count so CI still surfaces a non-zero exit.
func forEachRow(rows []int, fn func(int) error) error {
	failed := 0
	for _, row := range rows {
		if err := fn(row); err != nil {
			log.Printf("❌ Row %d: %v", row, err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d row(s) failed", failed, len(rows))
	}
	return nil
}
