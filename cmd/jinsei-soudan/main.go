package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/konkon034034/jinsei-soudan/internal/config"
)

var (
	cfgPath    string
	channelKey string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "jinsei-soudan",
	Short: "Automated consultation-video pipeline",
	Long: `jinsei-soudan generates consultation videos end to end:
material collection, dialogue scripting, speech synthesis, timed
composition, and YouTube upload, with progress tracked in a Google
Sheet and script approval via Slack.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is local-dev convenience; CI injects real env vars.
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		for _, dir := range []string{cfg.Paths.Output, cfg.Paths.Logs, cfg.Paths.Assets} {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("create dir %s: %w", dir, err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&channelKey, "channel", "", "channel key (default from config)")

	rootCmd.AddCommand(scriptCmd)
	rootCmd.AddCommand(produceCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Printf("❌ %v", err)
		os.Exit(1)
	}
}
