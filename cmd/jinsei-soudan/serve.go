package main

import (
	"github.com/spf13/cobra"

	"github.com/konkon034034/jinsei-soudan/internal/server"
	"github.com/konkon034034/jinsei-soudan/internal/sheet"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the Slack interaction callback endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		ch, err := cfg.Channel(channelKey)
		if err != nil {
			return err
		}
		store, err := sheet.New(cmd.Context(), cfg, ch)
		if err != nil {
			return err
		}
		srv, err := server.New(cfg, store)
		if err != nil {
			return err
		}
		return srv.Run()
	},
}
