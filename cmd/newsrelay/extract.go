package main

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"
	"newsrelay/pkg/thetv"
	"newsrelay/pkg/ui"
)

func newExtractCmd(opts *globalOptions, reporter *ui.Reporter) *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "List the gallery items of the page without sending anything",
		Long: `Fetch the configured page and print every gallery item as
"<n>. <image url>  <caption>". No Telegram credentials are needed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			log, closer, err := setupLogger(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			client := thetv.NewClient(&http.Client{}, cfg.Source.PageURL, cfg.Source.UserAgent, cfg.Source.PageTimeout, log)
			items, err := client.FetchItems(context.Background())
			if err != nil {
				log.WithError(err).Error("Failed to fetch gallery")
				reporter.FetchFailed(err)
				return &exitError{code: exitFailure, err: err, reported: true}
			}

			if len(items) == 0 {
				reporter.NoItems()
				return nil
			}
			for i, item := range items {
				reporter.Item(i+1, item.ImageURL, item.Caption)
			}
			return nil
		},
	}
}
