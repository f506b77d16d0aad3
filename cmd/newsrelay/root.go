package main

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
	"newsrelay/pkg/config"
	"newsrelay/pkg/logger"
	"newsrelay/pkg/relay"
	"newsrelay/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	configFile string
	logLevel   string
	pageURL    string
	delay      float64
}

// newRootCmd builds the newsrelay command tree writing progress lines to stdout
func newRootCmd(stdout io.Writer) *cobra.Command {
	opts := &globalOptions{}
	reporter := ui.NewReporter(stdout)

	rootCmd := &cobra.Command{
		Use:   "newsrelay",
		Short: "Forward a thetv.jp news gallery to a Telegram chat",
		Long: `newsrelay fetches a thetv.jp news detail page, extracts the images of its
gallery together with their captions, and posts each image to a Telegram chat
through the Bot API sendPhoto method.

Credentials are read from the environment (or a .env file):
  TELEGRAM_BOT_TOKEN     bot token (required)
  TELEGRAM_CHAT_ID       target chat id (required)
  TELEGRAM_DELAY_SECONDS delay between items, default 1`,
		Example: `  # Relay the default page
  TELEGRAM_BOT_TOKEN=123:abc TELEGRAM_CHAT_ID=@channel newsrelay

  # Relay another article with a longer delay
  newsrelay --page-url https://thetv.jp/news/detail/1310405/ --delay 5

  # Only list what would be sent
  newsrelay extract`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelay(cmd, opts, reporter)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (default is .newsrelay.yaml or $HOME/.config/newsrelay/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")
	rootCmd.PersistentFlags().StringVar(&opts.pageURL, "page-url", "", "news page to relay")
	rootCmd.PersistentFlags().Float64Var(&opts.delay, "delay", 1, "seconds to wait between items")

	rootCmd.SetVersionTemplate(`newsrelay {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(newExtractCmd(opts, reporter))

	return rootCmd
}

// loadConfig merges defaults, config file, environment and the flags the user set
func loadConfig(cmd *cobra.Command, opts *globalOptions) (*config.Config, error) {
	flags := make(map[string]interface{})
	if opts.pageURL != "" {
		flags["page-url"] = opts.pageURL
	}
	if opts.logLevel != "" {
		flags["log-level"] = opts.logLevel
	}
	if cmd.Flags().Changed("delay") {
		flags["delay"] = opts.delay
	}

	cfg, err := config.Load(opts.configFile, flags)
	if err != nil {
		return nil, &exitError{code: exitFailure, err: err}
	}
	return cfg, nil
}

// setupLogger installs the global logger; the caller closes the returned Closer
func setupLogger(cfg *config.Config) (logger.Logger, io.Closer, error) {
	closer, err := logger.Initialize(&cfg.Logging)
	if err != nil {
		return nil, nil, &exitError{code: exitFailure, err: err}
	}
	return logger.GetLogger().WithField("version", version), closer, nil
}

func runRelay(cmd *cobra.Command, opts *globalOptions, reporter *ui.Reporter) error {
	// credentials come first: a missing token exits 2 even if other settings are malformed
	if err := config.CheckCredentials(opts.configFile); err != nil {
		reporter.MissingCredentials()
		return &exitError{code: exitMissingCredentials, err: err, reported: true}
	}

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	log, closer, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	log.InfoWithFields("Starting relay", map[string]interface{}{
		"page_url": cfg.Source.PageURL,
		"chat_id":  cfg.Telegram.ChatID,
	})

	r := relay.NewFromConfig(cfg, reporter, log)
	if _, err := r.Run(context.Background()); err != nil {
		return &exitError{code: exitFailure, err: err, reported: true}
	}

	return nil
}
