package relay

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"newsrelay/internal/downloader"
	"newsrelay/pkg/config"
	apperrors "newsrelay/pkg/errors"
	"newsrelay/pkg/logger"
	"newsrelay/pkg/models"
	"newsrelay/pkg/ratelimit"
	"newsrelay/pkg/telegram"
	"newsrelay/pkg/thetv"
	"newsrelay/pkg/ui"
)

// Summary counts what happened to the items of one run
type Summary struct {
	Total          int
	Sent           int
	DownloadFailed int
	SendFailed     int
}

// Dependencies are the stages a Relay drives
type Dependencies struct {
	Source     PageSource
	Downloader ImageDownloader
	Sender     PhotoSender
	Delayer    ratelimit.Delayer
	Reporter   *ui.Reporter
	Logger     logger.Logger
}

// Relay fetches the gallery once and forwards each image to the chat, one at a time
type Relay struct {
	source     PageSource
	downloader ImageDownloader
	sender     PhotoSender
	delayer    ratelimit.Delayer
	reporter   *ui.Reporter
	logger     logger.Logger

	delay         time.Duration
	postSendPause time.Duration
}

// New creates a Relay from explicit stages. Nil Delayer, Reporter and Logger get defaults.
func New(cfg *config.Config, deps Dependencies) *Relay {
	r := &Relay{
		source:        deps.Source,
		downloader:    deps.Downloader,
		sender:        deps.Sender,
		delayer:       deps.Delayer,
		reporter:      deps.Reporter,
		logger:        deps.Logger,
		delay:         cfg.Delay(),
		postSendPause: cfg.Relay.PostSendPause,
	}
	if r.delayer == nil {
		r.delayer = ratelimit.NewTimerDelayer()
	}
	if r.reporter == nil {
		r.reporter = ui.NewReporter(nil)
	}
	if r.logger == nil {
		r.logger = logger.NewNopLogger()
	}
	return r
}

// NewFromConfig wires the real thetv.jp fetcher, image downloader and Bot API client.
// All three share one http.Client.
func NewFromConfig(cfg *config.Config, reporter *ui.Reporter, log logger.Logger) *Relay {
	httpClient := &http.Client{}

	return New(cfg, Dependencies{
		Source: thetv.NewClient(
			httpClient,
			cfg.Source.PageURL,
			cfg.Source.UserAgent,
			cfg.Source.PageTimeout,
			log,
		),
		Downloader: downloader.New(httpClient, cfg.Source.ImageTimeout, log),
		Sender: telegram.NewClient(
			httpClient,
			cfg.Telegram.APIURL,
			cfg.Telegram.BotToken,
			cfg.Telegram.ChatID,
			cfg.Telegram.SendTimeout,
			log,
		),
		Delayer:  ratelimit.NewTimerDelayer(),
		Reporter: reporter,
		Logger:   log,
	})
}

// Run processes every item on the page in order. Only a fetch/parse failure or
// context cancellation is returned as an error; per-item failures are counted.
func (r *Relay) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	items, err := r.source.FetchItems(ctx)
	if err != nil {
		r.reporter.FetchFailed(err)
		r.logger.WithError(err).Error("Failed to fetch gallery")
		return nil, fmt.Errorf("failed to fetch items: %w", err)
	}

	summary := &Summary{Total: len(items)}
	if len(items) == 0 {
		r.reporter.NoItems()
		r.logger.Info("No items found")
		return summary, nil
	}

	r.logger.InfoWithFields("Relaying items", map[string]interface{}{
		"items": len(items),
		"delay": r.delay,
	})

	for i, item := range items {
		index := i + 1
		r.reporter.Processing(index, summary.Total, item.ImageURL)

		itemErr, err := r.relayItem(ctx, item, summary)
		r.logOutcome(index, summary.Total, item.ImageURL, itemErr)
		if err != nil {
			return summary, err
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if index < summary.Total {
			if err := r.delayer.Wait(ctx, r.delay); err != nil {
				return summary, err
			}
		}
	}

	r.reporter.Done(summary.Sent, summary.Total)
	r.logger.InfoWithFields("Relay finished", map[string]interface{}{
		"total":           summary.Total,
		"sent":            summary.Sent,
		"download_failed": summary.DownloadFailed,
		"send_failed":     summary.SendFailed,
		"duration":        time.Since(start),
	})

	return summary, nil
}

// relayItem downloads and sends one item, updating summary. itemErr is the
// item's own failure; err is non-nil only when the post-send pause was cut short.
func (r *Relay) relayItem(ctx context.Context, item models.Item, summary *Summary) (itemErr, err error) {
	image, itemErr := r.downloader.Download(ctx, item.ImageURL)
	if itemErr != nil {
		summary.DownloadFailed++
		r.reporter.DownloadFailed(itemErr)
		return itemErr, nil
	}

	resp, itemErr := r.sender.SendPhoto(ctx, image, item.Caption)
	if itemErr != nil {
		summary.SendFailed++
		r.reporter.SendFailed(itemErr)
	} else {
		summary.Sent++
		r.reporter.Sent(image.Filename, resp.OK)
		r.logSent(image, resp)
	}

	// the pause follows every send attempt, successful or not
	return itemErr, r.delayer.Wait(ctx, r.postSendPause)
}

func (r *Relay) logOutcome(index, total int, imageURL string, itemErr error) {
	log := r.logger
	if stage, ok := apperrors.StageOf(itemErr); ok {
		log = log.WithField("stage", string(stage))
	}
	logger.LogItemOutcome(log, index, total, imageURL, itemErr == nil, itemErr)
}

func (r *Relay) logSent(image *models.DownloadedImage, resp *telegram.Response) {
	fields := map[string]interface{}{
		"filename": image.Filename,
		"size":     image.Size(),
		"ok":       resp.OK,
	}
	if msg, err := resp.Message(); err == nil {
		fields["message_id"] = msg.MessageID
		fields["chat"] = msg.Chat.ID
	}
	r.logger.DebugWithFields("Photo sent", fields)
}
