package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "newsrelay/pkg/errors"
	"newsrelay/pkg/logger"
	"newsrelay/pkg/models"
)

// Downloader fetches item images one at a time
type Downloader struct {
	httpClient *http.Client
	timeout    time.Duration
	logger     logger.Logger
}

// New creates a Downloader. httpClient is shared with the other stages so
// connections are reused; a nil client falls back to http.DefaultClient.
func New(httpClient *http.Client, timeout time.Duration, log logger.Logger) *Downloader {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Downloader{
		httpClient: httpClient,
		timeout:    timeout,
		logger:     log.WithField("component", "downloader"),
	}
}

// Download fetches imageURL and names the result after the URL's last path segment
func (d *Downloader) Download(ctx context.Context, imageURL string) (*models.DownloadedImage, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, apperrors.NewDownloadError(imageURL, 0, fmt.Errorf("failed to create request: %w", err))
	}

	start := time.Now()
	resp, err := d.httpClient.Do(req)
	if err != nil {
		d.logger.ErrorWithFields("Image request failed", map[string]interface{}{
			"url":   imageURL,
			"error": err.Error(),
		})
		return nil, apperrors.NewDownloadError(imageURL, 0, err)
	}
	defer resp.Body.Close()

	logger.LogRequest(d.logger, req.Method, imageURL, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewDownloadError(imageURL, resp.StatusCode, apperrors.StatusError(resp.StatusCode, ""))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewDownloadError(imageURL, resp.StatusCode, fmt.Errorf("failed to read image data: %w", err))
	}

	image := &models.DownloadedImage{
		URL:      imageURL,
		Filename: FilenameFromURL(imageURL),
		Data:     data,
	}

	d.logger.DebugWithFields("Image downloaded", map[string]interface{}{
		"url":         imageURL,
		"filename":    image.Filename,
		"size":        image.Size(),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return image, nil
}
