package thetv

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "newsrelay/pkg/errors"
	"newsrelay/pkg/logger"
	"newsrelay/pkg/models"
)

// Client fetches news pages and extracts their gallery items
type Client struct {
	httpClient *http.Client
	pageURL    string
	userAgent  string
	timeout    time.Duration
	logger     logger.Logger
}

// NewClient creates a page client. httpClient is shared with the other stages
// so connections are reused; a nil client falls back to http.DefaultClient.
func NewClient(httpClient *http.Client, pageURL, userAgent string, timeout time.Duration, log logger.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = logger.GetLogger()
	}
	if pageURL == "" {
		pageURL = DefaultPageURL
	}

	return &Client{
		httpClient: httpClient,
		pageURL:    pageURL,
		userAgent:  userAgent,
		timeout:    timeout,
		logger:     log.WithField("component", "thetv"),
	}
}

// FetchPage downloads the raw HTML of pageURL
func (c *Client) FetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, apperrors.NewFetchError(pageURL, 0, fmt.Errorf("failed to create request: %w", err))
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorWithFields("Page request failed", map[string]interface{}{
			"url":   pageURL,
			"error": err.Error(),
		})
		return nil, apperrors.NewFetchError(pageURL, 0, err)
	}
	defer resp.Body.Close()

	logger.LogRequest(c.logger, req.Method, pageURL, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewFetchError(pageURL, resp.StatusCode, apperrors.StatusError(resp.StatusCode, ""))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewFetchError(pageURL, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err))
	}

	return body, nil
}

// FetchItems fetches the configured page and extracts its gallery items
func (c *Client) FetchItems(ctx context.Context) ([]models.Item, error) {
	body, err := c.FetchPage(ctx, c.pageURL)
	if err != nil {
		return nil, err
	}

	items, err := ExtractItems(bytes.NewReader(body), c.pageURL, c.logger)
	if err != nil {
		return nil, apperrors.NewFetchError(c.pageURL, 0, err)
	}

	c.logger.InfoWithFields("Extracted gallery items", map[string]interface{}{
		"page_url": c.pageURL,
		"count":    len(items),
	})

	return items, nil
}
