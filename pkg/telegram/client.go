package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	apperrors "newsrelay/pkg/errors"
	"newsrelay/pkg/logger"
	"newsrelay/pkg/models"
)

const (
	// DefaultAPIURL is the public Bot API endpoint
	DefaultAPIURL = "https://api.telegram.org"

	// MaxCaptionLength is the Bot API limit for photo captions, in characters
	MaxCaptionLength = 1024

	redacted = "<redacted>"
)

// Client sends photos to one chat through the Bot API
type Client struct {
	httpClient *http.Client
	apiURL     string
	token      string
	chatID     string
	timeout    time.Duration
	logger     logger.Logger
}

// NewClient creates a Bot API client. httpClient is shared with the other
// stages so connections are reused; a nil client falls back to http.DefaultClient.
func NewClient(httpClient *http.Client, apiURL, token, chatID string, timeout time.Duration, log logger.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: httpClient,
		apiURL:     strings.TrimRight(apiURL, "/"),
		token:      strings.TrimSpace(token),
		chatID:     strings.TrimSpace(chatID),
		timeout:    timeout,
		logger:     log.WithFields(map[string]interface{}{"component": "telegram", "chat_id": chatID}),
	}
}

// SendPhoto uploads image to the configured chat with caption
func (c *Client) SendPhoto(ctx context.Context, image *models.DownloadedImage, caption string) (*Response, error) {
	endpoint := c.methodURL("sendPhoto")
	safeEndpoint := c.redact(endpoint)

	body, contentType, err := encodePhoto(c.chatID, TruncateCaption(caption), image)
	if err != nil {
		return nil, apperrors.NewSendError(safeEndpoint, 0, fmt.Errorf("failed to encode upload: %w", err))
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, apperrors.NewSendError(safeEndpoint, 0, c.redactErr(err))
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = c.redactErr(err)
		c.logger.ErrorWithFields("sendPhoto request failed", map[string]interface{}{
			"filename": image.Filename,
			"error":    err.Error(),
		})
		return nil, apperrors.NewSendError(safeEndpoint, 0, err)
	}
	defer resp.Body.Close()

	logger.LogRequest(c.logger, req.Method, safeEndpoint, resp.StatusCode, time.Since(start))

	var out Response
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)

	if resp.StatusCode/100 != 2 {
		return nil, apperrors.NewSendError(safeEndpoint, resp.StatusCode, apperrors.StatusError(resp.StatusCode, out.Description))
	}
	if decodeErr != nil {
		return nil, apperrors.NewSendError(safeEndpoint, resp.StatusCode, fmt.Errorf("failed to parse response: %w", decodeErr))
	}

	if !out.OK {
		c.logger.WarnWithFields("sendPhoto not acknowledged", map[string]interface{}{
			"filename":    image.Filename,
			"description": out.Description,
		})
	}

	return &out, nil
}

func (c *Client) methodURL(method string) string {
	return c.apiURL + "/bot" + c.token + "/" + method
}

// redact removes the bot token from s
func (c *Client) redact(s string) string {
	if c.token == "" {
		return s
	}
	return strings.ReplaceAll(s, c.token, redacted)
}

func (c *Client) redactErr(err error) error {
	msg := err.Error()
	if safe := c.redact(msg); safe != msg {
		return &redactedError{msg: safe, err: err}
	}
	return err
}

// redactedError keeps the cause reachable for errors.Is while hiding the token
type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func encodePhoto(chatID, caption string, image *models.DownloadedImage) (io.Reader, string, error) {
	if image == nil {
		return nil, "", errors.New("no image")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("chat_id", chatID); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("caption", caption); err != nil {
		return nil, "", err
	}

	part, err := w.CreateFormFile("photo", image.Filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image.Data); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// TruncateCaption cuts caption to MaxCaptionLength runes
func TruncateCaption(caption string) string {
	runes := []rune(caption)
	if len(runes) <= MaxCaptionLength {
		return caption
	}
	return string(runes[:MaxCaptionLength])
}
