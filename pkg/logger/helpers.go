package logger

import (
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs the outcome of an outgoing HTTP request
func LogRequest(log Logger, method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		log.DebugWithFields("HTTP request completed", fields)
	case statusCode >= 400 && statusCode < 500:
		log.WarnWithFields("HTTP request client error", fields)
	case statusCode >= 500:
		log.ErrorWithFields("HTTP request server error", fields)
	default:
		log.DebugWithFields("HTTP request completed", fields)
	}
}

// LogItemOutcome logs what happened to a single relayed item
func LogItemOutcome(log Logger, index, total int, imageURL string, sent bool, err error) {
	l := log.WithFields(map[string]interface{}{
		"index":     index,
		"total":     total,
		"image_url": imageURL,
		"sent":      sent,
	})

	if err != nil {
		l.WithError(err).Warn("Item skipped")
		return
	}
	l.Debug("Item relayed")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}

func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
