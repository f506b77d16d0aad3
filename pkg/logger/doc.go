// Package logger provides a structured logging interface for newsrelay.
//
// It wraps the zerolog library with support for:
// - Log levels (debug, info, warn, error, disabled)
// - Structured logging with fields
// - Colored console output on stderr, or JSON lines appended to a file
// - A capturing TestLogger and a no-op logger for tests
//
// Basic Usage:
//
//	closer, err := logger.Initialize(&cfg.Logging)
//	if err != nil {
//	    return err
//	}
//	defer closer.Close()
//
//	log := logger.GetLogger().WithField("component", "downloader")
//	log.DebugWithFields("Image downloaded", map[string]interface{}{
//	    "url":  imageURL,
//	    "size": len(data),
//	})
//
// Stdout is reserved for the relay's progress report, so console logging
// always targets stderr.
package logger
