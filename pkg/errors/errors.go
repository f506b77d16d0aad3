package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
)

// Stage names the pipeline step an error came from
type Stage string

const (
	StageFetch    Stage = "fetch"
	StageDownload Stage = "download"
	StageSend     Stage = "send"
)

// Sentinels matched by errors.Is against an *Error of the same stage
var (
	ErrFetch    = stderrors.New("fetch failed")
	ErrDownload = stderrors.New("download failed")
	ErrSend     = stderrors.New("send failed")
)

// Error represents a failed HTTP step with stage information
type Error struct {
	Stage   Stage
	URL     string
	Code    int
	Timeout bool
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Timeout:
		return fmt.Sprintf("%s error (timeout): %s", e.Stage, msg)
	case e.Code != 0:
		return fmt.Sprintf("%s error (code %d): %s", e.Stage, e.Code, msg)
	default:
		return fmt.Sprintf("%s error: %s", e.Stage, msg)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's stage
func (e *Error) Is(target error) bool {
	return target == sentinel(e.Stage)
}

func sentinel(stage Stage) error {
	switch stage {
	case StageFetch:
		return ErrFetch
	case StageDownload:
		return ErrDownload
	case StageSend:
		return ErrSend
	default:
		return nil
	}
}

// NewFetchError builds a page fetch/parse error
func NewFetchError(url string, code int, err error) *Error {
	return newError(StageFetch, url, code, err)
}

// NewDownloadError builds an image download error
func NewDownloadError(url string, code int, err error) *Error {
	return newError(StageDownload, url, code, err)
}

// NewSendError builds a Bot API send error
func NewSendError(url string, code int, err error) *Error {
	return newError(StageSend, url, code, err)
}

func newError(stage Stage, url string, code int, err error) *Error {
	e := &Error{
		Stage:   stage,
		URL:     url,
		Code:    code,
		Err:     err,
		Timeout: IsTimeout(err),
	}
	if err != nil {
		e.Message = err.Error()
	}
	return e
}

// StatusError describes a non-success HTTP status
func StatusError(status int, detail string) error {
	if detail != "" {
		return fmt.Errorf("unexpected status code %d: %s", status, detail)
	}
	return fmt.Errorf("unexpected status code %d", status)
}

// IsTimeout reports whether err is a deadline or network timeout
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

// StageOf returns the stage of the first *Error in err's chain
func StageOf(err error) (Stage, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Stage, true
	}
	return "", false
}
