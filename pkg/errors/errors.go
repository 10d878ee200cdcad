package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/sunzhengang/github-topics-trending/pkg/logger"
)

type ErrorLevel int

const (
	LevelFatal ErrorLevel = iota + 1
	LevelError
	LevelWarning
	LevelInfo
)

func (l ErrorLevel) String() string {
	return [...]string{"", "Fatal", "Error", "Warning", "Info"}[l]
}

const (
	RefConfig         = "CONFIG_ERROR"
	RefGitHubAPI      = "GITHUB_API_ERROR"
	RefRateLimited    = "GITHUB_RATE_LIMITED"
	RefTransport      = "GITHUB_TRANSPORT_ERROR"
	RefNotFound       = "REPOSITORY_NOT_FOUND"
	RefInvalidRequest = "INVALID_REQUEST"
	RefQueue          = "QUEUE_ERROR"
)

type ApplicationError struct {
	Reference   string
	Title       string
	Detail      string
	RootCause   error
	Level       ErrorLevel
	Status      int
	OccurredAt  time.Time
	CallerTrace []string
}

func (e *ApplicationError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s][%s] %s", e.OccurredAt.Format(time.RFC3339), e.Reference, e.Title)

	if e.Detail != "" {
		fmt.Fprintf(&b, " - %s", e.Detail)
	}

	if e.RootCause != nil {
		fmt.Fprintf(&b, " (caused by: %v)", e.RootCause)
	}

	return b.String()
}

func (e *ApplicationError) Unwrap() error {
	return e.RootCause
}

func New(ref, title, detail string, cause error, level ErrorLevel) *ApplicationError {
	return &ApplicationError{
		Reference:   ref,
		Title:       title,
		Detail:      detail,
		RootCause:   cause,
		Level:       level,
		OccurredAt:  time.Now().UTC(),
		CallerTrace: captureCallerInfo(3),
	}
}

func Wrap(ref, title, detail string, cause error, level ErrorLevel) *ApplicationError {
	return New(ref, title, detail, cause, level)
}

// * WithStatus pins the HTTP status WriteHTTPError answers with, instead of the level mapping
func (e *ApplicationError) WithStatus(status int) *ApplicationError {
	e.Status = status
	return e
}

// * HasReference reports whether err carries an ApplicationError with the given reference
func HasReference(err error, ref string) bool {
	var appErr *ApplicationError
	return errors.As(err, &appErr) && appErr.Reference == ref
}

func captureCallerInfo(skip int) []string {
	pc := make([]uintptr, 10)
	n := runtime.Callers(skip, pc)
	if n == 0 {
		return nil
	}

	pc = pc[:n]
	frames := runtime.CallersFrames(pc)

	var trace []string
	for {
		frame, more := frames.Next()
		trace = append(trace, fmt.Sprintf("%s:%d %s", frame.File, frame.Line, frame.Function))
		if !more {
			break
		}
	}

	return trace
}

// * resolutions overrides the level's generic hint for references the caller can act on
var resolutions = map[string]string{
	RefRateLimited:    "Retry once the GitHub rate limit resets, or set GITHUB_TOKEN for a larger quota",
	RefNotFound:       "Check the owner and repository name",
	RefInvalidRequest: "Please review your request and try again",
	RefQueue:          "Set RABBITMQ_URL and make sure the broker is reachable",
}

type HTTPErrorResponse struct {
	Status     int       `json:"status"`
	ErrorRef   string    `json:"error_reference,omitempty"`
	Title      string    `json:"title"`
	Detail     string    `json:"detail,omitempty"`
	Resolution string    `json:"resolution,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func WriteHTTPError(w http.ResponseWriter, err error) {
	var appErr *ApplicationError

	resp := HTTPErrorResponse{
		Status:    http.StatusInternalServerError,
		Title:     "An unexpected error occurred",
		Timestamp: time.Now().UTC(),
	}

	if errors.As(err, &appErr) {
		resp.ErrorRef = appErr.Reference
		resp.Title = appErr.Title
		resp.Detail = appErr.Detail

		switch appErr.Level {
		case LevelFatal:
			resp.Status = http.StatusInternalServerError
			resp.Resolution = "Please contact support with the error reference"
		case LevelError:
			resp.Status = http.StatusBadRequest
		case LevelWarning:
			resp.Status = http.StatusConflict
			resp.Resolution = "Please review your request and try again"
		case LevelInfo:
			resp.Status = http.StatusOK
		}

		if appErr.Status != 0 {
			resp.Status = appErr.Status
		}
		if hint, ok := resolutions[appErr.Reference]; ok {
			resp.Resolution = hint
		}
	} else {
		resp.Detail = err.Error()
	}

	logger.Error("%v", err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	json.NewEncoder(w).Encode(resp)
}
