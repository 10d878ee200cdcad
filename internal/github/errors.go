package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	gh "github.com/google/go-github/v80/github"

	apperrors "github.com/sunzhengang/github-topics-trending/pkg/errors"
)

// * classify turns a failed page request into a stop reason, a retryable
// * flag and an ApplicationError describing it
func classify(ctx context.Context, err error, what string) (StopReason, bool, error) {
	if ctx.Err() != nil {
		return StopCancelled, false, apperrors.New(
			apperrors.RefTransport,
			"Fetch cancelled",
			fmt.Sprintf("Context ended while fetching %s", what),
			ctx.Err(),
			apperrors.LevelWarning,
		)
	}

	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return StopRateLimited, true, apperrors.New(
			apperrors.RefRateLimited,
			"GitHub API rate limit exceeded",
			fmt.Sprintf("Rate limited while fetching %s", what),
			err,
			apperrors.LevelWarning,
		).WithStatus(http.StatusTooManyRequests)
	}

	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		status := respErr.Response.StatusCode
		switch {
		case status == http.StatusTooManyRequests:
			return StopRateLimited, true, apperrors.New(
				apperrors.RefRateLimited,
				"GitHub API rate limit exceeded",
				fmt.Sprintf("GitHub API returned status %d when fetching %s", status, what),
				err,
				apperrors.LevelWarning,
			).WithStatus(http.StatusTooManyRequests)
		case status == http.StatusNotFound:
			return StopRequestFailed, false, apperrors.New(
				apperrors.RefNotFound,
				"Repository not found on GitHub",
				fmt.Sprintf("GitHub API returned 404 when fetching %s", what),
				err,
				apperrors.LevelInfo,
			).WithStatus(http.StatusNotFound)
		default:
			return StopRequestFailed, status >= 500, apperrors.New(
				apperrors.RefGitHubAPI,
				"Unexpected response from GitHub API",
				fmt.Sprintf("GitHub API returned status %d when fetching %s", status, what),
				err,
				apperrors.LevelError,
			).WithStatus(http.StatusBadGateway)
		}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return StopMalformedPayload, false, apperrors.New(
			apperrors.RefGitHubAPI,
			"Failed to parse GitHub API response",
			fmt.Sprintf("Could not understand the response for %s", what),
			err,
			apperrors.LevelError,
		).WithStatus(http.StatusBadGateway)
	}

	var netErr net.Error
	timeout := errors.As(err, &netErr) && netErr.Timeout()
	return StopRequestFailed, timeout, apperrors.New(
		apperrors.RefTransport,
		"Failed to reach GitHub API",
		fmt.Sprintf("Could not connect to GitHub API to retrieve %s", what),
		err,
		apperrors.LevelError,
	).WithStatus(http.StatusBadGateway)
}

// * IsNotFound reports whether err came from a 404 answer
func IsNotFound(err error) bool {
	return apperrors.HasReference(err, apperrors.RefNotFound)
}

// * IsRateLimited reports whether err came from a rate-limit rejection
func IsRateLimited(err error) bool {
	return apperrors.HasReference(err, apperrors.RefRateLimited)
}
