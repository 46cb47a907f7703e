package extract

import (
	"context"
	"errors"
	"strings"
)

// Classify maps a raw extractor error onto the failure taxonomy.
// hasCredentials reports whether a cookie file was available for the
// attempt: private content without credentials is permanent, while with
// credentials on hand an alternate strategy is still worth a retry.
// Unclassified errors default to retryable so the attempt cap, not the
// classifier, bounds them.
func Classify(err error, hasCredentials bool) *Error {
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Detail: err.Error(), Retryable: true}
	}

	detail := err.Error()
	lower := strings.ToLower(detail)

	switch {
	case strings.Contains(lower, "private"):
		return &Error{Kind: KindPrivate, Detail: detail, Retryable: hasCredentials}
	case strings.Contains(lower, "unavailable"):
		return &Error{Kind: KindUnavailable, Detail: detail, Retryable: false}
	case strings.Contains(lower, "not found"), strings.Contains(lower, "404"):
		return &Error{Kind: KindNotFound, Detail: detail, Retryable: false}
	case strings.Contains(lower, "geo"), strings.Contains(lower, "region"):
		return &Error{Kind: KindGeoBlocked, Detail: detail, Retryable: false}
	case strings.Contains(lower, "login"), strings.Contains(lower, "authentication"):
		return &Error{Kind: KindAuth, Detail: detail, Retryable: hasCredentials}
	case strings.Contains(lower, "cookie"):
		// A broken cookie file; the plain strategy may still work.
		return &Error{Kind: KindAuth, Detail: detail, Retryable: true}
	case strings.Contains(lower, "timeout"), strings.Contains(lower, "timed out"):
		return &Error{Kind: KindTimeout, Detail: detail, Retryable: true}
	case strings.Contains(lower, "network"), strings.Contains(lower, "connection"):
		return &Error{Kind: KindNetwork, Detail: detail, Retryable: true}
	case strings.Contains(lower, "format"):
		return &Error{Kind: KindFormat, Detail: detail, Retryable: false}
	default:
		return &Error{Kind: KindUnknown, Detail: detail, Retryable: true}
	}
}
