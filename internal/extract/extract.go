// Package extract defines the extraction port of the queue engine: the
// contract for fetching a media artifact from a submitted URL, the
// attempt strategies cycled on retry, and the typed failure taxonomy.
// The default implementation drives yt-dlp via github.com/lrstanley/go-ytdlp.
package extract

import (
	"context"
	"fmt"

	"clipqueue/internal/model"
)

// Strategy names one extraction method. Retries are not pure repeats:
// the scheduler cycles through strategies by attempt index.
type Strategy string

const (
	// StrategyEnhanced uses platform cookies when configured
	StrategyEnhanced Strategy = "enhanced"

	// StrategyPlain goes in without credentials
	StrategyPlain Strategy = "plain"
)

// Strategies is the fixed attempt ladder, in order
var Strategies = []Strategy{StrategyEnhanced, StrategyPlain}

// StrategyFor returns the strategy for a zero-based attempt index
func StrategyFor(attempt int) Strategy {
	return Strategies[attempt%len(Strategies)]
}

// Request carries one extraction attempt
type Request struct {
	URL        string
	Platform   model.Platform
	CookiePath string // platform cookie file, empty when not configured
	Strategy   Strategy

	// Progress, when set, receives display snapshots during the transfer.
	// It must not block.
	Progress func(percent int, rate string)
}

// Extractor performs the actual network fetch of media
type Extractor interface {
	Extract(ctx context.Context, req Request) (*model.Artifact, error)
}

// ErrorKind classifies an extraction failure
type ErrorKind string

const (
	KindPrivate     ErrorKind = "private"
	KindUnavailable ErrorKind = "unavailable"
	KindNotFound    ErrorKind = "not_found"
	KindGeoBlocked  ErrorKind = "geo_blocked"
	KindAuth        ErrorKind = "auth"
	KindNetwork     ErrorKind = "network"
	KindTimeout     ErrorKind = "timeout"
	KindFormat      ErrorKind = "format"
	KindLimit       ErrorKind = "limit"
	KindUnknown     ErrorKind = "unknown"
)

// Error is a typed extraction failure
type Error struct {
	Kind      ErrorKind
	Detail    string
	Retryable bool
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("extraction failed (%s): %s", e.Kind, e.Detail)
}

// UserMessage returns the single human-readable reason shown to the
// owner. Raw internal detail never leaks here.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindPrivate:
		return "This video is private and could not be accessed."
	case KindUnavailable:
		return "This video is unavailable. It might have been deleted or restricted."
	case KindNotFound:
		return "Video not found. The link might be broken or the video was deleted."
	case KindGeoBlocked:
		return "This video is blocked in your region."
	case KindAuth:
		return "This video requires authentication that is not available."
	case KindNetwork:
		return "Network error. Please try again in a moment."
	case KindTimeout:
		return "Download timed out. The video might be too large or the server is slow."
	case KindFormat:
		return "Video format not supported or no suitable format found."
	case KindLimit:
		return "The video exceeds the allowed size or duration limit."
	default:
		detail := e.Detail
		if len(detail) > 100 {
			detail = detail[:100] + "..."
		}
		return "Download failed: " + detail
	}
}
