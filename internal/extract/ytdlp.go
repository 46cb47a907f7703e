package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"go.uber.org/zap"

	"clipqueue/internal/model"
)

const progressInterval = 500 * time.Millisecond

// YtDlp is the yt-dlp backed Extractor
type YtDlp struct {
	downloadDir string
	logger      *zap.Logger
}

// NewYtDlp creates an extractor writing artifacts into downloadDir
func NewYtDlp(downloadDir string, logger *zap.Logger) *YtDlp {
	return &YtDlp{downloadDir: downloadDir, logger: logger}
}

// Extract runs one yt-dlp attempt and returns the produced artifact
func (y *YtDlp) Extract(ctx context.Context, req Request) (*model.Artifact, error) {
	useCookies := req.Strategy == StrategyEnhanced && cookieFileExists(req.CookiePath)

	dl := ytdlp.New().
		NoPlaylist().
		ForceOverwrites().
		RestrictFilenames().
		Format(formatFor(req.Platform)).
		Output(filepath.Join(y.downloadDir, "%(id)s_%(uploader)s.%(ext)s"))

	if useCookies {
		dl = dl.Cookies(req.CookiePath)
		y.logger.Debug("using platform cookies",
			zap.String("platform", req.Platform.String()),
			zap.String("cookie_path", req.CookiePath),
		)
	}

	if req.Progress != nil {
		dl.ProgressFunc(progressInterval, func(update ytdlp.ProgressUpdate) {
			req.Progress(progressPercent(&update), progressRate(&update))
		})
	}

	result, err := dl.Run(ctx, req.URL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, Classify(err, useCookies)
	}

	return y.artifactFrom(result, useCookies)
}

// artifactFrom builds the artifact from the yt-dlp result metadata
func (y *YtDlp) artifactFrom(result *ytdlp.Result, usedCookies bool) (*model.Artifact, error) {
	infos, err := result.GetExtractedInfo()
	if err != nil || len(infos) == 0 {
		return nil, &Error{Kind: KindFormat, Detail: "no media info in extractor output", Retryable: false}
	}

	info := infos[0]
	if info.Filename == nil || *info.Filename == "" {
		return nil, &Error{Kind: KindFormat, Detail: "extractor produced no file", Retryable: false}
	}

	stat, err := os.Stat(*info.Filename)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Detail: fmt.Sprintf("stat artifact: %v", err), Retryable: true}
	}

	artifact := &model.Artifact{
		Path:      *info.Filename,
		SizeBytes: stat.Size(),
		Private:   artifactPrivate(info.Availability, usedCookies),
	}
	if info.Title != nil {
		artifact.Title = *info.Title
	}
	if info.Uploader != nil {
		artifact.AuthorHandle = *info.Uploader
	}
	if info.Duration != nil {
		artifact.DurationSeconds = int(*info.Duration)
	}
	return artifact, nil
}

// artifactPrivate reports whether the artifact is private content. The
// extractor's availability field is authoritative when present; otherwise
// needing cookies to fetch it is the best signal we have.
func artifactPrivate(availability *ytdlp.ExtractedAvailability, usedCookies bool) bool {
	if availability == nil {
		return usedCookies
	}
	return *availability == ytdlp.ExtractedAvailabilityPrivate
}

// formatFor mirrors per-platform quality caps: reels up to 1080p,
// the rest capped at 720p
func formatFor(platform model.Platform) string {
	switch platform {
	case model.PlatformInstagram, model.PlatformTikTok:
		return "mp4/best[height<=1080]/best"
	default:
		return "mp4/best[height<=720]/best"
	}
}

func cookieFileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func progressPercent(update *ytdlp.ProgressUpdate) int {
	if update.TotalBytes <= 0 {
		return 0
	}
	return int(float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100)
}

func progressRate(update *ytdlp.ProgressUpdate) string {
	if update.Started.IsZero() {
		return ""
	}
	elapsed := time.Since(update.Started)
	if elapsed.Seconds() <= 0 {
		return ""
	}
	bytesPerSecond := float64(update.DownloadedBytes) / elapsed.Seconds()
	return fmt.Sprintf("%.1fMB/s", bytesPerSecond/1024/1024)
}
