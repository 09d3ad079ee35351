package stream

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/seongjae6751/stream-module/internal/logging"
)

// ErrNoStream means no playable rendition could be resolved for a page URL.
var ErrNoStream = errors.New("no playable stream")

// swapped in tests
var execCommand = exec.CommandContext

// Resolver turns a video-sharing page URL into a direct media URL.
type Resolver interface {
	Resolve(ctx context.Context, pageURL string) (string, error)
}

// YtDlpResolver asks yt-dlp for the best combined rendition.
type YtDlpResolver struct {
	path   string
	format string
	logger *zap.SugaredLogger
}

func NewYtDlpResolver(path string, logger *zap.SugaredLogger) *YtDlpResolver {
	return &YtDlpResolver{
		path:   path,
		format: "best",
		logger: logging.OrNop(logger),
	}
}

func (r *YtDlpResolver) Resolve(ctx context.Context, pageURL string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := execCommand(ctx, r.path,
		"--get-url",
		"--format", r.format,
		"--no-playlist",
		"--no-warnings",
		pageURL,
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debugw("Resolving stream", "url", pageURL, "format", r.format)

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %s: %v: %s", ErrNoStream, pageURL, err, strings.TrimSpace(stderr.String()))
	}

	scanner := bufio.NewScanner(&stdout)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			return line, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrNoStream, pageURL)
}

var directSchemes = map[string]bool{
	"rtsp":  true,
	"rtsps": true,
	"rtmp":  true,
	"rtmps": true,
	"srt":   true,
	"udp":   true,
	"tcp":   true,
	"file":  true,
}

var directExts = map[string]bool{
	".m3u8": true,
	".mpd":  true,
	".mp4":  true,
	".ts":   true,
	".flv":  true,
	".mkv":  true,
	".webm": true,
}

// IsDirect reports whether raw already names something ffmpeg can open:
// a streaming protocol, a manifest or media file URL, or a local path.
// Scheme-less input that starts with a host name ("youtube.com/watch?v=x")
// is a page URL unless a file by that name exists.
func IsDirect(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme == "" {
		if raw == "" {
			return false
		}
		if _, err := os.Stat(raw); err == nil {
			return true
		}
		return !hostLike(raw)
	}
	if directSchemes[strings.ToLower(u.Scheme)] {
		return true
	}
	return directExts[strings.ToLower(path.Ext(u.Path))]
}

func hostLike(raw string) bool {
	if strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, ".") {
		return false
	}
	first, _, _ := strings.Cut(raw, "/")
	first, _, _ = strings.Cut(first, "?")
	if directExts[strings.ToLower(path.Ext(first))] {
		// a bare media file name such as clip.mp4
		return false
	}
	return strings.Contains(first, ".")
}

// DirectResolver passes direct media URLs through untouched.
type DirectResolver struct{}

func (DirectResolver) Resolve(_ context.Context, raw string) (string, error) {
	if !IsDirect(raw) {
		return "", fmt.Errorf("%w: %s is not a direct media URL", ErrNoStream, raw)
	}
	return raw, nil
}

// AutoResolver uses the direct URL when possible and falls back otherwise.
type AutoResolver struct {
	Fallback Resolver
}

func (a AutoResolver) Resolve(ctx context.Context, raw string) (string, error) {
	if IsDirect(raw) {
		return raw, nil
	}
	if a.Fallback == nil {
		return "", fmt.Errorf("%w: no resolver for %s", ErrNoStream, raw)
	}
	return a.Fallback.Resolve(ctx, raw)
}
