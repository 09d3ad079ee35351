package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"

	ffmpegbin "github.com/seongjae6751/stream-module/internal/ffmpeg"
	"github.com/seongjae6751/stream-module/internal/logging"
)

var (
	// source could not be opened: missing file, unreachable stream, no video stream
	ErrSourceUnavailable = errors.New("video source unavailable")
	// no further frames can be read from the source
	ErrExhausted = errors.New("no more frames")
	// the subtitle extractor failed or produced nothing usable
	ErrExtraction = errors.New("subtitle extraction failed")
)

// video file information
type Info struct {
	Path        string
	Duration    time.Duration
	Width       int
	Height      int // as decoded, after display rotation
	Rotation    int
	FrameRate   float64
	Codec       string
	HasAudio    bool
	HasSubtitle bool
}

// defines interface for video processing operations
type Processor interface {
	// extracts the first subtitle stream into outputDir and returns its path
	ExtractSubtitle(
		ctx context.Context,
		videoPath, outputDir, name string,
	) (string, error)

	// retrieves video file information
	GetInfo(ctx context.Context, videoPath string) (*Info, error)
}

// default implementation using ffmpeg
type DefaultProcessor struct {
	paths  ffmpegbin.BinaryPaths
	logger *zap.SugaredLogger
}

func NewProcessor(paths ffmpegbin.BinaryPaths, logger *zap.SugaredLogger) *DefaultProcessor {
	return &DefaultProcessor{
		paths:  paths,
		logger: logging.OrNop(logger),
	}
}

// default artifact name for a video's extracted subtitle track
func SubtitleName(videoPath string) string {
	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	return base + "_subtitle.srt"
}

// runs ffmpeg with generated timestamps, mapping the first subtitle stream and
// overwriting any previous output
func (p *DefaultProcessor) ExtractSubtitle(
	ctx context.Context,
	videoPath, outputDir, name string,
) (string, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, videoPath, err)
	}

	if name == "" {
		name = SubtitleName(videoPath)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	subtitlePath := filepath.Join(outputDir, name)

	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.logger.Debugw("Extracting subtitle track",
		"video", videoPath,
		"output", subtitlePath,
		"ffmpeg", p.paths.FFmpeg,
	)

	var stderr bytes.Buffer
	err := ffmpeg.Input(videoPath, ffmpeg.KwArgs{
		"fflags": "+genpts", // Regenerate missing presentation timestamps
	}).
		Output(subtitlePath, ffmpeg.KwArgs{
			"map": "0:s:0", // First subtitle stream
		}).
		OverWriteOutput().
		SetFfmpegPath(p.paths.FFmpeg).
		WithErrorOutput(&stderr).
		Run()
	if err != nil {
		return "", fmt.Errorf("%w: %v: %s", ErrExtraction, err, lastLine(stderr.String()))
	}

	info, err := os.Stat(subtitlePath)
	if err != nil || info.Size() == 0 {
		return "", fmt.Errorf("%w: %s is empty", ErrExtraction, subtitlePath)
	}

	return subtitlePath, nil
}

// retrieves video file information
func (p *DefaultProcessor) GetInfo(
	ctx context.Context,
	videoPath string,
) (*Info, error) {
	return Probe(ctx, p.paths.FFprobe, videoPath)
}

// last non-empty line of tool output, which is where ffmpeg puts the reason
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// checks if the file is a video based on extension
func IsVideoFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	videoExts := map[string]bool{
		".mp4":  true,
		".mkv":  true,
		".avi":  true,
		".mov":  true,
		".wmv":  true,
		".flv":  true,
		".webm": true,
		".m4v":  true,
		".mpeg": true,
		".mpg":  true,
		".3gp":  true,
		".ts":   true,
	}
	return videoExts[ext]
}
