// Package stream captures frames from a live stream at a fixed interval.
package stream

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/seongjae6751/stream-module/internal/logging"
	"github.com/seongjae6751/stream-module/internal/video"
)

// StopReason says why a capture loop ended without error.
type StopReason string

const (
	StopExhausted   StopReason = "exhausted"
	StopInterrupted StopReason = "interrupted"
	StopMaxFrames   StopReason = "max-frames"
)

// Options configures one capture run.
type Options struct {
	OutputDir string
	Prefix    string        // file name prefix, "capture" when empty
	Interval  time.Duration // pause after each saved frame
	MaxFrames int           // stop after this many frames, 0 for no limit
	JPEG      video.JPEGOptions
}

// Result summarises a finished capture run.
type Result struct {
	Frames   int
	LastPath string
	Reason   StopReason
}

// Capturer runs the resolve, open, read/write/sleep loop.
type Capturer struct {
	resolver Resolver
	opener   video.Opener
	clock    clockwork.Clock
	metrics  *Metrics
	logger   *zap.SugaredLogger
}

func NewCapturer(
	resolver Resolver,
	opener video.Opener,
	clock clockwork.Clock,
	metrics *Metrics,
	logger *zap.SugaredLogger,
) *Capturer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Capturer{
		resolver: resolver,
		opener:   opener,
		clock:    clock,
		metrics:  metrics,
		logger:   logging.OrNop(logger),
	}
}

// Run captures frames from pageURL until the stream ends, ctx is cancelled,
// or MaxFrames is reached. Those are normal terminations; any other read or
// write failure is returned as an error. The decoding handle is always released.
func (c *Capturer) Run(ctx context.Context, pageURL string, opts Options) (*Result, error) {
	if opts.Interval < 0 {
		return nil, fmt.Errorf("interval must not be negative, got %v", opts.Interval)
	}
	if opts.Prefix == "" {
		opts.Prefix = "capture"
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}

	streamURL, err := c.resolver.Resolve(ctx, pageURL)
	if err != nil {
		if ctx.Err() != nil {
			return &Result{Reason: StopInterrupted}, nil
		}
		return nil, err
	}

	c.logger.Infow("Resolved stream", "url", pageURL)
	c.logger.Debugw("Stream media URL", "media_url", streamURL)

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	source, err := c.opener.Open(ctx, streamURL)
	if err != nil {
		if ctx.Err() != nil {
			return &Result{Reason: StopInterrupted}, nil
		}
		return nil, err
	}
	defer func() {
		if err := source.Close(); err != nil {
			c.logger.Warnw("Failed to release stream", "error", err)
		}
	}()

	c.metrics.Running.Set(1)
	defer c.metrics.Running.Set(0)

	return c.loop(ctx, source, opts)
}

func (c *Capturer) loop(ctx context.Context, source video.Source, opts Options) (*Result, error) {
	res := &Result{}

	for {
		img, err := source.Read(ctx)
		switch {
		case err == nil:
		case errors.Is(err, video.ErrExhausted):
			c.logger.Infow("Stream ended", "frames", res.Frames)
			res.Reason = StopExhausted
			return res, nil
		case ctx.Err() != nil:
			c.logger.Infow("Capture interrupted", "frames", res.Frames)
			res.Reason = StopInterrupted
			return res, nil
		default:
			c.metrics.CaptureErrors.Inc()
			return res, fmt.Errorf("failed to read frame %d: %w", res.Frames, err)
		}

		path := filepath.Join(opts.OutputDir, fmt.Sprintf("%s_%d.jpg", opts.Prefix, res.Frames))
		if err := video.WriteJPEG(path, img, opts.JPEG); err != nil {
			c.metrics.CaptureErrors.Inc()
			return res, fmt.Errorf("failed to save frame %d: %w", res.Frames, err)
		}

		res.Frames++
		res.LastPath = path
		c.metrics.FramesCaptured.Inc()
		c.metrics.LastCapture.Set(float64(c.clock.Now().Unix()))
		c.logger.Infow("Saved frame", "path", path, "count", res.Frames)

		if opts.MaxFrames > 0 && res.Frames >= opts.MaxFrames {
			res.Reason = StopMaxFrames
			return res, nil
		}

		select {
		case <-ctx.Done():
			c.logger.Infow("Capture interrupted", "frames", res.Frames)
			res.Reason = StopInterrupted
			return res, nil
		case <-c.clock.After(opts.Interval):
		}
	}
}
