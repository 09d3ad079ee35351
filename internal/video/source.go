package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"

	ffmpegbin "github.com/seongjae6751/stream-module/internal/ffmpeg"
	"github.com/seongjae6751/stream-module/internal/logging"
)

// Source is an open decoding handle on a file or stream. It must be closed on
// every exit path.
type Source interface {
	// FrameRate reports the source frame rate, 0 when unknown.
	FrameRate() float64
	// Seek positions the next Read at the given frame index.
	Seek(frame int) error
	// Read decodes the next available frame. It returns ErrExhausted when the
	// source has no more frames.
	Read(ctx context.Context) (image.Image, error)
	Close() error
}

// Opener acquires decoding handles.
type Opener interface {
	Open(ctx context.Context, src string) (Source, error)
}

// FFmpegOpener decodes through an ffmpeg child process that writes raw RGBA
// frames to a pipe.
type FFmpegOpener struct {
	paths  ffmpegbin.BinaryPaths
	logger *zap.SugaredLogger
}

func NewFFmpegOpener(paths ffmpegbin.BinaryPaths, logger *zap.SugaredLogger) *FFmpegOpener {
	return &FFmpegOpener{paths: paths, logger: logging.OrNop(logger)}
}

// Open probes src for its geometry and frame rate. Decoding starts lazily on
// the first Read so that a Seek beforehand costs nothing.
func (o *FFmpegOpener) Open(ctx context.Context, src string) (Source, error) {
	info, err := Probe(ctx, o.paths.FFprobe, src)
	if err != nil {
		return nil, err
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("%w: %s has no video stream", ErrSourceUnavailable, src)
	}

	o.logger.Debugw("Opened video source",
		"source", src,
		"width", info.Width,
		"height", info.Height,
		"fps", info.FrameRate,
	)

	return &ffmpegSource{
		src:        src,
		ffmpegPath: o.paths.FFmpeg,
		info:       info,
		logger:     o.logger,
	}, nil
}

type ffmpegSource struct {
	src        string
	ffmpegPath string
	info       *Info
	logger     *zap.SugaredLogger

	mu     sync.Mutex
	start  int
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr bytes.Buffer
	cancel context.CancelFunc
	closed bool
}

func (s *ffmpegSource) FrameRate() float64 {
	return s.info.FrameRate
}

func (s *ffmpegSource) Seek(frame int) error {
	if frame < 0 {
		return fmt.Errorf("invalid frame index %d", frame)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("seek on closed source")
	}
	s.stop()
	s.start = frame
	return nil
}

func (s *ffmpegSource) Read(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("read on closed source")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.cmd == nil {
		if err := s.startDecoder(ctx); err != nil {
			return nil, err
		}
	}

	width, height := s.info.Width, s.info.Height
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	if _, err := io.ReadFull(s.stdout, img.Pix); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			s.logger.Debugw("Decoder reached end of source",
				"source", s.src,
				"stderr", lastLine(s.stderr.String()),
			)
			return nil, ErrExhausted
		}
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}

	// the next frame continues from where this decoder is
	s.start++
	return img, nil
}

func (s *ffmpegSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.stop()
	return nil
}

func (s *ffmpegSource) startDecoder(ctx context.Context) error {
	procCtx, cancel := context.WithCancel(ctx)

	cmd := exec.CommandContext(procCtx, s.ffmpegPath, s.args()...)
	s.stderr.Reset()
	cmd.Stderr = &s.stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("failed to attach decoder output: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("%w: start ffmpeg: %v", ErrSourceUnavailable, err)
	}

	s.cmd = cmd
	s.stdout = stdout
	s.cancel = cancel
	return nil
}

// kills the running decoder, if any, and reaps it
func (s *ffmpegSource) stop() {
	if s.cmd == nil {
		return
	}
	s.cancel()
	_ = s.cmd.Wait()
	s.cmd = nil
	s.stdout = nil
	s.cancel = nil
}

func (s *ffmpegSource) args() []string {
	output := ffmpeg.KwArgs{
		"f":       "rawvideo",
		"pix_fmt": "rgba",
	}
	if s.start > 0 {
		// exact frame positioning; -ss would land on the nearest keyframe
		output["vf"] = fmt.Sprintf("select=gte(n\\,%d)", s.start)
		output["fps_mode"] = "passthrough"
	}

	return ffmpeg.Input(s.src, ffmpeg.KwArgs{
		"hide_banner": "",
		"loglevel":    "error",
	}).
		Output("pipe:", output).
		GetArgs()
}
