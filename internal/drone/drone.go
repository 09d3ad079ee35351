// Package drone ties subtitle extraction, GPS lookup and frame capture
// together for a recorded drone video.
package drone

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/seongjae6751/stream-module/internal/describe"
	"github.com/seongjae6751/stream-module/internal/gps"
	"github.com/seongjae6751/stream-module/internal/logging"
	"github.com/seongjae6751/stream-module/internal/subtitle"
	"github.com/seongjae6751/stream-module/internal/video"
)

// SubtitleExtractor writes a video's first subtitle track to outputDir and
// returns the artifact path. An empty name picks the default artifact name.
type SubtitleExtractor interface {
	ExtractSubtitle(ctx context.Context, videoPath, outputDir, name string) (string, error)
}

type Options struct {
	OutputDir     string
	TargetSeconds int
	GPS           gps.Options
	JPEG          video.JPEGOptions
	Report        bool   // write <image>.json next to the frame
	ImageName     string // overrides the generated frame file name
}

type Result struct {
	SubtitlePath string
	ImagePath    string
	ReportPath   string
	Timecode     string
	Location     gps.Coordinate
	LocationErr  error // malformed telemetry, the run still completes
	Description  string
}

// Report is the JSON sidecar written next to a captured frame.
type Report struct {
	RunID         string    `json:"run_id"`
	Video         string    `json:"video"`
	TargetSeconds int       `json:"target_seconds"`
	Timecode      string    `json:"timecode"`
	Latitude      *float64  `json:"latitude"`
	Longitude     *float64  `json:"longitude"`
	Subtitle      string    `json:"subtitle"`
	Image         string    `json:"image"`
	Description   string    `json:"description,omitempty"`
	CapturedAt    time.Time `json:"captured_at"`
}

type Processor struct {
	extractor SubtitleExtractor
	opener    video.Opener
	describer describe.Describer
	clock     clockwork.Clock
	logger    *zap.SugaredLogger
	newID     func() string
}

func NewProcessor(
	extractor SubtitleExtractor,
	opener video.Opener,
	clock clockwork.Clock,
	logger *zap.SugaredLogger,
) *Processor {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Processor{
		extractor: extractor,
		opener:    opener,
		clock:     clock,
		logger:    logging.OrNop(logger),
		newID:     uuid.NewString,
	}
}

// WithDescriber enables captioning of the captured frame.
func (p *Processor) WithDescriber(d describe.Describer) *Processor {
	p.describer = d
	return p
}

// ImageName builds <video>_capture_<T>s_<YYYYmmdd_HHMMSS>.jpg.
func ImageName(videoPath string, seconds int, at time.Time) string {
	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	return fmt.Sprintf("%s_capture_%ds_%s.jpg", base, seconds, at.Format("20060102_150405"))
}

// Process extracts the subtitle track, looks up the GPS position at the target
// second and saves the frame there. A missing or malformed position does not
// stop the capture; extraction and capture failures are returned.
func (p *Processor) Process(ctx context.Context, videoPath string, opts Options) (*Result, error) {
	if opts.TargetSeconds < 0 {
		return nil, fmt.Errorf("target time must not be negative, got %d", opts.TargetSeconds)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	res := &Result{Timecode: subtitle.FormatTimecode(opts.TargetSeconds)}

	subtitlePath, err := p.extractor.ExtractSubtitle(ctx, videoPath, opts.OutputDir, "")
	if err != nil {
		return nil, err
	}
	res.SubtitlePath = subtitlePath
	p.logger.Infow("Subtitle extracted", "path", subtitlePath)

	lines, err := subtitle.ReadLines(subtitlePath)
	if err != nil {
		return res, err
	}

	coord, err := gps.Lookup(lines, opts.TargetSeconds, opts.GPS)
	switch {
	case errors.Is(err, gps.ErrMalformedPayload):
		p.logger.Warnw("Malformed GPS telemetry", "timecode", res.Timecode, "error", err)
		res.LocationErr = err
	case err != nil:
		return res, err
	}
	res.Location = coord

	if coord.Valid() {
		p.logger.Infow("GPS position", "timecode", res.Timecode, "lat", coord.Lat, "lon", coord.Lon)
	} else {
		p.logger.Infow("GPS position not found", "timecode", res.Timecode, "partial", coord.String())
	}

	capturedAt := p.clock.Now()
	name := opts.ImageName
	if name == "" {
		name = ImageName(videoPath, opts.TargetSeconds, capturedAt)
	}
	res.ImagePath = filepath.Join(opts.OutputDir, name)

	if err := video.CaptureAt(ctx, p.opener, videoPath, float64(opts.TargetSeconds), res.ImagePath, opts.JPEG); err != nil {
		return res, fmt.Errorf("failed to capture frame at %ds: %w", opts.TargetSeconds, err)
	}
	p.logger.Infow("Frame saved", "path", res.ImagePath)

	if p.describer != nil {
		desc, err := p.describer.Describe(ctx, res.ImagePath, describe.Scene{
			Video:    filepath.Base(videoPath),
			Timecode: res.Timecode,
			Location: coord,
		})
		if err != nil {
			p.logger.Warnw("Failed to describe frame", "error", err)
		} else {
			res.Description = desc
		}
	}

	if opts.Report {
		reportPath := res.ImagePath + ".json"
		if err := writeReport(reportPath, p.report(videoPath, opts, res, capturedAt)); err != nil {
			return res, err
		}
		res.ReportPath = reportPath
		p.logger.Infow("Report written", "path", reportPath)
	}

	return res, nil
}

func (p *Processor) report(videoPath string, opts Options, res *Result, at time.Time) Report {
	r := Report{
		RunID:         p.newID(),
		Video:         videoPath,
		TargetSeconds: opts.TargetSeconds,
		Timecode:      res.Timecode,
		Subtitle:      res.SubtitlePath,
		Image:         res.ImagePath,
		Description:   res.Description,
		CapturedAt:    at,
	}
	if res.Location.HasLat {
		lat := res.Location.Lat
		r.Latitude = &lat
	}
	if res.Location.HasLon {
		lon := res.Location.Lon
		r.Longitude = &lon
	}
	return r
}

func writeReport(path string, r Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
