package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/seongjae6751/stream-module/internal/ffmpeg"
	"github.com/seongjae6751/stream-module/internal/stream"
	"github.com/seongjae6751/stream-module/internal/video"
)

var streamCmd = &cobra.Command{
	Use:   "stream [url]",
	Short: "Capture frames from a live stream at a fixed interval",
	Long: `Capture frames from a live stream until it ends or you press Ctrl+C.

Page URLs from video sites are resolved to the best rendition with yt-dlp.
Direct media URLs (rtsp, rtmp, srt, HLS/DASH manifests) and local files are
opened as-is. Frames are written as <prefix>_<n>.jpg, counting from 0.

Examples:
  streamcap stream https://www.youtube.com/watch?v=LIVE_ID
  streamcap stream rtsp://192.168.0.10:554/stream1 --interval 10s -d frames
  streamcap stream https://cdn.example/live.m3u8 --max-frames 100 --metrics-addr :9090`,
	Args: cobra.ExactArgs(1),
	RunE: runStream,
}

func init() {
	rootCmd.AddCommand(streamCmd)

	streamCmd.Flags().
		DurationP("interval", "i", 5*time.Second, "Pause between captures (or set STREAMCAP_INTERVAL)")
	streamCmd.Flags().
		StringP("output-dir", "d", ".", "Directory for captured frames (or set STREAMCAP_OUTPUT_DIR)")
	streamCmd.Flags().
		String("prefix", "capture", "File name prefix for captured frames")
	streamCmd.Flags().
		Int("max-frames", 0, "Stop after this many frames (0 = until the stream ends)")
	streamCmd.Flags().
		String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	streamCmd.Flags().
		IntP("quality", "q", 95, "JPEG quality 1-100 (or set STREAMCAP_JPEG_QUALITY)")
	streamCmd.Flags().
		Int("max-width", 0, "Downscale frames wider than this (0 = keep size)")
	streamCmd.Flags().
		String("yt-dlp", "", "Path to yt-dlp (or set STREAMCAP_YTDLP_PATH)")
}

func runStream(cmd *cobra.Command, args []string) error {
	pageURL := args[0]

	interval, _ := cmd.Flags().GetDuration("interval")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	prefix, _ := cmd.Flags().GetString("prefix")
	maxFrames, _ := cmd.Flags().GetInt("max-frames")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	quality, _ := cmd.Flags().GetInt("quality")
	maxWidth, _ := cmd.Flags().GetInt("max-width")
	ytDlp, _ := cmd.Flags().GetString("yt-dlp")

	if !cmd.Flags().Changed("interval") {
		interval = cfg.Interval
	}
	if !cmd.Flags().Changed("output-dir") {
		outputDir = cfg.OutputDir
	}
	if !cmd.Flags().Changed("quality") {
		quality = cfg.JPEGQuality
	}
	if metricsAddr == "" {
		metricsAddr = cfg.MetricsAddr
	}
	if ytDlp == "" {
		ytDlp = cfg.YtDlpPath
	}

	if err := validateStreamFlags(interval, maxFrames, quality, maxWidth); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths, err := ffmpeg.Ensure(ffmpeg.BinaryPaths{
		FFmpeg:  cfg.FFmpegPath,
		FFprobe: cfg.FFprobePath,
	})
	if err != nil {
		return fmt.Errorf("ffmpeg is not available: %w", err)
	}

	resolver := stream.AutoResolver{}
	if !stream.IsDirect(pageURL) {
		ytDlpPath, err := ffmpeg.YtDlpPath(ytDlp)
		if err != nil {
			return err
		}
		resolver.Fallback = stream.NewYtDlpResolver(ytDlpPath, logger.SugaredLogger)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := stream.NewMetrics(reg)

	if metricsAddr != "" {
		srv := stream.StartMetricsServer(metricsAddr, reg, logger.SugaredLogger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	logger.Infow("Starting stream capture",
		"url", pageURL,
		"interval", interval.String(),
		"output_dir", outputDir,
		"max_frames", maxFrames,
	)

	capturer := stream.NewCapturer(
		resolver,
		video.NewFFmpegOpener(paths, logger.SugaredLogger),
		nil,
		metrics,
		logger.SugaredLogger,
	)

	res, err := capturer.Run(ctx, pageURL, stream.Options{
		OutputDir: outputDir,
		Prefix:    prefix,
		Interval:  interval,
		MaxFrames: maxFrames,
		JPEG:      video.JPEGOptions{Quality: quality, MaxWidth: maxWidth},
	})
	if err != nil {
		return fmt.Errorf("stream capture failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Stream capture finished (%s)\n", res.Reason)
	fmt.Fprintf(out, "  Frames: %d\n", res.Frames)
	if res.LastPath != "" {
		fmt.Fprintf(out, "  Last frame: %s\n", res.LastPath)
	}

	return nil
}

func validateStreamFlags(interval time.Duration, maxFrames, quality, maxWidth int) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", interval)
	}
	if maxFrames < 0 {
		return fmt.Errorf("max-frames must not be negative, got %d", maxFrames)
	}
	if err := validateQuality(quality); err != nil {
		return err
	}
	if maxWidth < 0 {
		return fmt.Errorf("max-width must not be negative, got %d", maxWidth)
	}
	return nil
}

func validateQuality(quality int) error {
	if quality < 1 || quality > 100 {
		return fmt.Errorf("quality must be between 1 and 100, got %d", quality)
	}
	return nil
}
