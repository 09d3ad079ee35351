package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seongjae6751/stream-module/internal/describe"
	"github.com/seongjae6751/stream-module/internal/drone"
	"github.com/seongjae6751/stream-module/internal/ffmpeg"
	"github.com/seongjae6751/stream-module/internal/gps"
	"github.com/seongjae6751/stream-module/internal/video"
)

var droneCmd = &cobra.Command{
	Use:   "drone [video_file]",
	Short: "Save the frame and GPS position at a given second of a drone video",
	Long: `Extract the telemetry subtitle track of a drone video, look up the GPS
position at the target second and save the frame at that second.

When the telemetry has "n/a" at the target, the nearest populated positions
before and after are averaged. A missing position does not stop the capture.

The frame is saved as <video>_capture_<T>s_<YYYYmmdd_HHMMSS>.jpg. With --report
a JSON sidecar with the position is written next to it; with --describe an AI
provider captions the frame.

Examples:
  streamcap drone DJI_0001.MP4 --time 42
  streamcap drone DJI_0001.MP4 -t 42 -d out --report
  streamcap drone DJI_0001.MP4 -t 42 --describe --provider openai`,
	Args: cobra.ExactArgs(1),
	RunE: runDrone,
}

func init() {
	rootCmd.AddCommand(droneCmd)

	droneCmd.Flags().
		IntP("time", "t", 0, "Target time in seconds (required)")
	droneCmd.Flags().
		String("ffmpeg", "", "Path to ffmpeg (or set STREAMCAP_FFMPEG_PATH)")
	droneCmd.Flags().
		StringP("output-dir", "d", "", "Directory for the subtitle, frame and report (or set STREAMCAP_OUTPUT_DIR)")
	droneCmd.Flags().
		String("name", "", "Frame file name (default <video>_capture_<T>s_<timestamp>.jpg)")
	droneCmd.Flags().
		Int("max-scan", 0, "Lines to search around an n/a position (0 = whole track, or set STREAMCAP_MAX_SCAN)")
	droneCmd.Flags().
		IntP("quality", "q", 95, "JPEG quality 1-100 (or set STREAMCAP_JPEG_QUALITY)")
	droneCmd.Flags().
		Int("max-width", 0, "Downscale frames wider than this (0 = keep size)")
	droneCmd.Flags().
		Bool("report", false, "Write a JSON report next to the frame")
	droneCmd.Flags().
		Bool("describe", false, "Caption the frame with an AI provider")
	droneCmd.Flags().
		String("provider", "", "Caption provider (gemini, openai, anthropic)")
	droneCmd.Flags().
		StringP("api-key", "k", "", "API key (or set GEMINI_API_KEY/OPENAI_API_KEY/ANTHROPIC_API_KEY)")
	droneCmd.Flags().
		String("model", "", "Caption model (provider-specific, uses sensible defaults)")

	_ = droneCmd.MarkFlagRequired("time")
}

func runDrone(cmd *cobra.Command, args []string) error {
	videoPath := args[0]

	target, _ := cmd.Flags().GetInt("time")
	ffmpegPath, _ := cmd.Flags().GetString("ffmpeg")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	name, _ := cmd.Flags().GetString("name")
	maxScan, _ := cmd.Flags().GetInt("max-scan")
	quality, _ := cmd.Flags().GetInt("quality")
	maxWidth, _ := cmd.Flags().GetInt("max-width")
	report, _ := cmd.Flags().GetBool("report")
	describeFrame, _ := cmd.Flags().GetBool("describe")
	providerStr, _ := cmd.Flags().GetString("provider")
	apiKey, _ := cmd.Flags().GetString("api-key")
	model, _ := cmd.Flags().GetString("model")

	if outputDir == "" {
		outputDir = cfg.OutputDir
	}
	if !cmd.Flags().Changed("max-scan") {
		maxScan = cfg.MaxScan
	}
	if !cmd.Flags().Changed("quality") {
		quality = cfg.JPEGQuality
	}
	if ffmpegPath == "" {
		ffmpegPath = cfg.FFmpegPath
	}
	if providerStr == "" {
		providerStr = cfg.DescribeProvider
	}

	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return fmt.Errorf("video file not found: %s", videoPath)
	}
	if !video.IsVideoFile(videoPath) {
		return fmt.Errorf("unsupported file type: %s (expected a video file)", filepath.Ext(videoPath))
	}
	if err := validateTarget(target); err != nil {
		return err
	}
	if maxScan < 0 {
		return fmt.Errorf("max-scan must not be negative, got %d", maxScan)
	}
	if err := validateQuality(quality); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths, err := ffmpeg.Ensure(ffmpeg.BinaryPaths{
		FFmpeg:  ffmpegPath,
		FFprobe: cfg.FFprobePath,
	})
	if err != nil {
		return fmt.Errorf("ffmpeg is not available: %w", err)
	}

	processor := drone.NewProcessor(
		video.NewProcessor(paths, logger.SugaredLogger),
		video.NewFFmpegOpener(paths, logger.SugaredLogger),
		nil,
		logger.SugaredLogger,
	)

	if describeFrame {
		provider := describe.Provider(providerStr)
		if apiKey == "" {
			apiKey = cfg.APIKey(providerStr)
		}
		if apiKey == "" {
			return fmt.Errorf(
				"API key is required for --describe: use --api-key flag or set %s environment variable",
				apiKeyEnvVar(provider),
			)
		}

		describer, err := describe.Factory(ctx, provider, apiKey, describe.Options{Model: model})
		if err != nil {
			return fmt.Errorf("failed to create describer: %w", err)
		}
		processor.WithDescriber(describer)
	}

	logger.Infow("Processing drone video",
		"video", videoPath,
		"target_seconds", target,
		"output_dir", outputDir,
		"max_scan", maxScan,
	)

	res, err := processor.Process(ctx, videoPath, drone.Options{
		OutputDir:     outputDir,
		TargetSeconds: target,
		GPS:           gps.Options{MaxDistance: maxScan},
		JPEG:          video.JPEGOptions{Quality: quality, MaxWidth: maxWidth},
		Report:        report,
		ImageName:     name,
	})
	if err != nil {
		return fmt.Errorf("drone processing failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if res.Location.Valid() {
		fmt.Fprintf(out, "GPS at %s: lat %v, lon %v\n", res.Timecode, res.Location.Lat, res.Location.Lon)
	} else {
		fmt.Fprintf(out, "GPS at %s: not found\n", res.Timecode)
	}
	absImage, _ := filepath.Abs(res.ImagePath)
	fmt.Fprintf(out, "Frame saved: %s\n", absImage)
	fmt.Fprintf(out, "  Subtitle: %s\n", res.SubtitlePath)
	if res.ReportPath != "" {
		fmt.Fprintf(out, "  Report: %s\n", res.ReportPath)
	}
	if res.Description != "" {
		fmt.Fprintf(out, "  Description: %s\n", res.Description)
	}

	return nil
}

func validateTarget(seconds int) error {
	if seconds < 0 {
		return fmt.Errorf("time must not be negative, got %d", seconds)
	}
	return nil
}

func apiKeyEnvVar(provider describe.Provider) string {
	switch provider {
	case describe.ProviderGemini:
		return "GEMINI_API_KEY"
	case describe.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case describe.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return "API_KEY"
	}
}
