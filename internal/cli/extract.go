package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seongjae6751/stream-module/internal/ffmpeg"
	"github.com/seongjae6751/stream-module/internal/video"
)

var extractCmd = &cobra.Command{
	Use:   "extract [video_file]",
	Short: "Extract the first subtitle track from a video file",
	Long: `Extract the first subtitle stream of a video file (for drone footage,
the per-frame telemetry track) into an SRT file.

Examples:
  streamcap extract DJI_0001.MP4
  streamcap extract DJI_0001.MP4 -d out --name telemetry.srt`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().
		StringP("output-dir", "d", "", "Output directory (or set STREAMCAP_OUTPUT_DIR)")
	extractCmd.Flags().
		String("name", "", "Output file name (default <video>_subtitle.srt)")
	extractCmd.Flags().
		String("ffmpeg", "", "Path to ffmpeg (or set STREAMCAP_FFMPEG_PATH)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	videoPath := args[0]

	outputDir, _ := cmd.Flags().GetString("output-dir")
	name, _ := cmd.Flags().GetString("name")
	ffmpegPath, _ := cmd.Flags().GetString("ffmpeg")

	if outputDir == "" {
		outputDir = cfg.OutputDir
	}
	if ffmpegPath == "" {
		ffmpegPath = cfg.FFmpegPath
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

	logger.Infow("Extracting subtitle track",
		"video", videoPath,
		"output_dir", outputDir,
	)

	processor := video.NewProcessor(paths, logger.SugaredLogger)
	subtitlePath, err := processor.ExtractSubtitle(ctx, videoPath, outputDir, name)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	absOutput, _ := filepath.Abs(subtitlePath)
	fmt.Fprintf(cmd.OutOrStdout(), "Subtitle extracted successfully: %s\n", absOutput)

	return nil
}
