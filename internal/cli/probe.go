package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seongjae6751/stream-module/internal/ffmpeg"
	"github.com/seongjae6751/stream-module/internal/video"
)

var probeCmd = &cobra.Command{
	Use:   "probe [source]",
	Short: "Print frame rate, size and track information for a video source",
	Long: `Probe a video file or direct stream URL with ffprobe.

Examples:
  streamcap probe DJI_0001.MP4
  streamcap probe rtsp://192.168.0.10:554/stream1`,
	Args: cobra.ExactArgs(1),
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	src := args[0]

	paths, err := ffmpeg.Ensure(ffmpeg.BinaryPaths{
		FFmpeg:  cfg.FFmpegPath,
		FFprobe: cfg.FFprobePath,
	})
	if err != nil {
		return fmt.Errorf("ffmpeg is not available: %w", err)
	}

	info, err := video.Probe(cmd.Context(), paths.FFprobe, src)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Source: %s\n", src)
	fmt.Fprintf(out, "  Codec: %s\n", info.Codec)
	fmt.Fprintf(out, "  Size: %dx%d\n", info.Width, info.Height)
	if info.Rotation != 0 {
		fmt.Fprintf(out, "  Rotation: %d\n", info.Rotation)
	}
	fmt.Fprintf(out, "  Frame rate: %.3f fps\n", info.FrameRate)
	if info.Duration > 0 {
		fmt.Fprintf(out, "  Duration: %s\n", info.Duration)
	}
	fmt.Fprintf(out, "  Audio: %v\n", info.HasAudio)
	fmt.Fprintf(out, "  Subtitle track: %v\n", info.HasSubtitle)

	return nil
}
