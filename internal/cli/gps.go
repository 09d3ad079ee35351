package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seongjae6751/stream-module/internal/gps"
	"github.com/seongjae6751/stream-module/internal/subtitle"
)

var gpsCmd = &cobra.Command{
	Use:   "gps [subtitle_file]",
	Short: "Look up the GPS position at a given second of an extracted subtitle track",
	Long: `Look up the GPS position in an already extracted drone subtitle track.

Prints "lat,lon", with n/a for a missing component. Exits with an error when
the telemetry at or around the target is malformed.

Examples:
  streamcap gps DJI_0001_subtitle.srt --time 42
  streamcap gps DJI_0001_subtitle.srt -t 42 --max-scan 50`,
	Args: cobra.ExactArgs(1),
	RunE: runGPS,
}

func init() {
	rootCmd.AddCommand(gpsCmd)

	gpsCmd.Flags().
		IntP("time", "t", 0, "Target time in seconds (required)")
	gpsCmd.Flags().
		Int("max-scan", 0, "Lines to search around an n/a position (0 = whole track, or set STREAMCAP_MAX_SCAN)")

	_ = gpsCmd.MarkFlagRequired("time")
}

func runGPS(cmd *cobra.Command, args []string) error {
	subtitlePath := args[0]

	target, _ := cmd.Flags().GetInt("time")
	maxScan, _ := cmd.Flags().GetInt("max-scan")
	if !cmd.Flags().Changed("max-scan") {
		maxScan = cfg.MaxScan
	}

	if err := validateTarget(target); err != nil {
		return err
	}
	if maxScan < 0 {
		return fmt.Errorf("max-scan must not be negative, got %d", maxScan)
	}

	lines, err := subtitle.ReadLines(subtitlePath)
	if err != nil {
		return err
	}

	logger.Debugw("Looking up GPS",
		"subtitle", subtitlePath,
		"lines", len(lines),
		"timecode", subtitle.FormatTimecode(target),
	)

	coord, err := gps.Lookup(lines, target, gps.Options{MaxDistance: maxScan})
	if err != nil {
		return fmt.Errorf("GPS lookup failed: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), coord.String())
	return nil
}
