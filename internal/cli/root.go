package cli

import (
	"github.com/spf13/cobra"

	"github.com/seongjae6751/stream-module/internal/config"
	"github.com/seongjae6751/stream-module/internal/logging"
)

var (
	verbose bool
	envFile string
	logger  *logging.Logger
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "streamcap",
	Short: "Frame capture for live streams and GPS-tagged drone footage",
	Long: `Streamcap saves still frames from video.

It captures frames from a live stream at a fixed interval, and for recorded
drone footage it extracts the telemetry subtitle track, looks up the GPS
position at a target time and saves the frame at that time.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(verbose)

		var err error
		if envFile != "" {
			cfg, err = config.Load(envFile)
		} else {
			cfg, err = config.Load()
		}
		return err
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVar(&envFile, "env-file", "", "Read settings from this file instead of .env")
}
