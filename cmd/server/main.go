package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verbose bool
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "weatherdash",
	Short: "Weather dashboard backend",
	Long: `weatherdash serves a per-session weather dashboard: location search,
current conditions, hourly and daily forecasts, weather details and map
layers, formatted in metric or imperial units.

Run without arguments to start the HTTP server.`,
	SilenceUsage: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	showCmd.Flags().StringVar(&showUnits, "units", "", "Unit system: metric or imperial (default from config)")
	showCmd.Flags().StringVar(&showView, "view", "weekly", "Chart window: weekly or monthly")
	showCmd.Flags().StringVar(&showTheme, "theme", "light", "Colour theme: light or dark")

	rootCmd.AddCommand(serveCmd, showCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
