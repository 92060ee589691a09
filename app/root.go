// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ecotrack",
	Short: "EcoTrack serves environmental dashboards with live sensor data",
	Long: `EcoTrack is the API and live data backend for the EcoTrack dashboard:
user accounts with cookie-based sessions, password recovery by mail, and a
WebSocket feed of simulated environmental sensor readings.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
