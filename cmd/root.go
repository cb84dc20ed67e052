// ABOUTME: Root command for the drive-bff binary
// ABOUTME: Handles global flags; running without a subcommand starts the server

package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL  string
	jsonOutput bool
)

const defaultServerURL = "http://localhost:8080"

// Version is set at build time via -ldflags
var Version = "dev"

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "drive-bff",
	Short: "Backend-for-frontend for the drive web app",
	Long: `drive-bff serves the drive web app's API. It keeps the upstream bearer token
in an HTTP-only session cookie and forwards file, sharing and admin calls to the
drive API.

Environment Variables:
  API_BASE_URL       Upstream drive API (required for serve)
  SESSION_SECRET     Session cookie signing key (required in production)
  DRIVE_BFF_URL      Server URL used by the health command (default: http://localhost:8080)`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", "", "Server URL for client commands (overrides DRIVE_BFF_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
}

// GetServerURL returns the server URL from flag, env, or default (in priority order)
func GetServerURL() string {
	if serverURL != "" {
		return serverURL
	}
	if envURL := os.Getenv("DRIVE_BFF_URL"); envURL != "" {
		return envURL
	}
	return defaultServerURL
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}
