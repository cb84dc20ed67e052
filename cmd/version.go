// ABOUTME: Version command for drive-bff
// ABOUTME: Prints the build version

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "drive-bff", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
