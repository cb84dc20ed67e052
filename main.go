// ABOUTME: Entry point for the drive BFF service
// ABOUTME: Hands off to the cobra command tree; the default command starts the server

package main

import (
	"fmt"
	"os"

	"github.com/oganilir/drive-bff/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
