// Package cli implements the tribe command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tribe-fitness/internal/config"
)

// loadConfig is replaced in tests.
var loadConfig = config.Load

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tribe",
		Short:         "Tribe social fitness backend",
		Long:          "Activity tracking, Tribe Tokens, the rewards store and the in-app assistants.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newAskCmd(),
		newStoreCmd(),
		newTokenCmd(),
	)
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
