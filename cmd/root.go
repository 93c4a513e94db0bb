// Package cmd implements the lotusd command-line interface.
package cmd

import "github.com/spf13/cobra"

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "lotusd",
		Short:         "lotusd: event-driven reasoning daemon",
		Long:          "lotusd consumes inbound events from an MQTT broker, runs each through the Lotus reasoning loop, and publishes thoughts, tool calls, delegations and responses back onto the broker.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(),
	)

	return rootCmd
}
