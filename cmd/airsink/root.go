package main

import "github.com/spf13/cobra"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "airsink",
		Short:         "AirPlay audio receiver",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().String("config", "", "path of the YAML configuration file")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newKeygenCmd())
	cmd.AddCommand(newServiceCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}
