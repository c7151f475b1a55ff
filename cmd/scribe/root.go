package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var addrFlag string
	var configFlag string

	client := func() (*apiClient, error) {
		return newAPIClient(addrFlag, configFlag)
	}

	rootCmd := &cobra.Command{
		Use:           "scribe",
		Short:         "Scribe meeting transcription CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&addrFlag, "api", "", "Address of the scribed HTTP API")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newStatusCommand(client))
	rootCmd.AddCommand(newListCommand(client))
	rootCmd.AddCommand(newShowCommand(client))
	rootCmd.AddCommand(newAddCommand(client))
	rootCmd.AddCommand(newProcessCommand(client))
	rootCmd.AddCommand(newDeleteCommand(client))
	rootCmd.AddCommand(newSpeakersCommand(client))
	rootCmd.AddCommand(newConfigCommand(&configFlag))

	return rootCmd
}
