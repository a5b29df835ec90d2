package cli

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "consumerapp",
		Short: "ConsumerApp - product feed import pipeline",
		Long: `ConsumerApp ingests large JSON product feeds and replicates valid,
deduplicated records into SQL Server and MongoDB through asynchronous
batch workers.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.AddCommand(newServeCmd(), newImportCmd())

	return rootCmd
}
