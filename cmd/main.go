package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {

	var rootCmd = &cobra.Command{
		Use:           "dynamoctl",
		Short:         "Maintenance commands for DynamoDB tables",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newEmptyTablesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
