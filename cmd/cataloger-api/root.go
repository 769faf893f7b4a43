package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "cataloger-api",
	Short: "Scanned-document cataloging service",
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(runCmd)
}
