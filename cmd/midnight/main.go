package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "midnight",
	Short:         "Midnight session and data service",
	Long:          "Midnight keeps one signed-in session and its local life-planning data, and serves both as a JSON API.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// @title                       Midnight API
// @version                     1.0
// @description                 Session, onboarding gate and local life-planning data for one app instance.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	addServe(rootCmd)
	addStats(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
