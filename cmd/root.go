package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "entitlements-service",
	Short: "Entitlement and activation service",
	Long:  "Decides whether an account currently has paid access and converts activation codes into persisted entitlements.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
