package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	httpcmd "github.com/evcare-vn/evcare_backend/cmd/http"
	systemcmd "github.com/evcare-vn/evcare_backend/cmd/system"
)

var (
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "evcare",
	Short: "EVCare backend for electric-vehicle service centers.",
	Long: `EVCare is the backend for an electric-vehicle service-center platform.
It handles appointment booking, inspection and quoting, maintenance tracking,
and payment reconciliation through one REST API.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global config flag, available for all commands.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	// Attach top-level command trees.
	rootCmd.AddCommand(systemcmd.NewSystemCommand())
	rootCmd.AddCommand(httpcmd.NewHTTPCommand())
}
