package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "folioctl",
		Short:         "folio messaging from the terminal",
		Long:          "folioctl answers visitor messages as the site admin, or talks to the site as a visitor.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "path to the folioctl config file")
	cmd.PersistentFlags().String("url", "", "API base URL (overrides base_url in the config file)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newInboxCmd())
	cmd.AddCommand(newThreadCmd())
	cmd.AddCommand(newReadCmd())
	cmd.AddCommand(newReplyCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newNotificationsCmd())
	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newContactCmd())
	cmd.AddCommand(newHashPasswordCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "folioctl %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
