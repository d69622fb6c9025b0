package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/agenthub-dev/agenthub/internal/marketplace"
	"github.com/agenthub-dev/agenthub/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "marketplace-api",
	Short: "AgentHub marketplace API server",
	Long:  `marketplace-api serves the AgentHub marketplace: publishing, discovery and moderation of AI agents hosted on GitHub.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return marketplace.App(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("agenthub %s (commit: %s, built: %s)\n", version.Version, version.GitCommit, version.BuildDate)
	},
}

func main() {
	rootCmd.AddCommand(versionCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
