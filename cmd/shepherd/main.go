package main

import (
	"os"

	"github.com/spf13/cobra"

	_ "github.com/shepherd-church/shepherd/docs" // Load swagger docs
)

// Version is set via ldflags at build time
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "shepherd",
	Short: "Shepherd - church community administration",
	Long:  `Shepherd keeps a congregation's members, events, attendance, giving and forum in one place.`,
	Example: `  # Run the server with a bootstrap administrator
  ADMIN_USERNAME=pastor ADMIN_PASSWORD=secret shepherd serve

  # Add a staff account
  shepherd user create usher --email usher@example.org --role user

  # See where a role lands when opening a page
  shepherd access check member /donations`,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(accessCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
