package main

import (
	"fmt"
	"os"

	"github.com/shepherd-church/shepherd/internal/server"
	"github.com/spf13/cobra"
)

var (
	servePort int
	serveMode string
)

// @title Shepherd API
// @version 1.0
// @description Church community administration API
// @host localhost:8470
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Shepherd server",
	Long: `Start the Shepherd server with API and/or report worker components.

Examples:
  shepherd serve                    # Run both API server and worker
  shepherd serve --mode server      # Run API server only
  shepherd serve --mode worker      # Run report worker and scheduler only
  shepherd serve --port 8080        # Override port

Environment variables:
  SHEPHERD_SERVER_PORT         Server port (default: 8470)
  SHEPHERD_SERVER_STATIC_DIR   Built web app to serve
  SHEPHERD_DATABASE_DRIVER     Database driver: sqlite, postgres
  SHEPHERD_DATABASE_DSN        Database connection string
  SHEPHERD_QUEUE_TYPE          Queue type: memory, valkey
  SHEPHERD_AUTH_JWT_SECRET     JWT signing secret
  SHEPHERD_ACCESS_TABLE_FILE   YAML permission table
  SHEPHERD_REPORTS_SCHEDULE    Cron spec for the monthly donation report
  ADMIN_USERNAME               Bootstrap admin username
  ADMIN_PASSWORD               Bootstrap admin password`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (overrides config)")
	serveCmd.Flags().StringVarP(&serveMode, "mode", "m", "both", "Run mode: server, worker, or both")
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := server.Config{
		Port:    servePort,
		Mode:    serveMode,
		Version: Version,
	}

	if err := server.RunWithSignalHandling(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
