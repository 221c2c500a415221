package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/productd/config"
	"github.com/shashiranjanraj/productd/pkg/app"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "productd",
	Short:         "Product CRUD service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Server
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	// Database
	rootCmd.AddCommand(schemaEnsureCmd)
	rootCmd.AddCommand(seedCmd)

	// Data transfer
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

// boot loads the config snapshot and opens the application.
func boot(ctx context.Context) (*app.Application, error) {
	cfg, err := config.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return app.New(ctx, cfg)
}
