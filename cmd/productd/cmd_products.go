package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const defaultDumpPath = "exports/products.json"

var (
	transferDisk  string
	transferPath  string
	importWorkers int
)

// productd products:export
var exportCmd = &cobra.Command{
	Use:   "products:export",
	Short: "Write every product as JSON to a storage disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := boot(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.ExportProducts(cmd.Context(), transferDisk, transferPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d products to %s\n", n, transferPath)
		return nil
	},
}

// productd products:import
var importCmd = &cobra.Command{
	Use:   "products:import",
	Short: "Create products from a JSON file on a storage disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := boot(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.ImportProducts(cmd.Context(), transferDisk, transferPath, importWorkers)
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d, skipped %d, failed %d\n", res.Imported, res.Skipped, res.Failed)
		return err
	},
}

func init() {
	for _, c := range []*cobra.Command{exportCmd, importCmd} {
		c.Flags().StringVar(&transferDisk, "disk", "", "storage disk (default STORAGE_DISK)")
		c.Flags().StringVar(&transferPath, "path", defaultDumpPath, "file path on the disk")
	}
	importCmd.Flags().IntVar(&importWorkers, "workers", 4, "concurrent inserters")
}
