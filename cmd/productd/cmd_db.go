package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// productd schema:ensure
var schemaEnsureCmd = &cobra.Command{
	Use:   "schema:ensure",
	Short: "Create the products table and its indexes if they do not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := boot(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.EnsureSchema(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
		return nil
	},
}

// productd seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert sample products into an empty table",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := boot(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Fprintln(cmd.OutOrStdout(), "Seeding…")
		return a.Seed(cmd.Context(), cmd.OutOrStdout())
	},
}
