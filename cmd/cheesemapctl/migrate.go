package main

import (
	"fmt"

	"github.com/shadikamal997/cheesemap-sub001/internal/database"
	"github.com/spf13/cobra"
)

// migrateCmd applies pending embedded migrations
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		applied, err := database.Migrate(db.DB)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(applied) == 0 {
			fmt.Fprintln(out, "Schema is up to date")
			return nil
		}
		for _, v := range applied {
			fmt.Fprintf(out, "Applied %s\n", v)
		}
		return nil
	},
}
