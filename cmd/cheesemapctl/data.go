package main

import (
	"fmt"

	"github.com/shadikamal997/cheesemap-sub001/internal/database"
	"github.com/spf13/cobra"
)

var confirmClear bool

// clearDataCmd truncates every application table
var clearDataCmd = &cobra.Command{
	Use:   "clear-data",
	Short: "Delete all application data (development only)",
	Long: `Truncate every application table, keeping the schema and migration history,
then print the post-clear row counts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmClear {
			return fmt.Errorf("refusing to clear data without --yes")
		}

		db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.ClearData(db.DB); err != nil {
			return err
		}

		counts, err := database.TableCounts(db.DB)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "All data cleared. Post-clear row counts:")
		for _, t := range database.DataTables {
			fmt.Fprintf(out, "  %s: %d\n", t, counts[t])
		}
		return nil
	},
}

func init() {
	clearDataCmd.Flags().BoolVar(&confirmClear, "yes", false, "Confirm that all data should be deleted")
}
