package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mind-engage/prepost/internal/assessment"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo question bank and material if the database has none",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)
		dbh, store, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer dbh.Close()

		seeded, err := assessment.Seed(cmd.Context(), assessment.NewContent(store))
		if err != nil {
			return err
		}
		if seeded {
			fmt.Fprintln(cmd.OutOrStdout(), "seeded demo content")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "content already present, nothing to do")
		}
		return nil
	},
}
