package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mind-engage/prepost/internal/assessment"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete a learner's results so both tests can be retaken",
	RunE: func(cmd *cobra.Command, args []string) error {
		who, _ := cmd.Flags().GetString("learner")
		if who == "" {
			return errors.New("--learner is required")
		}
		cfg := loadConfig(cmd)
		dbh, store, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer dbh.Close()

		ctx := cmd.Context()
		l, err := store.FindLearnerByUsername(ctx, who)
		if errors.Is(err, assessment.ErrNotFound) {
			l, err = store.GetLearner(ctx, who)
		}
		if err != nil {
			return fmt.Errorf("learner %q: %w", who, err)
		}
		n, err := assessment.NewAccounts(store, assessment.DefaultBcryptCost).Reset(ctx, l.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d result(s) for %s\n", n, l.Username)
		return nil
	},
}

func init() {
	resetCmd.Flags().String("learner", "", "Username or ID of the learner")
}
