package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mind-engage/prepost/internal/aggregate"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the pre/post comparison CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)
		out, _ := cmd.Flags().GetString("out")
		locale, _ := cmd.Flags().GetString("locale")
		if locale == "" {
			locale = cfg.ExportLocale
		}

		dbh, store, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer dbh.Close()

		var w io.Writer = cmd.OutOrStdout()
		if out != "" && out != "-" {
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		if err := aggregate.New(store).Export(cmd.Context(), w, aggregate.LocaleFor(locale)); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("out", "o", "-", "Output file (- for stdout)")
	exportCmd.Flags().String("locale", "", "Header/token locale: en|id (default EXPORT_LOCALE)")
}
