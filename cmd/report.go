package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/resale-group/backoffice-cli/internal/report"
)

var (
	reportRunID  string
	reportLocale string
	reportJSON   bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Margin report over committed matches",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		matches, err := st.ListCommitted(ctx, reportRunID)
		if err != nil {
			return err
		}

		r := report.Build(matches)
		if reportJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(r)
		}
		return r.Render(os.Stdout, reportLocale)
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportRunID, "run", "", "restrict to one run (default: all committed matches)")
	reportCmd.Flags().StringVar(&reportLocale, "locale", "en", "BCP 47 locale for number formatting")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(reportCmd)
}
