package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/resale-group/backoffice-cli/internal/model"
)

var importJSON bool

var importCmd = &cobra.Command{
	Use:   "import <ledger-file>",
	Short: "Validate a sales ledger export",
	Long:  "Parses a CSV or XLSX sales ledger, fails on malformed rows, and prints a summary. Use the validated file with 'match --sales'.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		items, err := loadSalesFile(ctx, args[0])
		if err != nil {
			return err
		}

		if importJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		}

		first, last := dateRange(items)
		currencies := make(map[string]int)
		missingSKU := 0
		for _, it := range items {
			currencies[it.Currency]++
			if it.SKU == "" {
				missingSKU++
			}
		}

		fmt.Printf("%d sale line items\n", len(items))
		if len(items) > 0 {
			fmt.Printf("date range: %s to %s\n",
				first.Format("2006-01-02"), last.Format("2006-01-02"))
		}
		for _, c := range sortedKeys(currencies) {
			fmt.Printf("  %s: %d items\n", c, currencies[c])
		}
		if missingSKU > 0 {
			fmt.Printf("%d items without a SKU (name matching only)\n", missingSKU)
		}
		return nil
	},
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func dateRange(items []model.SaleLineItem) (first, last time.Time) {
	for i, it := range items {
		if i == 0 || it.CreatedAt.Before(first) {
			first = it.CreatedAt
		}
		if i == 0 || it.CreatedAt.After(last) {
			last = it.CreatedAt
		}
	}
	return first, last
}

func init() {
	importCmd.Flags().BoolVar(&importJSON, "json", false, "print parsed items as JSON")
	rootCmd.AddCommand(importCmd)
}
