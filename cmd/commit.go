package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/resale-group/backoffice-cli/internal/model"
)

var (
	commitBy  string
	commitAll bool
)

var commitCmd = &cobra.Command{
	Use:   "commit <run-id>",
	Short: "Commit matches from a run",
	Long:  "Commits high-confidence matches of a run, permanently pairing each sale with its purchase order. Already-committed purchases are skipped.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		runID := args[0]

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		run, err := st.GetRun(ctx, runID)
		if err != nil {
			return err
		}
		if run.Status == model.RunStatusCommitted {
			return eris.Errorf("run %s is already committed", runID)
		}

		results, err := st.ListResults(ctx, runID)
		if err != nil {
			return err
		}

		committed, skipped := 0, 0
		for _, res := range results {
			if res.Best == nil {
				continue
			}
			if !commitAll && res.Best.Confidence != model.ConfidenceHigh {
				continue
			}

			m := model.CommittedMatch{
				RunID:        runID,
				SaleOrderID:  res.Item.OrderID,
				OrderNumber:  res.Best.Purchase.OrderNumber,
				SalePrice:    res.Item.TotalPrice,
				Currency:     res.Item.Currency,
				PurchaseCost: res.Best.Purchase.TotalCost,
				Confidence:   res.Best.Confidence,
				CommittedBy:  commitBy,
			}
			if err := st.CommitMatch(ctx, m); err != nil {
				// Another run may have claimed the purchase since matching.
				zap.L().Warn("commit skipped",
					zap.String("order", res.Item.OrderID),
					zap.String("purchase", res.Best.Purchase.OrderNumber),
					zap.Error(err),
				)
				skipped++
				continue
			}
			committed++
		}

		if err := st.UpdateRunStatus(ctx, runID, model.RunStatusCommitted); err != nil {
			return err
		}

		zap.L().Info("run committed",
			zap.String("run_id", runID),
			zap.Int("committed", committed),
			zap.Int("skipped", skipped),
		)
		fmt.Fprintf(os.Stdout, "%d matches committed, %d skipped\n", committed, skipped)
		return nil
	},
}

func init() {
	commitCmd.Flags().StringVar(&commitBy, "by", "cli", "operator recorded on each committed match")
	commitCmd.Flags().BoolVar(&commitAll, "all", false, "also commit medium and low confidence matches")
	rootCmd.AddCommand(commitCmd)
}
