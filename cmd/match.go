package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/resale-group/backoffice-cli/internal/importer"
	"github.com/resale-group/backoffice-cli/internal/model"
	"github.com/resale-group/backoffice-cli/internal/store"
	"github.com/resale-group/backoffice-cli/pkg/reviewboard"
)

var (
	matchSince      time.Duration
	matchSalesFile  string
	matchPurchFile  string
	matchDryRun     bool
	matchPushReview bool
	matchJSON       bool
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match sales to purchase orders",
	Long:  "Fetches sales and purchases (or loads them from files), runs the matching engine, and records a match run for review.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		eng, err := initEngine()
		if err != nil {
			return err
		}

		items, pool, err := loadInputs(ctx)
		if err != nil {
			return err
		}
		zap.L().Info("inputs loaded",
			zap.Int("sales", len(items)),
			zap.Int("purchases", len(pool)),
		)

		used, err := st.UsedPurchaseNumbers(ctx)
		if err != nil {
			return err
		}

		results, err := eng.MatchBatch(items, pool, used)
		if err != nil {
			return eris.Wrap(err, "match batch")
		}

		summary := summarize(results)
		zap.L().Info("batch matched",
			zap.Int("items", summary.ItemsTotal),
			zap.Int("matched", summary.ItemsMatched),
			zap.Int("high_confidence", summary.HighConfidence),
			zap.Int("needs_review", summary.NeedsReview),
		)

		if !matchDryRun {
			run, err := persistRun(ctx, st, results, summary)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "run %s recorded\n", run.ID)

			if matchPushReview {
				if err := pushReview(ctx, run.ID, results); err != nil {
					return err
				}
			}
		}

		if matchJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}

		formatResults(os.Stdout, results)
		return nil
	},
}

// loadInputs reads sales and purchases from files when paths are given,
// otherwise fetches both in parallel from the storefront and marketplace.
func loadInputs(ctx context.Context) ([]model.SaleLineItem, []model.PurchaseCandidate, error) {
	if matchSalesFile != "" || matchPurchFile != "" {
		if matchSalesFile == "" || matchPurchFile == "" {
			return nil, nil, eris.New("match: --sales and --purchases must be given together")
		}
		items, err := loadSalesFile(ctx, matchSalesFile)
		if err != nil {
			return nil, nil, err
		}
		f, err := os.Open(matchPurchFile)
		if err != nil {
			return nil, nil, eris.Wrap(err, "match: open purchases file")
		}
		defer f.Close()
		pool, err := importer.ParsePurchasesCSV(ctx, f)
		if err != nil {
			return nil, nil, err
		}
		return items, pool, nil
	}

	return fetchInputs(ctx, time.Now().Add(-matchSince))
}

// fetchInputs pulls sales and purchases from the APIs in parallel and
// enriches the purchases with cost and shipment data.
func fetchInputs(ctx context.Context, since time.Time) ([]model.SaleLineItem, []model.PurchaseCandidate, error) {
	sf, err := initStorefront()
	if err != nil {
		return nil, nil, err
	}
	mp, err := initMarketplace()
	if err != nil {
		return nil, nil, err
	}

	var items []model.SaleLineItem
	var pool []model.PurchaseCandidate

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = sf.Orders(gCtx, since)
		return err
	})
	g.Go(func() error {
		candidates, err := mp.Purchases(gCtx, since)
		if err != nil {
			return err
		}
		pool, err = mp.Enrich(gCtx, candidates)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return items, pool, nil
}

func loadSalesFile(ctx context.Context, path string) ([]model.SaleLineItem, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return importer.ParseSalesXLSX(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "match: open sales file")
	}
	defer f.Close()
	return importer.ParseSalesCSV(ctx, f)
}

func summarize(results []model.MatchResult) *model.RunResult {
	summary := &model.RunResult{ItemsTotal: len(results)}
	for _, res := range results {
		summary.TotalRevenue += res.Item.TotalPrice
		if res.Best == nil {
			summary.NeedsReview++
			continue
		}
		summary.ItemsMatched++
		if res.Best.Confidence == model.ConfidenceHigh {
			summary.HighConfidence++
		} else {
			summary.NeedsReview++
		}
		if res.Best.Purchase.TotalCost != nil {
			summary.TotalCost += *res.Best.Purchase.TotalCost
		}
	}
	return summary
}

func persistRun(ctx context.Context, st store.Store, results []model.MatchResult, summary *model.RunResult) (*model.MatchRun, error) {
	run, err := st.CreateRun(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.UpdateRunStatus(ctx, run.ID, model.RunStatusMatching); err != nil {
		return nil, err
	}
	if err := st.SaveResults(ctx, run.ID, results); err != nil {
		return nil, err
	}
	if err := st.UpdateRunResult(ctx, run.ID, summary); err != nil {
		return nil, err
	}
	return run, nil
}

func pushReview(ctx context.Context, runID string, results []model.MatchResult) error {
	if err := cfg.Validate("review"); err != nil {
		return err
	}
	board := reviewboard.NewBoard(reviewboard.NewClient(cfg.Review.Token), cfg.Review.QueueDB)
	created, err := board.PushQueue(ctx, runID, results)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%d items pushed to review queue\n", created)
	return nil
}

func formatResults(w io.Writer, results []model.MatchResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tITEM\tPURCHASE\tSCORE\tCONFIDENCE\tELAPSED")
	for _, res := range results {
		name := res.Item.OrderName
		if name == "" {
			name = res.Item.OrderID
		}

		if res.Best == nil {
			note := "-"
			if len(res.Notes) > 0 {
				note = string(res.Notes[0].Code)
			}
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t%s\t-\n", name, res.Item.Title, note)
			continue
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f\t%s\t%.1fh\n",
			name, res.Item.Title, res.Best.Purchase.OrderNumber,
			res.Best.Score, res.Best.Confidence, res.Best.ElapsedHours)
	}
	tw.Flush()
}

func init() {
	matchCmd.Flags().DurationVar(&matchSince, "since", 30*24*time.Hour, "fetch window for sales and purchases")
	matchCmd.Flags().StringVar(&matchSalesFile, "sales", "", "sales ledger file (.csv or .xlsx) instead of the storefront API")
	matchCmd.Flags().StringVar(&matchPurchFile, "purchases", "", "purchases file (.csv) instead of the marketplace API")
	matchCmd.Flags().BoolVar(&matchDryRun, "dry-run", false, "print results without recording a run")
	matchCmd.Flags().BoolVar(&matchPushReview, "push-review", false, "push low-confidence results to the Notion review queue")
	matchCmd.Flags().BoolVar(&matchJSON, "json", false, "print full results as JSON")
	rootCmd.AddCommand(matchCmd)
}
