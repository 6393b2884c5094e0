package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/resale-group/backoffice-cli/internal/model"
	"github.com/resale-group/backoffice-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the review and automation API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		api := &apiServer{store: st}

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", api.health)
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", api.listRuns)
			r.Route("/{runID}", func(r chi.Router) {
				r.Get("/", api.getRun)
				r.Post("/commit", api.commitRun)
				r.Post("/confirm", api.confirmMatch)
			})
		})
		r.Post("/match", api.triggerMatch)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

type apiServer struct {
	store store.Store

	// matchMu serializes batches; the engine consumes purchases 1:1 and
	// two concurrent batches could claim the same purchase.
	matchMu sync.Mutex
}

func (s *apiServer) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) listRuns(w http.ResponseWriter, r *http.Request) {
	filter := store.RunFilter{
		Status: model.RunStatus(r.URL.Query().Get("status")),
		Limit:  50,
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *apiServer) getRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	run, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	results, err := s.store.ListResults(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"run": run, "results": results})
}

// commitRun bulk commits a run's matches. By default only high confidence;
// {"all": true} includes the rest.
func (s *apiServer) commitRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	var req struct {
		By  string `json:"by"`
		All bool   `json:"all"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.By == "" {
		req.By = "api"
	}

	results, err := s.store.ListResults(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	committed, skipped := 0, 0
	for _, res := range results {
		if res.Best == nil {
			continue
		}
		if !req.All && res.Best.Confidence != model.ConfidenceHigh {
			continue
		}

		err := s.store.CommitMatch(r.Context(), model.CommittedMatch{
			RunID:        runID,
			SaleOrderID:  res.Item.OrderID,
			OrderNumber:  res.Best.Purchase.OrderNumber,
			SalePrice:    res.Item.TotalPrice,
			Currency:     res.Item.Currency,
			PurchaseCost: res.Best.Purchase.TotalCost,
			Confidence:   res.Best.Confidence,
			CommittedBy:  req.By,
		})
		if err != nil {
			skipped++
			continue
		}
		committed++
	}

	if err := s.store.UpdateRunStatus(r.Context(), runID, model.RunStatusCommitted); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"committed": committed, "skipped": skipped})
}

// confirmMatch commits a single reviewed pairing, possibly overriding the
// engine's pick with another candidate's order number.
func (s *apiServer) confirmMatch(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	var req struct {
		SaleOrderID string `json:"sale_order_id"`
		OrderNumber string `json:"order_number"`
		By          string `json:"by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, eris.New("invalid request body"))
		return
	}
	if req.SaleOrderID == "" || req.OrderNumber == "" {
		writeError(w, http.StatusBadRequest, eris.New("sale_order_id and order_number are required"))
		return
	}
	if req.By == "" {
		req.By = "api"
	}

	results, err := s.store.ListResults(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	res, cand := findPairing(results, req.SaleOrderID, req.OrderNumber)
	if res == nil {
		writeError(w, http.StatusNotFound, eris.Errorf("no result for sale order %s", req.SaleOrderID))
		return
	}
	if cand == nil {
		writeError(w, http.StatusUnprocessableEntity,
			eris.Errorf("purchase %s was not a candidate for sale order %s", req.OrderNumber, req.SaleOrderID))
		return
	}

	err = s.store.CommitMatch(r.Context(), model.CommittedMatch{
		RunID:        runID,
		SaleOrderID:  res.Item.OrderID,
		OrderNumber:  cand.Purchase.OrderNumber,
		SalePrice:    res.Item.TotalPrice,
		Currency:     res.Item.Currency,
		PurchaseCost: cand.Purchase.TotalCost,
		Confidence:   cand.Confidence,
		CommittedBy:  req.By,
	})
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"sale_order_id": req.SaleOrderID,
		"order_number":  req.OrderNumber,
		"status":        "committed",
	})
}

// findPairing locates the result for a sale order and the candidate with
// the given purchase order number, checking Best first.
func findPairing(results []model.MatchResult, saleOrderID, orderNumber string) (*model.MatchResult, *model.MatchCandidate) {
	for i := range results {
		if results[i].Item.OrderID != saleOrderID {
			continue
		}
		res := &results[i]
		if res.Best != nil && res.Best.Purchase.OrderNumber == orderNumber {
			return res, res.Best
		}
		for j := range res.Candidates {
			if res.Candidates[j].Purchase.OrderNumber == orderNumber {
				return res, &res.Candidates[j]
			}
		}
		return res, nil
	}
	return nil, nil
}

// triggerMatch kicks off an API-sourced matching batch in the background.
// Batches are serialized; a second request while one is running gets 409.
func (s *apiServer) triggerMatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SinceHours int `json:"since_hours"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.SinceHours <= 0 {
		req.SinceHours = 30 * 24
	}

	if !s.matchMu.TryLock() {
		writeError(w, http.StatusConflict, eris.New("a matching batch is already running"))
		return
	}

	run, err := s.store.CreateRun(r.Context())
	if err != nil {
		s.matchMu.Unlock()
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	go func() {
		defer s.matchMu.Unlock()
		if err := s.runBatch(run.ID, time.Duration(req.SinceHours)*time.Hour); err != nil {
			zap.L().Error("api batch failed", zap.String("run_id", run.ID), zap.Error(err))
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": run.ID, "status": "accepted"})
}

func (s *apiServer) runBatch(runID string, window time.Duration) error {
	// Detached from the request context; bounded so a hung upstream API
	// cannot pin the batch lock forever.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	fail := func(err error) error {
		_ = s.store.UpdateRunStatus(ctx, runID, model.RunStatusFailed)
		return err
	}

	if err := s.store.UpdateRunStatus(ctx, runID, model.RunStatusMatching); err != nil {
		return err
	}

	eng, err := initEngine()
	if err != nil {
		return fail(err)
	}

	items, pool, err := fetchInputs(ctx, time.Now().Add(-window))
	if err != nil {
		return fail(err)
	}

	used, err := s.store.UsedPurchaseNumbers(ctx)
	if err != nil {
		return fail(err)
	}

	results, err := eng.MatchBatch(items, pool, used)
	if err != nil {
		return fail(err)
	}

	if err := s.store.SaveResults(ctx, runID, results); err != nil {
		return fail(err)
	}
	return s.store.UpdateRunResult(ctx, runID, summarize(results))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
