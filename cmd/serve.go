package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/openings-cli/internal/model"
	"github.com/sells-group/openings-cli/internal/pipeline"
	"github.com/sells-group/openings-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for pipeline runs and lead queries",
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

		p, err := buildPipeline(true)
		if err != nil {
			return err
		}

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/runs", handleCreateRun(p, st))
		r.Get("/runs", handleListRuns(st))
		r.Get("/runs/{runID}", handleGetRun(st))
		r.Get("/leads", handleListLeads(st))
		r.Get("/leads/{leadID}", handleGetLead(st))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func handleCreateRun(p *pipeline.Pipeline, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var records []model.RawRecord
		if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(records) == 0 {
			writeError(w, http.StatusBadRequest, "no records")
			return
		}

		result, err := p.Run(r.Context(), records, time.Now())
		if err != nil {
			zap.L().Error("api run failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "pipeline run failed")
			return
		}

		if err := st.SaveRun(r.Context(), result.Summary); err != nil {
			zap.L().Error("api save run failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "persist failed")
			return
		}
		if err := st.SaveLeads(r.Context(), result.Leads); err != nil {
			zap.L().Error("api save leads failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "persist failed")
			return
		}

		writeJSON(w, http.StatusCreated, result.Summary)
	}
}

func handleListRuns(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		runs, err := st.ListRuns(r.Context(), limit)
		if err != nil {
			zap.L().Error("api list runs failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "list runs failed")
			return
		}
		writeJSON(w, http.StatusOK, runs)
	}
}

func handleGetRun(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := st.GetRun(r.Context(), chi.URLParam(r, "runID"))
		if err == store.ErrNotFound {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		if err != nil {
			zap.L().Error("api get run failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "get run failed")
			return
		}
		writeJSON(w, http.StatusOK, run)
	}
}

func handleListLeads(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		minConf, _ := strconv.ParseFloat(q.Get("min_confidence"), 64)
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))

		leads, err := st.ListLeads(r.Context(), store.LeadFilter{
			RunID:         q.Get("run_id"),
			RuleName:      q.Get("rule"),
			MinConfidence: minConf,
			Limit:         limit,
			Offset:        offset,
		})
		if err != nil {
			zap.L().Error("api list leads failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "list leads failed")
			return
		}
		writeJSON(w, http.StatusOK, leads)
	}
}

func handleGetLead(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lead, err := st.GetLead(r.Context(), chi.URLParam(r, "leadID"))
		if err == store.ErrNotFound {
			writeError(w, http.StatusNotFound, "lead not found")
			return
		}
		if err != nil {
			zap.L().Error("api get lead failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "get lead failed")
			return
		}
		writeJSON(w, http.StatusOK, lead)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
