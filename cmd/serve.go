package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/supplygraph/matching-engine/internal/match"
	"github.com/supplygraph/matching-engine/internal/model"
	"github.com/supplygraph/matching-engine/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP matching API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env),
		}

		// Graceful shutdown
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

// newRouter builds the API routes.
func newRouter(env *matchEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/match", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Requirement match.Document   `json:"requirement"`
			Facilities  []match.Document `json:"facilities"`
			Save        bool             `json:"save"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.Requirement.Type == "" || len(body.Facilities) == 0 {
			writeError(w, http.StatusBadRequest, "requirement.type and facilities are required")
			return
		}

		trees, err := env.Service.FindMatches(req.Context(), body.Requirement, body.Facilities, configWeights())
		if err != nil {
			zap.L().Error("match request failed", zap.Error(err))
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		if body.Save {
			for i := range trees {
				if err := env.Store.SaveTree(req.Context(), &trees[i]); err != nil {
					zap.L().Error("save tree failed", zap.Error(err))
					writeError(w, http.StatusInternalServerError, "failed to persist trees")
					return
				}
			}
		}

		writeJSON(w, http.StatusOK, map[string]any{"trees": trees})
	})

	r.Post("/validate", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Tree   *model.SupplyTree `json:"tree"`
			Level  string            `json:"level"`
			Strict bool              `json:"strict"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Tree == nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		level := model.QualityProfessional
		if body.Level != "" {
			parsed, err := model.ParseQualityLevel(body.Level)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			level = parsed
		}

		result, err := env.Service.Validate(req.Context(), body.Tree, level, body.Strict)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	r.Get("/trees", func(w http.ResponseWriter, req *http.Request) {
		filter := store.TreeFilter{
			FacilityName: req.URL.Query().Get("facility"),
			OKHReference: req.URL.Query().Get("requirement"),
			Limit:        100,
		}
		trees, err := env.Store.ListTrees(req.Context(), filter)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"trees": trees})
	})

	r.Get("/trees/{id}", func(w http.ResponseWriter, req *http.Request) {
		tree, err := env.Store.GetTree(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, tree)
	})

	r.Delete("/trees/{id}", func(w http.ResponseWriter, req *http.Request) {
		if err := env.Store.DeleteTree(req.Context(), chi.URLParam(req, "id")); err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	return r
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
