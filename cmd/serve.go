package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/routerlab/routerbench/internal/report"
	"github.com/routerlab/routerbench/internal/sink"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a read-only status API over the result sink",
	Long:  "Exposes profile counts, per-model tallies, and recent records while a batch run writes from a separate invocation. The server never writes to the sink.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		sk, err := initSink(ctx)
		if err != nil {
			return err
		}
		defer sk.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newServeMux(sk),
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

// newServeMux builds the read-only API routes over the sink.
func newServeMux(sk sink.Sink) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/profiles", func(w http.ResponseWriter, req *http.Request) {
		profiles, err := sk.Profiles(req.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		type profileCount struct {
			Profile string `json:"profile"`
			Count   int    `json:"count"`
		}
		out := make([]profileCount, 0, len(profiles))
		for _, p := range profiles {
			n, err := sk.Count(req.Context(), p)
			if err != nil {
				writeError(w, err)
				return
			}
			out = append(out, profileCount{Profile: p, Count: n})
		}
		writeJSON(w, http.StatusOK, out)
	})

	r.Get("/api/profiles/{profile}/tally", func(w http.ResponseWriter, req *http.Request) {
		profile := chi.URLParam(req, "profile")
		tallies, err := report.Tally(req.Context(), sk, []string{profile})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tallies[0])
	})

	r.Get("/api/profiles/{profile}/results", func(w http.ResponseWriter, req *http.Request) {
		profile := chi.URLParam(req, "profile")
		records, err := sk.Records(req.Context(), profile)
		if err != nil {
			writeError(w, err)
			return
		}
		limit := 50
		if raw := req.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = n
			}
		}
		if len(records) > limit {
			records = records[len(records)-limit:]
		}
		writeJSON(w, http.StatusOK, records)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	zap.L().Error("api request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
