package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter registers every bank endpoint. metrics may be nil.
func NewRouter(l Ledger, cmds Commands, metrics http.Handler) http.Handler {
	h := NewHandler(l, cmds)
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Route("/players/{playerId}", func(r chi.Router) {
		r.Get("/balances", h.ListBalancesHandler)
		r.Get("/balances/{coinType}", h.GetBalanceHandler)
		r.Post("/deposits", h.DepositHandler)
		r.Post("/withdrawals", h.WithdrawHandler)
		r.Get("/history", h.HistoryHandler)
		r.Post("/commands", h.CommandHandler)
		r.Get("/commands/complete", h.CompleteHandler)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
