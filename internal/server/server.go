package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"taxi-bot/internal/config"
	"taxi-bot/internal/dispatch"
	"taxi-bot/internal/ledger"
	"taxi-bot/internal/util"
)

// Sheets is the read side of the dispatch service the export needs.
type Sheets interface {
	Sheet(ctx context.Context, day string) (dispatch.DaySheet, error)
}

func New(cfg config.Config, svc Sheets, gatherer prometheus.Gatherer, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"ts": util.NowISO(),
		})
	})

	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	// CSV export (manager link with token = HMAC), only with a configured secret
	if cfg.ExportEnabled() {
		mux.HandleFunc("/export/day.csv", exportHandler(cfg.ExportSecret, svc, log))
	}

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}
}

func exportHandler(secret string, svc Sheets, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day := r.URL.Query().Get("day")
		token := r.URL.Query().Get("token")
		if day == "" || token == "" {
			http.Error(w, "day and token required", http.StatusBadRequest)
			return
		}
		if !ledger.ValidDay(day) {
			http.Error(w, "day must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		if !util.ValidExportToken(secret, day, token) {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}
		sheet, err := svc.Sheet(r.Context(), day)
		if err != nil {
			log.Error().Err(err).Str("day", day).Msg("export")
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}
		data, err := sheet.CSV()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="taxi_`+day+`.csv"`)
		_, _ = w.Write(data)
	}
}
