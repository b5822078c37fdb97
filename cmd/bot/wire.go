package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"taxi-bot/internal/auth"
	"taxi-bot/internal/backend"
	"taxi-bot/internal/config"
	"taxi-bot/internal/dispatch"
	"taxi-bot/internal/ledger"
	"taxi-bot/internal/metrics"
	"taxi-bot/internal/models"
	"taxi-bot/internal/session"
	"taxi-bot/internal/sheets"
	"taxi-bot/internal/storage"
	"taxi-bot/internal/zones"
)

type wiring struct {
	svc      *dispatch.Service
	auth     *auth.Authorizer
	sheets   *sheets.Client
	registry *prometheus.Registry
	backend  backend.Backend
}

func (w *wiring) close() {
	_ = w.backend.Close()
}

// wire builds the dispatch service and its collaborators from cfg.
func wire(ctx context.Context, cfg config.Config, log zerolog.Logger) (*wiring, error) {
	w := &wiring{registry: prometheus.NewRegistry()}
	w.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if cfg.SheetsEnabled() {
		sh, err := sheets.New(ctx, cfg.GoogleServiceAccountJSON, cfg.SpreadsheetID)
		if err != nil {
			return nil, fmt.Errorf("sheets: %w", err)
		}
		w.sheets = sh
	}

	b, err := backend.Open(ctx, cfg, w.sheets)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	w.backend = b
	log.Info().Str("backend", b.Name).Msg("storage opened")

	svc, a, err := build(ctx, cfg, b.Store, w.registry, log)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	w.svc, w.auth = svc, a
	return w, nil
}

func build(ctx context.Context, cfg config.Config, store storage.Store, reg prometheus.Registerer, log zerolog.Logger) (*dispatch.Service, *auth.Authorizer, error) {
	g := storage.Guard(store)
	a := auth.New(g)

	seed := make([]models.UserID, 0, len(cfg.ManagerIDs))
	for _, id := range cfg.ManagerIDs {
		seed = append(seed, models.UserID(id))
	}
	seeded, err := a.Seed(ctx, seed)
	if err != nil {
		return nil, nil, err
	}
	if seeded {
		log.Info().Int("count", len(seed)).Msg("managers seeded from MANAGER_IDS")
	}

	gaz := zones.DefaultGazetteer()
	if cfg.GazetteerFile != "" {
		if gaz, err = zones.LoadGazetteer(cfg.GazetteerFile); err != nil {
			return nil, nil, err
		}
	}
	mode, err := zones.ParseMode(cfg.ZoneMode)
	if err != nil {
		return nil, nil, err
	}
	policy, err := dispatch.ParseUnknownPolicy(cfg.UnknownZonePolicy)
	if err != nil {
		return nil, nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	clock, err := ledger.NewDayClock(loc, cfg.DayBoundaryHour)
	if err != nil {
		return nil, nil, err
	}

	var rec metrics.Recorder = metrics.Nop{}
	if reg != nil {
		sink, err := metrics.NewPromSink(reg)
		if err != nil {
			return nil, nil, err
		}
		rec = sink
	}

	classifier := zones.NewClassifier(gaz, mode)
	svc, err := dispatch.New(dispatch.Deps{
		Auth:       a,
		Ledger:     ledger.New(g).WithClassifier(classifier.Classify),
		Sessions:   session.New(a, cfg.SessionTimeout),
		Classifier: classifier,
		Clock:      clock,
		Capacity:   cfg.VehicleCapacity,
		Unknown:    policy,
		Metrics:    rec,
		Log:        log,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("dispatch: %w", err)
	}
	return svc, a, nil
}
