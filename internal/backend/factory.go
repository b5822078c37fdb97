package backend

import (
	"context"
	"fmt"

	"taxi-bot/internal/config"
	"taxi-bot/internal/sheets"
	"taxi-bot/internal/storage"
)

// Backend is an opened store together with whatever must be released on
// shutdown.
type Backend struct {
	Name  string
	Store storage.Store
	close func() error
}

func (b Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open selects the store named by STORAGE_BACKEND. sh is only used by the
// sheets backend and may be nil otherwise.
func Open(ctx context.Context, cfg config.Config, sh *sheets.Client) (Backend, error) {
	switch cfg.StorageBackend {
	case "memory":
		return Backend{Name: "memory", Store: storage.NewMemoryStore()}, nil
	case "", "file":
		fs, err := storage.NewFileStore(cfg.StoragePath)
		if err != nil {
			return Backend{}, err
		}
		return Backend{Name: "file", Store: fs}, nil
	case "sqlite":
		s, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return Backend{}, err
		}
		return Backend{Name: "sqlite", Store: s, close: s.Close}, nil
	case "postgres":
		s, err := storage.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return Backend{}, err
		}
		return Backend{Name: "postgres", Store: s, close: s.Close}, nil
	case "redis":
		s, err := storage.OpenRedis(ctx, storage.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return Backend{}, err
		}
		return Backend{Name: "redis", Store: s, close: s.Close}, nil
	case "sheets":
		if sh == nil {
			return Backend{}, fmt.Errorf("sheets backend: no spreadsheet client")
		}
		s, err := sheets.NewStore(ctx, sh)
		if err != nil {
			return Backend{}, err
		}
		return Backend{Name: "sheets", Store: s}, nil
	default:
		return Backend{}, fmt.Errorf("unknown storage backend: %s", cfg.StorageBackend)
	}
}
