package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	TelegramToken string

	StorageBackend string
	StoragePath    string
	SQLitePath     string
	DatabaseURL    string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	SpreadsheetID            string
	GoogleServiceAccountJSON string

	ManagerIDs []int64

	Timezone          string
	DayBoundaryHour   int
	VehicleCapacity   int
	ZoneMode          string
	UnknownZonePolicy string
	GazetteerFile     string
	SessionTimeout    time.Duration

	HTTPAddr      string
	BasePublicURL string
	ExportSecret  string
}

// FromEnv reads the configuration. The Telegram token is only required by
// the bot itself, so it is checked by RequireTelegram.
func FromEnv() (Config, error) {
	var c Config
	c.TelegramToken = env("TELEGRAM_BOT_TOKEN")

	c.StorageBackend = strings.ToLower(env("STORAGE_BACKEND"))
	if c.StorageBackend == "" {
		c.StorageBackend = "file"
	}
	c.StoragePath = envOr("STORAGE_PATH", "storage.json")
	c.SQLitePath = envOr("SQLITE_PATH", "data/taxi.db")
	c.DatabaseURL = env("DATABASE_URL")
	c.RedisAddr = env("REDIS_ADDR")
	c.RedisPassword = env("REDIS_PASSWORD")

	c.SpreadsheetID = env("GOOGLE_SHEETS_SPREADSHEET_ID")
	c.GoogleServiceAccountJSON = env("GOOGLE_SERVICE_ACCOUNT_JSON")

	c.Timezone = envOr("TIMEZONE", "Europe/Kyiv")
	c.ZoneMode = envOr("ZONE_MODE", "text")
	c.UnknownZonePolicy = envOr("UNKNOWN_ZONE_POLICY", "store")
	c.GazetteerFile = env("GAZETTEER_FILE")

	c.HTTPAddr = envOr("HTTP_ADDR", ":8080")
	c.BasePublicURL = strings.TrimRight(env("BASE_PUBLIC_URL"), "/")
	c.ExportSecret = env("EXPORT_SECRET")

	var err error
	if c.RedisDB, err = envInt("REDIS_DB", 0); err != nil {
		return c, err
	}
	if c.DayBoundaryHour, err = envInt("DAY_BOUNDARY_HOUR", 0); err != nil {
		return c, err
	}
	if c.DayBoundaryHour < 0 || c.DayBoundaryHour > 23 {
		return c, fmt.Errorf("DAY_BOUNDARY_HOUR must be 0-23, got %d", c.DayBoundaryHour)
	}
	if c.VehicleCapacity, err = envInt("VEHICLE_CAPACITY", 4); err != nil {
		return c, err
	}
	if c.VehicleCapacity < 1 {
		return c, fmt.Errorf("VEHICLE_CAPACITY must be positive, got %d", c.VehicleCapacity)
	}
	if raw := env("SESSION_TIMEOUT"); raw != "" {
		if c.SessionTimeout, err = time.ParseDuration(raw); err != nil {
			return c, fmt.Errorf("SESSION_TIMEOUT: %w", err)
		}
	}

	switch c.StorageBackend {
	case "file", "memory", "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			return c, fmt.Errorf("DATABASE_URL is empty")
		}
	case "redis":
		if c.RedisAddr == "" {
			return c, fmt.Errorf("REDIS_ADDR is empty")
		}
	case "sheets":
		if c.SpreadsheetID == "" {
			return c, fmt.Errorf("GOOGLE_SHEETS_SPREADSHEET_ID is empty")
		}
		if c.GoogleServiceAccountJSON == "" {
			return c, fmt.Errorf("GOOGLE_SERVICE_ACCOUNT_JSON is empty")
		}
	default:
		return c, fmt.Errorf("unknown STORAGE_BACKEND: %s", c.StorageBackend)
	}

	if c.BasePublicURL != "" && c.ExportSecret == "" {
		return c, fmt.Errorf("BASE_PUBLIC_URL is set but EXPORT_SECRET is empty")
	}

	c.ManagerIDs = parseManagerIDs(os.Getenv("MANAGER_IDS"))

	return c, nil
}

// ExportEnabled reports whether signed CSV export links may be served.
func (c Config) ExportEnabled() bool {
	return c.ExportSecret != ""
}

func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is empty")
	}
	return nil
}

// SheetsEnabled reports whether Google Sheets credentials are configured.
func (c Config) SheetsEnabled() bool {
	return c.SpreadsheetID != "" && c.GoogleServiceAccountJSON != ""
}

func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	return loc, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envOr(key, def string) string {
	if v := env(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	raw := env(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", key, raw)
	}
	return v, nil
}

func parseManagerIDs(raw string) []int64 {
	out := []int64{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return out
	}
	parts := strings.Split(raw, ",")
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
