package sheets

import (
	"context"
	"fmt"
	"time"

	"taxi-bot/internal/grouping"
	"taxi-bot/internal/models"
	"taxi-bot/internal/zones"
)

// DispatchTitle is the tab a day's manifests are written to.
func DispatchTitle(day string) string { return "Dispatch " + day }

// WriteDispatchSheet replaces the day's tab with one row per seat.
func (c *Client) WriteDispatchSheet(ctx context.Context, day string, ms []grouping.Manifest, zoneName func(models.ZoneID) string) error {
	title := DispatchTitle(day)
	if err := c.ensureSheet(ctx, title); err != nil {
		return fmt.Errorf("dispatch sheet %s: %w", day, err)
	}
	if err := c.api.clear(ctx, title+"!A:Z"); err != nil {
		return fmt.Errorf("dispatch sheet %s: %w", day, err)
	}

	rows := [][]interface{}{{"vehicle", "zone", "seat", "address", "created_at"}}
	for i, m := range ms {
		zone := zones.UnknownLabel
		if m.Zone.Known() {
			zone = zoneName(m.Zone)
		}
		for j, e := range m.Entries {
			created := ""
			if !e.CreatedAt.IsZero() {
				created = e.CreatedAt.Format(time.RFC3339)
			}
			rows = append(rows, []interface{}{i + 1, zone, j + 1, e.Text, created})
		}
	}
	if err := c.api.update(ctx, title+"!A1", rows); err != nil {
		return fmt.Errorf("dispatch sheet %s: %w", day, err)
	}
	return nil
}
