package dispatch

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"taxi-bot/internal/grouping"
	"taxi-bot/internal/models"
	"taxi-bot/internal/session"
)

// Kind tells the transport which fields of a Reply are set.
type Kind int

const (
	KindHelp Kind = iota
	KindPrompt
	KindAdded
	KindRemoved
	KindCleared
	KindListing
	KindExport
	KindManagerAdded
	KindManagerRemoved
	KindManagers
	KindCancelled
)

// Reply is the structured result of a handled event. Formatting is up to the
// transport. Answering is the prompt the event was consumed by; it is set on
// failures too.
type Reply struct {
	Kind      Kind
	Day       string
	Prompt    session.State
	Answering session.State
	Index     int
	Entry     models.Entry
	Count     int
	Target    models.UserID
	Managers  []models.UserID
	Sheet     DaySheet
	Manager   bool
	Bootstrap bool
}

// DaySheet is one day's ledger together with its vehicle manifests.
type DaySheet struct {
	Day       string
	Entries   []models.Entry
	Manifests []grouping.Manifest
}

var csvHeader = []string{"vehicle", "zone", "seat", "text", "created_by", "created_at", "id"}

// CSV renders the manifests one row per seat.
func (d DaySheet) CSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for i, m := range d.Manifests {
		for j, e := range m.Entries {
			created := ""
			if !e.CreatedAt.IsZero() {
				created = e.CreatedAt.Format(time.RFC3339)
			}
			by := ""
			if e.CreatedBy != 0 {
				by = strconv.FormatInt(int64(e.CreatedBy), 10)
			}
			row := []string{
				strconv.Itoa(i + 1),
				strconv.Itoa(int(m.Zone)),
				strconv.Itoa(j + 1),
				e.Text,
				by,
				created,
				e.ID,
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
