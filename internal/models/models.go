package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// UserID is the Telegram user id of an operator.
type UserID int64

// ZoneID identifies a gazetteer zone. Known zones start at 1.
type ZoneID int

// ZoneUnknown marks an address that matched no gazetteer station.
const ZoneUnknown ZoneID = 0

func (z ZoneID) Known() bool { return z > ZoneUnknown }

// Entry is one registered pickup. Text is the raw address or the
// "name - address (station)" composite.
type Entry struct {
	ID        string    `json:"id,omitempty"`
	Text      string    `json:"text"`
	Zone      ZoneID    `json:"zone"`
	CreatedBy UserID    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewEntry(text string, zone ZoneID, by UserID, at time.Time) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Text:      text,
		Zone:      zone,
		CreatedBy: by,
		CreatedAt: at,
	}
}

type entryJSON Entry

// UnmarshalJSON also accepts a bare string, the format older storage files
// used for addresses.
func (e *Entry) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*e = Entry{Text: s, Zone: ZoneUnknown}
		return nil
	}
	var raw entryJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*e = Entry(raw)
	return nil
}
