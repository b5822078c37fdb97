package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	a := NewEntry("x", 2, 7, at)
	b := NewEntry("x", 2, 7, at)

	_, err := uuid.Parse(a.ID)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, UserID(7), a.CreatedBy)
	assert.True(t, a.Zone.Known())
	assert.False(t, ZoneUnknown.Known())
}

func TestEntryDecodesLegacyMix(t *testing.T) {
	var es []Entry
	doc := `["вул. Хрещатик 1", {"id":"e1","text":"Оболонь 5","zone":2,"created_at":"2024-05-01T09:00:00Z"}]`
	require.NoError(t, json.Unmarshal([]byte(doc), &es))
	require.Len(t, es, 2)

	assert.Equal(t, Entry{Text: "вул. Хрещатик 1"}, es[0])
	assert.Equal(t, "e1", es[1].ID)
	assert.Equal(t, ZoneID(2), es[1].Zone)

	var e Entry
	assert.Error(t, json.Unmarshal([]byte(`42`), &e))
}
