package zones

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxi-bot/internal/models"
)

func TestDefaultGazetteerSubstring(t *testing.T) {
	g := DefaultGazetteer()
	for _, z := range g.Zones() {
		for _, s := range z.Stations {
			got, ok := g.ZoneOf("вул. Якась 12, біля " + s + " вхід 2")
			require.True(t, ok, "station %q", s)
			assert.Equal(t, z.ID, got, "station %q", s)
		}
	}
}

func TestZoneOfCaseAndApostrophe(t *testing.T) {
	g := DefaultGazetteer()

	z, ok := g.ZoneOf("ДАРНИЦЯ")
	assert.True(t, ok)
	assert.Equal(t, models.ZoneID(3), z)

	z, ok = g.ZoneOf("Лук’янівська  площа")
	assert.True(t, ok)
	assert.Equal(t, models.ZoneID(1), z)

	_, ok = g.ZoneOf("Львів, площа Ринок")
	assert.False(t, ok)
	_, ok = g.ZoneOf("   ")
	assert.False(t, ok)
}

func TestZoneOfFirstZoneWins(t *testing.T) {
	g, err := NewGazetteer([]Zone{
		{ID: 2, Stations: []string{"вокзал"}},
		{ID: 1, Stations: []string{"центральний вокзал"}},
	})
	require.NoError(t, err)

	z, ok := g.ZoneOf("Центральний вокзал, перон 3")
	assert.True(t, ok)
	assert.Equal(t, models.ZoneID(2), z)
}

func TestNewGazetteerValidation(t *testing.T) {
	_, err := NewGazetteer(nil)
	assert.Error(t, err)

	_, err = NewGazetteer([]Zone{{ID: 0, Stations: []string{"a"}}})
	assert.Error(t, err)

	_, err = NewGazetteer([]Zone{{ID: 1, Stations: []string{"a"}}, {ID: 1, Stations: []string{"b"}}})
	assert.Error(t, err)

	_, err = NewGazetteer([]Zone{{ID: 1, Stations: []string{" ", ""}}})
	assert.Error(t, err)
}

func TestLoadGazetteerKeepsOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.yaml")
	doc := `
- id: 7
  name: North
  stations: [Airport, Depot]
- id: 3
  name: South
  stations: [depot south]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	g, err := LoadGazetteer(path)
	require.NoError(t, err)

	zs := g.Zones()
	require.Len(t, zs, 2)
	assert.Equal(t, models.ZoneID(7), zs[0].ID)
	assert.Equal(t, []string{"airport", "depot"}, zs[0].Stations)
	assert.Equal(t, "South", g.Name(3))

	z, ok := g.ZoneOf("Depot South gate")
	assert.True(t, ok)
	assert.Equal(t, models.ZoneID(7), z)
}

func TestLoadGazetteerMissingFile(t *testing.T) {
	_, err := LoadGazetteer(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParseComposite(t *testing.T) {
	c, err := ParseComposite("Іван - вул. Ряшківська 5 (Дарниця)")
	require.NoError(t, err)
	assert.Equal(t, Composite{Name: "Іван", Address: "вул. Ряшківська 5", Station: "Дарниця"}, c)

	c, err = ParseComposite("Олена – просп. Бажана 1 (кв. 3) (Позняки)")
	require.NoError(t, err)
	assert.Equal(t, "просп. Бажана 1 (кв. 3)", c.Address)
	assert.Equal(t, "Позняки", c.Station)

	for _, bad := range []string{
		"вул. Ряшківська 5 (Дарниця)",
		"Іван - вул. Ряшківська 5",
		"Іван - (Дарниця)",
		"Іван-вул. Ряшківська 5 (Дарниця)",
		"Іван - вул. Ряшківська 5 ()",
	} {
		_, err := ParseComposite(bad)
		assert.ErrorIs(t, err, ErrMalformedInput, bad)
	}
}

func TestClassifierTextMode(t *testing.T) {
	c := NewClassifier(DefaultGazetteer(), ModeText)

	assert.Equal(t, models.ZoneID(3), c.Classify("Іван - вул. Ряшківська 5 (Дарниця)"))
	assert.Equal(t, models.ZoneID(2), c.Classify("Оболонська набережна, м. Оболонь"))
	assert.Equal(t, models.ZoneUnknown, c.Classify("десь за містом"))

	_, err := c.Resolve("десь за містом")
	assert.ErrorIs(t, err, ErrUnclassifiable)
}

func TestClassifierStationMode(t *testing.T) {
	c := NewClassifier(DefaultGazetteer(), ModeStation)

	z, err := c.Resolve("Іван - вул. Ряшківська 5 (Дарниця)")
	require.NoError(t, err)
	assert.Equal(t, models.ZoneID(3), z)

	// the address mentions a station, but only the station field counts
	z, err = c.Resolve("Іван - біля Хрещатика (Невідома)")
	assert.ErrorIs(t, err, ErrUnclassifiable)
	assert.Equal(t, models.ZoneUnknown, z)

	z, err = c.Resolve("просто адреса на Дарниці")
	assert.ErrorIs(t, err, ErrMalformedInput)
	assert.Equal(t, models.ZoneUnknown, z)
	assert.Equal(t, models.ZoneUnknown, c.Classify("просто адреса на Дарниці"))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeText, m)

	m, err = ParseMode(" Station ")
	require.NoError(t, err)
	assert.Equal(t, ModeStation, m)

	_, err = ParseMode("geo")
	assert.Error(t, err)
}
