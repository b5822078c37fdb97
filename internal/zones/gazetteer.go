package zones

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"taxi-bot/internal/models"
)

// Zone is one gazetteer row: a zone id with its landmark stations.
type Zone struct {
	ID       models.ZoneID `yaml:"id"`
	Name     string        `yaml:"name"`
	Stations []string      `yaml:"stations"`
}

// Gazetteer maps free text to zones by station substring. Zones are scanned
// in the order they were given; the first zone with a matching station wins.
type Gazetteer struct {
	zones []Zone
}

func NewGazetteer(zs []Zone) (*Gazetteer, error) {
	if len(zs) == 0 {
		return nil, fmt.Errorf("gazetteer: no zones")
	}
	seen := map[models.ZoneID]bool{}
	out := make([]Zone, 0, len(zs))
	for i, z := range zs {
		if !z.ID.Known() {
			return nil, fmt.Errorf("gazetteer: zone #%d: id must be positive, got %d", i+1, z.ID)
		}
		if seen[z.ID] {
			return nil, fmt.Errorf("gazetteer: duplicate zone id %d", z.ID)
		}
		seen[z.ID] = true

		stations := make([]string, 0, len(z.Stations))
		for _, s := range z.Stations {
			s = Normalize(s)
			if s == "" {
				continue
			}
			stations = append(stations, s)
		}
		if len(stations) == 0 {
			return nil, fmt.Errorf("gazetteer: zone %d has no stations", z.ID)
		}
		out = append(out, Zone{ID: z.ID, Name: strings.TrimSpace(z.Name), Stations: stations})
	}
	return &Gazetteer{zones: out}, nil
}

// LoadGazetteer reads an ordered YAML list of zones.
func LoadGazetteer(path string) (*Gazetteer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gazetteer: read %q: %w", path, err)
	}
	var zs []Zone
	if err := yaml.Unmarshal(data, &zs); err != nil {
		return nil, fmt.Errorf("gazetteer: parse %q: %w", path, err)
	}
	return NewGazetteer(zs)
}

// ZoneOf returns the first zone having a station contained in text.
func (g *Gazetteer) ZoneOf(text string) (models.ZoneID, bool) {
	text = Normalize(text)
	if text == "" {
		return models.ZoneUnknown, false
	}
	for _, z := range g.zones {
		for _, s := range z.Stations {
			if strings.Contains(text, s) {
				return z.ID, true
			}
		}
	}
	return models.ZoneUnknown, false
}

// Zones returns a copy of the zone table in scan order.
func (g *Gazetteer) Zones() []Zone {
	out := make([]Zone, len(g.zones))
	for i, z := range g.zones {
		out[i] = Zone{ID: z.ID, Name: z.Name, Stations: append([]string(nil), z.Stations...)}
	}
	return out
}

// UnknownLabel is shown in place of a zone name for unclassified entries.
const UnknownLabel = "зона не визначена"

// Name returns the display name of a zone, or "" when unnamed or unknown.
func (g *Gazetteer) Name(id models.ZoneID) string {
	for _, z := range g.zones {
		if z.ID == id {
			return z.Name
		}
	}
	return ""
}

var apostrophes = strings.NewReplacer("’", "'", "ʼ", "'", "`", "'", "‘", "'")

// Normalize lower-cases text, unifies apostrophes and collapses whitespace.
func Normalize(s string) string {
	s = cases.Lower(language.Ukrainian).String(s)
	s = apostrophes.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// DefaultGazetteer is the Kyiv metro table used when no file is configured.
func DefaultGazetteer() *Gazetteer {
	g, err := NewGazetteer([]Zone{
		{ID: 1, Name: "Центр", Stations: []string{
			"хрещатик", "майдан", "театральна", "університет", "вокзальна",
			"палац спорту", "кловська", "арсенальна", "золоті ворота",
			"лук'янівська", "олімпійська", "палац україна", "либідська",
		}},
		{ID: 2, Name: "Поділ / Оболонь", Stations: []string{
			"оболонь", "мінська", "героїв дніпра", "почайна", "тараса шевченка",
			"контрактова", "поштова площа", "виноградар", "сирець", "дорогожичі",
		}},
		{ID: 3, Name: "Лівий берег", Stations: []string{
			"дарниця", "лівобережна", "гідропарк", "чернігівська", "лісова",
			"троєщина", "русанівка", "березняки",
		}},
		{ID: 4, Name: "Південь", Stations: []string{
			"позняки", "осокорки", "харківська", "вирлиця", "бориспільська",
			"червоний хутір", "славутич", "теремки", "іподром", "виставковий центр",
			"васильківська", "голосіївська", "деміївська",
		}},
	})
	if err != nil {
		panic(err)
	}
	return g
}
