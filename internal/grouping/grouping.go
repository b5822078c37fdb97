package grouping

import (
	"errors"
	"sort"

	"taxi-bot/internal/models"
)

var ErrCapacity = errors.New("vehicle capacity must be at least 1")

// Manifest is the ordered list of entries riding in one vehicle.
type Manifest struct {
	Zone    models.ZoneID
	Entries []models.Entry
}

// Group splits entries by zone, keeping insertion order inside each zone,
// and chunks every zone into manifests of at most capacity entries. Zones are
// emitted in ascending order with ZoneUnknown last.
func Group(entries []models.Entry, capacity int) ([]Manifest, error) {
	if capacity < 1 {
		return nil, ErrCapacity
	}

	byZone := map[models.ZoneID][]models.Entry{}
	var order []models.ZoneID
	for _, e := range entries {
		if _, ok := byZone[e.Zone]; !ok {
			order = append(order, e.Zone)
		}
		byZone[e.Zone] = append(byZone[e.Zone], e)
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.Known() != b.Known() {
			return a.Known()
		}
		return a < b
	})

	var out []Manifest
	for _, z := range order {
		zs := byZone[z]
		for start := 0; start < len(zs); start += capacity {
			end := min(start+capacity, len(zs))
			out = append(out, Manifest{Zone: z, Entries: append([]models.Entry(nil), zs[start:end]...)})
		}
	}
	return out, nil
}

// Flatten concatenates manifests back into one list.
func Flatten(ms []Manifest) []models.Entry {
	var out []models.Entry
	for _, m := range ms {
		out = append(out, m.Entries...)
	}
	return out
}
