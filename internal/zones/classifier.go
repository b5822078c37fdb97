package zones

import (
	"errors"
	"fmt"
	"strings"

	"taxi-bot/internal/models"
)

var (
	ErrUnclassifiable = errors.New("address matches no known station")
	ErrMalformedInput = errors.New("expected \"name - address (station)\"")
)

// Mode selects which part of the input is matched against the gazetteer.
type Mode string

const (
	// ModeText scans the whole text for a station substring.
	ModeText Mode = "text"
	// ModeStation matches only the parenthesised station of a composite.
	ModeStation Mode = "station"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeText:
		return ModeText, nil
	case ModeStation:
		return ModeStation, nil
	default:
		return "", fmt.Errorf("unknown zone mode %q", s)
	}
}

// Composite is a parsed "name - address (station)" entry.
type Composite struct {
	Name    string
	Address string
	Station string
}

var dashes = []string{" - ", " – ", " — "}

// ParseComposite splits "name - address (station)". The name ends at the
// first spaced dash, the station is the last parenthesised group.
func ParseComposite(raw string) (Composite, error) {
	raw = strings.TrimSpace(raw)

	cut := -1
	width := 0
	for _, d := range dashes {
		if i := strings.Index(raw, d); i >= 0 && (cut < 0 || i < cut) {
			cut, width = i, len(d)
		}
	}
	if cut < 0 {
		return Composite{}, ErrMalformedInput
	}
	name := strings.TrimSpace(raw[:cut])
	rest := strings.TrimSpace(raw[cut+width:])

	open := strings.LastIndex(rest, "(")
	closing := strings.LastIndex(rest, ")")
	if open < 0 || closing < open {
		return Composite{}, ErrMalformedInput
	}
	c := Composite{
		Name:    name,
		Address: strings.TrimSpace(rest[:open]),
		Station: strings.TrimSpace(rest[open+1 : closing]),
	}
	if c.Name == "" || c.Address == "" || c.Station == "" {
		return Composite{}, ErrMalformedInput
	}
	return c, nil
}

type Classifier struct {
	gaz  *Gazetteer
	mode Mode
}

func NewClassifier(g *Gazetteer, mode Mode) *Classifier {
	if mode == "" {
		mode = ModeText
	}
	return &Classifier{gaz: g, mode: mode}
}

func (c *Classifier) Mode() Mode { return c.mode }

// ZoneName returns the gazetteer name of a zone.
func (c *Classifier) ZoneName(id models.ZoneID) string { return c.gaz.Name(id) }

// Classify never fails: anything that cannot be resolved is ZoneUnknown.
func (c *Classifier) Classify(raw string) models.ZoneID {
	z, _ := c.Resolve(raw)
	return z
}

// Resolve is the strict form of Classify. It reports why a zone could not
// be found so callers can decide whether an unknown zone is acceptable.
func (c *Classifier) Resolve(raw string) (models.ZoneID, error) {
	target := raw
	if c.mode == ModeStation {
		comp, err := ParseComposite(raw)
		if err != nil {
			return models.ZoneUnknown, err
		}
		target = comp.Station
	}
	z, ok := c.gaz.ZoneOf(target)
	if !ok {
		return models.ZoneUnknown, ErrUnclassifiable
	}
	return z, nil
}
