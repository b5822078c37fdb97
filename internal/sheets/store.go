package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"taxi-bot/internal/storage"
)

// SheetStore is the tab holding the key-value rows: key in column A, the JSON
// value split over columns B..Z.
const SheetStore = "Store"

const (
	// cellChars stays under the 50,000 character limit of a Sheets cell.
	cellChars = 40000
	// valueCells is columns B..Z.
	valueCells = 25
)

var errTooLarge = errors.New("value exceeds sheet row capacity")

// Store keeps storage keys as rows of one sheet.
type Store struct {
	mu sync.Mutex
	c  *Client
}

func NewStore(ctx context.Context, c *Client) (*Store, error) {
	if err := c.ensureSheet(ctx, SheetStore); err != nil {
		return nil, storage.Unavailable("sheets store", err)
	}
	return &Store{c: c}, nil
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, values, err := s.find(ctx, key)
	if err != nil {
		return nil, err
	}
	if row == 0 {
		return nil, storage.ErrNotFound
	}
	var b strings.Builder
	for i := 1; i <= valueCells; i++ {
		b.WriteString(get(values[row-1], i))
	}
	return []byte(b.String()), nil
}

func (s *Store) Save(ctx context.Context, key string, value []byte) error {
	chunks := splitCells(string(value))
	if len(chunks) > valueCells {
		return storage.Unavailable("sheets save "+key, fmt.Errorf("%w: %d bytes", errTooLarge, len(value)))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row, _, err := s.find(ctx, key)
	if err != nil {
		return err
	}
	if row == 0 {
		cells := make([]interface{}, 0, len(chunks)+1)
		cells = append(cells, key)
		for _, c := range chunks {
			cells = append(cells, c)
		}
		err = s.c.appendRow(ctx, SheetStore, cells)
	} else {
		// every value cell is written so a shorter value clears the tail
		cells := make([]interface{}, valueCells)
		for i := range cells {
			cells[i] = ""
			if i < len(chunks) {
				cells[i] = chunks[i]
			}
		}
		err = s.c.updateRange(ctx, SheetStore, fmt.Sprintf("B%d:Z%d", row, row), cells)
	}
	if err != nil {
		return storage.Unavailable("sheets save "+key, err)
	}
	return nil
}

// find returns the 1-based sheet row of key, 0 when absent.
func (s *Store) find(ctx context.Context, key string) (int, [][]interface{}, error) {
	values, err := s.c.readAll(ctx, SheetStore)
	if err != nil {
		return 0, nil, storage.Unavailable("sheets load "+key, err)
	}
	for i, row := range values {
		if get(row, 0) == key {
			return i + 1, values, nil
		}
	}
	return 0, values, nil
}

// splitCells cuts v into pieces of at most cellChars runes.
func splitCells(v string) []string {
	var out []string
	for v != "" {
		n, end := 0, len(v)
		for i := range v {
			if n == cellChars {
				end = i
				break
			}
			n++
		}
		out = append(out, v[:end])
		v = v[end:]
	}
	return out
}
