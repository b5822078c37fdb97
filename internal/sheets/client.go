package sheets

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"
)

// values is the part of the Sheets API the client uses.
type values interface {
	get(ctx context.Context, rng string) ([][]interface{}, error)
	append(ctx context.Context, rng string, rows [][]interface{}) error
	update(ctx context.Context, rng string, rows [][]interface{}) error
	clear(ctx context.Context, rng string) error
	titles(ctx context.Context) ([]string, error)
	addSheet(ctx context.Context, title string) error
}

type Client struct {
	api           values
	spreadsheetID string
}

func New(ctx context.Context, serviceAccountJSONPath, spreadsheetID string) (*Client, error) {
	if _, err := os.Stat(serviceAccountJSONPath); err != nil {
		return nil, fmt.Errorf("service account json: %w", err)
	}
	srv, err := sheetsv4.NewService(ctx,
		option.WithCredentialsFile(serviceAccountJSONPath),
		option.WithScopes(sheetsv4.SpreadsheetsScope),
	)
	if err != nil {
		return nil, err
	}
	return &Client{api: &service{srv: srv, id: spreadsheetID}, spreadsheetID: spreadsheetID}, nil
}

func (c *Client) SpreadsheetID() string { return c.spreadsheetID }

// URL is the browser link of the spreadsheet.
func (c *Client) URL() string {
	return "https://docs.google.com/spreadsheets/d/" + c.spreadsheetID
}

func (c *Client) readAll(ctx context.Context, sheet string) ([][]interface{}, error) {
	return c.api.get(ctx, sheet+"!A:Z")
}

func (c *Client) appendRow(ctx context.Context, sheet string, row []interface{}) error {
	return c.api.append(ctx, sheet+"!A:Z", [][]interface{}{row})
}

func (c *Client) updateRange(ctx context.Context, sheet, a1 string, row []interface{}) error {
	return c.api.update(ctx, sheet+"!"+a1, [][]interface{}{row})
}

// ensureSheet adds a tab named title unless it already exists.
func (c *Client) ensureSheet(ctx context.Context, title string) error {
	ts, err := c.api.titles(ctx)
	if err != nil {
		return err
	}
	for _, t := range ts {
		if t == title {
			return nil
		}
	}
	return c.api.addSheet(ctx, title)
}

func get(row []interface{}, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return fmt.Sprint(row[idx])
}

type service struct {
	srv *sheetsv4.Service
	id  string
}

func (s *service) get(ctx context.Context, rng string) ([][]interface{}, error) {
	resp, err := s.srv.Spreadsheets.Values.Get(s.id, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s *service) append(ctx context.Context, rng string, rows [][]interface{}) error {
	vr := &sheetsv4.ValueRange{Values: rows}
	_, err := s.srv.Spreadsheets.Values.Append(s.id, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

func (s *service) update(ctx context.Context, rng string, rows [][]interface{}) error {
	vr := &sheetsv4.ValueRange{Values: rows}
	_, err := s.srv.Spreadsheets.Values.Update(s.id, rng, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

func (s *service) clear(ctx context.Context, rng string) error {
	_, err := s.srv.Spreadsheets.Values.Clear(s.id, rng, &sheetsv4.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (s *service) titles(ctx context.Context) ([]string, error) {
	ss, err := s.srv.Spreadsheets.Get(s.id).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			out = append(out, sh.Properties.Title)
		}
	}
	return out, nil
}

func (s *service) addSheet(ctx context.Context, title string) error {
	req := &sheetsv4.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsv4.Request{{
			AddSheet: &sheetsv4.AddSheetRequest{
				Properties: &sheetsv4.SheetProperties{Title: title},
			},
		}},
	}
	_, err := s.srv.Spreadsheets.BatchUpdate(s.id, req).Context(ctx).Do()
	return err
}
