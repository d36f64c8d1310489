// Package sheets fetches the authoritative weekly schedule from a Google
// spreadsheet and normalizes it. The source is untrusted and unstable:
// nothing in this package panics past its boundary, total failure is an
// error the caller treats as "unavailable".
package sheets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/C4NU/hanavi-schedule/internal/config"
	"github.com/C4NU/hanavi-schedule/internal/domain"
)

type Client struct {
	service       *sheets.Service
	spreadsheetID string
	timeout       time.Duration
}

func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsReadonlyScope)}
	switch {
	case cfg.Sheets.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.Sheets.CredentialsJSON)))
	case cfg.Sheets.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.Sheets.CredentialsFile))
	default:
		return nil, errors.New("sheets credentials are not configured")
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &Client{
		service:       service,
		spreadsheetID: cfg.Sheets.SpreadsheetID,
		timeout:       time.Duration(cfg.Sheets.FetchTimeout) * time.Second,
	}, nil
}

// Fetch reads the whole first sheet and parses it into a week view.
func (c *Client) Fetch(ctx context.Context) (*domain.WeeklySchedule, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// The sheet is renamed per week, so resolve the current title first.
	meta, err := c.service.Spreadsheets.Get(c.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetch spreadsheet metadata: %w", err)
	}
	if len(meta.Sheets) == 0 || meta.Sheets[0].Properties == nil {
		return nil, errors.New("no sheets found in the spreadsheet")
	}
	title := meta.Sheets[0].Properties.Title

	resp, err := c.service.Spreadsheets.Values.Get(c.spreadsheetID, title+"!A:Z").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetch spreadsheet values: %w", err)
	}
	if len(resp.Values) == 0 {
		return nil, errors.New("no data found in the spreadsheet")
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, 0, len(raw))
		for _, cell := range raw {
			row = append(row, fmt.Sprint(cell))
		}
		rows = append(rows, row)
	}

	return ParseRows(rows), nil
}
