package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"stipendio/internal/core"
	"stipendio/internal/mirror"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client mirrors the salaries table into one sheet: column A month key,
// column B amount, column C updated_at. Row 1 is a header.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ mirror.RecordMirror = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID. Credentials come from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS. Sheet name: GOOGLE_SHEET_NAME
// (default "Salaries").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Salaries"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// UpsertRow writes or overwrites the mirrored row for rec's month.
func (c *Client) UpsertRow(ctx context.Context, rec core.SalaryRecord) error {
	row, err := c.findRow(ctx, rec.Month)
	if err != nil {
		return err
	}

	values := &gsheet.ValueRange{Values: [][]interface{}{recordRow(rec)}}

	if row == 0 {
		_, err = c.svc.Spreadsheets.Values.
			Append(c.spreadsheetID, c.sheetName+"!A:C", values).
			ValueInputOption("RAW").
			Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("append row for %s: %w", rec.Month, err)
		}
		slog.InfoContext(ctx, "Mirror row appended", "month", string(rec.Month))
		return nil
	}

	rangeRef := fmt.Sprintf("%s!A%d:C%d", c.sheetName, row, row)
	_, err = c.svc.Spreadsheets.Values.
		Update(c.spreadsheetID, rangeRef, values).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update row for %s: %w", rec.Month, err)
	}
	slog.InfoContext(ctx, "Mirror row updated", "month", string(rec.Month), "row", row)
	return nil
}

// DeleteRow clears the mirrored row for month if present.
func (c *Client) DeleteRow(ctx context.Context, month core.MonthKey) error {
	row, err := c.findRow(ctx, month)
	if err != nil {
		return err
	}
	if row == 0 {
		slog.InfoContext(ctx, "Mirror row already absent", "month", string(month))
		return nil
	}

	rangeRef := fmt.Sprintf("%s!A%d:C%d", c.sheetName, row, row)
	_, err = c.svc.Spreadsheets.Values.
		Clear(c.spreadsheetID, rangeRef, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear row for %s: %w", month, err)
	}
	slog.InfoContext(ctx, "Mirror row cleared", "month", string(month), "row", row)
	return nil
}

// ReplaceAll clears the data range and rewrites every record, header intact.
func (c *Client) ReplaceAll(ctx context.Context, records []core.SalaryRecord) error {
	_, err := c.svc.Spreadsheets.Values.
		Clear(c.spreadsheetID, c.sheetName+"!A2:C", &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear mirror: %w", err)
	}

	if len(records) == 0 {
		slog.InfoContext(ctx, "Mirror reconciled to empty")
		return nil
	}

	rows := make([][]interface{}, 0, len(records))
	for _, rec := range records {
		rows = append(rows, recordRow(rec))
	}
	_, err = c.svc.Spreadsheets.Values.
		Update(c.spreadsheetID, fmt.Sprintf("%s!A2:C%d", c.sheetName, len(rows)+1), &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("rewrite mirror: %w", err)
	}

	slog.InfoContext(ctx, "Mirror reconciled", "rows", len(rows))
	return nil
}

// findRow returns the 1-based sheet row holding month, or 0 if absent.
func (c *Client) findRow(ctx context.Context, month core.MonthKey) (int, error) {
	resp, err := c.svc.Spreadsheets.Values.
		Get(c.spreadsheetID, c.sheetName+"!A:A").
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read month column: %w", err)
	}

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if key, ok := row[0].(string); ok && core.MonthKey(key) == month {
			return i + 1, nil
		}
	}
	return 0, nil
}

func recordRow(rec core.SalaryRecord) []interface{} {
	return []interface{}{
		string(rec.Month),
		strconv.FormatInt(rec.Amount, 10),
		rec.UpdatedAt.Format(time.RFC3339),
	}
}
