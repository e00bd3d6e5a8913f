// Package google implements the storage backend on a Google spreadsheet:
// one sheet per table, first row pinned as header. This is the substrate the
// system was designed around; the whole dataset lives in a single
// spreadsheet identified by KHATA_SPREADSHEET_ID.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"khata/internal/core"
	"khata/internal/store"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string

	// sheetIDs caches title -> numeric sheet ID, needed for row deletion.
	sheetIDs map[string]int64
}

var _ store.Backend = (*Client)(nil)

// NewFromEnv creates a Sheets-backed store using environment variables.
// Required: KHATA_SPREADSHEET_ID. Auth comes from a service account via
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("KHATA_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing KHATA_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetIDs:      make(map[string]int64),
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	inlineJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	credFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if inlineJSON == "" && credFile == "" {
		credFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case inlineJSON != "":
		credentialsJSON = []byte(inlineJSON)
	case credFile != "":
		b, err := os.ReadFile(credFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// readTable fetches all rows of a sheet and validates its header against the
// pinned schema. A missing sheet or a reordered header is a deployment
// error, not a data error.
func (c *Client) readTable(ctx context.Context, name string, header []string) ([][]string, error) {
	rng := fmt.Sprintf("%s!A:%s", name, colLetter(len(header)))
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", core.ErrStoreMissing, name, err)
	}
	if len(resp.Values) == 0 {
		return nil, fmt.Errorf("%w: sheet %s is empty", core.ErrStoreMissing, name)
	}

	rows := make([][]string, len(resp.Values))
	for i, raw := range resp.Values {
		row := make([]string, len(raw))
		for j, v := range raw {
			row[j] = strings.TrimSpace(fmt.Sprint(v))
		}
		rows[i] = row
	}
	if err := store.ValidateHeader(name, rows[0], header); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) appendRow(ctx context.Context, name string, row []string) error {
	vals := make([]any, len(row))
	for i, v := range row {
		vals[i] = v
	}
	vr := &gsheet.ValueRange{Values: [][]any{vals}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, name+"!A:A", vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append row to %s: %w", name, err)
	}
	return nil
}

// deleteRow removes the zero-based row index (header = 0) from a sheet.
func (c *Client) deleteRow(ctx context.Context, name string, rowIdx int) error {
	sheetID, err := c.sheetID(ctx, name)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(rowIdx),
					EndIndex:   int64(rowIdx + 1),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d from %s: %w", rowIdx, name, err)
	}
	return nil
}

func (c *Client) setCell(ctx context.Context, name string, rowIdx, colIdx int, value string) error {
	rng := fmt.Sprintf("%s!%s%d", name, colLetter(colIdx+1), rowIdx+1)
	vr := &gsheet.ValueRange{Values: [][]any{{value}}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("set cell %s: %w", rng, err)
	}
	return nil
}

func (c *Client) sheetID(ctx context.Context, name string) (int64, error) {
	if id, ok := c.sheetIDs[name]; ok {
		return id, nil
	}
	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet metadata: %w", err)
	}
	for _, sh := range meta.Sheets {
		if sh.Properties != nil {
			c.sheetIDs[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	id, ok := c.sheetIDs[name]
	if !ok {
		return 0, fmt.Errorf("%w: sheet %s not found", core.ErrStoreMissing, name)
	}
	return id, nil
}

// Setup creates any missing sheets, writes their header rows, and seeds the
// default settings. Existing sheets and settings are left untouched.
func (c *Client) Setup(ctx context.Context) error {
	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet metadata: %w", err)
	}
	existing := map[string]bool{}
	for _, sh := range meta.Sheets {
		if sh.Properties != nil {
			existing[sh.Properties.Title] = true
			c.sheetIDs[sh.Properties.Title] = sh.Properties.SheetId
		}
	}

	tables := []struct {
		name   string
		header []string
	}{
		{store.TransactionsTable, store.TransactionsHeader},
		{store.RemindersTable, store.RemindersHeader},
		{store.SettingsTable, store.SettingsHeader},
	}
	for _, t := range tables {
		if existing[t.name] {
			continue
		}
		req := &gsheet.BatchUpdateSpreadsheetRequest{
			Requests: []*gsheet.Request{{
				AddSheet: &gsheet.AddSheetRequest{
					Properties: &gsheet.SheetProperties{Title: t.name},
				},
			}},
		}
		if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("create sheet %s: %w", t.name, err)
		}
		delete(c.sheetIDs, t.name) // repopulated on next lookup
		if err := c.appendRow(ctx, t.name, t.header); err != nil {
			return err
		}
		slog.InfoContext(ctx, "Created sheet", "sheet", t.name)
	}

	for _, seed := range [][2]string{
		{store.KeyBudget, store.DefaultBudget},
		{store.KeyPIN, store.DefaultPIN},
	} {
		if _, err := c.findSetting(ctx, seed[0]); err == nil {
			continue
		} else if !errors.Is(err, core.ErrNotFound) {
			return err
		}
		if err := c.appendRow(ctx, store.SettingsTable, []string{seed[0], seed[1]}); err != nil {
			return err
		}
	}
	return nil
}

// AppendTransaction implements store.TransactionStore.
func (c *Client) AppendTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	// Validate the header before writing so a misconfigured spreadsheet
	// fails loudly instead of silently reordering columns.
	if _, err := c.readTable(ctx, store.TransactionsTable, store.TransactionsHeader); err != nil {
		return "", err
	}
	tx.ID = store.NewTransactionID()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	if err := c.appendRow(ctx, store.TransactionsTable, store.EncodeTransaction(tx)); err != nil {
		return "", err
	}
	return tx.ID, nil
}

// DeleteTransaction implements store.TransactionStore.
func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	return c.deleteByID(ctx, store.TransactionsTable, store.TransactionsHeader, id)
}

// ListTransactions implements store.TransactionStore.
func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := c.readTable(ctx, store.TransactionsTable, store.TransactionsHeader)
	if err != nil {
		return nil, err
	}
	out := []core.Transaction{}
	for _, row := range rows[1:] {
		if tx, ok := store.DecodeTransaction(row); ok {
			out = append(out, tx)
		}
	}
	return out, nil
}

// AppendReminder implements store.ReminderStore.
func (c *Client) AppendReminder(ctx context.Context, r core.Reminder) (string, error) {
	if _, err := c.readTable(ctx, store.RemindersTable, store.RemindersHeader); err != nil {
		return "", err
	}
	r.ID = store.NewReminderID()
	if err := c.appendRow(ctx, store.RemindersTable, store.EncodeReminder(r)); err != nil {
		return "", err
	}
	return r.ID, nil
}

// DeleteReminder implements store.ReminderStore.
func (c *Client) DeleteReminder(ctx context.Context, id string) error {
	return c.deleteByID(ctx, store.RemindersTable, store.RemindersHeader, id)
}

// ListReminders implements store.ReminderStore.
func (c *Client) ListReminders(ctx context.Context) ([]core.Reminder, error) {
	rows, err := c.readTable(ctx, store.RemindersTable, store.RemindersHeader)
	if err != nil {
		return nil, err
	}
	out := []core.Reminder{}
	for _, row := range rows[1:] {
		if r, ok := store.DecodeReminder(row); ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// GetSetting implements store.SettingsStore.
func (c *Client) GetSetting(ctx context.Context, key, def string) (string, error) {
	rows, err := c.readTable(ctx, store.SettingsTable, store.SettingsHeader)
	if err != nil {
		return "", err
	}
	for _, row := range rows[1:] {
		if len(row) >= 2 && row[0] == key {
			return row[1], nil
		}
	}
	return def, nil
}

// UpsertSetting implements store.SettingsStore.
func (c *Client) UpsertSetting(ctx context.Context, key, value string) error {
	rows, err := c.readTable(ctx, store.SettingsTable, store.SettingsHeader)
	if err != nil {
		return err
	}
	for i, row := range rows[1:] {
		if len(row) >= 1 && row[0] == key {
			return c.setCell(ctx, store.SettingsTable, i+1, 1, value)
		}
	}
	return c.appendRow(ctx, store.SettingsTable, []string{key, value})
}

func (c *Client) deleteByID(ctx context.Context, table string, header []string, id string) error {
	rows, err := c.readTable(ctx, table, header)
	if err != nil {
		return err
	}
	for i, row := range rows[1:] {
		if len(row) >= 1 && row[0] == id {
			return c.deleteRow(ctx, table, i+1)
		}
	}
	return fmt.Errorf("%w: %s", core.ErrNotFound, id)
}

func (c *Client) findSetting(ctx context.Context, key string) (string, error) {
	rows, err := c.readTable(ctx, store.SettingsTable, store.SettingsHeader)
	if err != nil {
		return "", err
	}
	for _, row := range rows[1:] {
		if len(row) >= 2 && row[0] == key {
			return row[1], nil
		}
	}
	return "", fmt.Errorf("%w: setting %s", core.ErrNotFound, key)
}

// colLetter converts a 1-based column count to its A1-notation letter.
// Tables here never exceed 26 columns.
func colLetter(n int) string {
	return string(rune('A' + n - 1))
}
