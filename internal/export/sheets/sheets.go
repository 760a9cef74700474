// Package sheets appends the expenses currently shown on the dashboard to a
// Google Sheet, one row per expense.
package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"expensectl/internal/config"
	"expensectl/internal/core"
	"expensectl/internal/log"
)

var (
	ErrNotConfigured  = errors.New("sheet export is not configured (set GOOGLE_SPREADSHEET_ID)")
	ErrNoCredentials  = errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	ErrNotServiceAcct = errors.New("credentials are not a service account key")
)

// Header is written above the rows when requested.
var Header = []any{"Date", "Title", "Category", "Amount", "ID", "Filter"}

type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON []byte
}

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	logger        *log.Logger
}

// Result describes what the append wrote.
type Result struct {
	Range string
	Rows  int64
}

// ConfigFromApp resolves credentials from inline JSON or a key file.
func ConfigFromApp(cfg *config.Config) (Config, error) {
	if !cfg.ExportEnabled() {
		return Config{}, ErrNotConfigured
	}
	out := Config{SpreadsheetID: cfg.GoogleSpreadsheetID, SheetName: cfg.GoogleSheetName}

	switch path := cfg.ServiceAccountFile(); {
	case strings.TrimSpace(cfg.GoogleServiceAccountJSON) != "":
		out.CredentialsJSON = []byte(cfg.GoogleServiceAccountJSON)
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read service account file: %w", err)
		}
		out.CredentialsJSON = b
	default:
		return Config{}, ErrNoCredentials
	}
	return out, nil
}

// New builds a Sheets client from service account credentials. Extra
// options are applied after the credentials.
func New(ctx context.Context, cfg Config, logger *log.Logger, opts ...goption.ClientOption) (*Exporter, error) {
	if cfg.SpreadsheetID == "" {
		return nil, ErrNotConfigured
	}
	logger = log.OrDiscard(logger).WithComponent(log.ComponentExport)

	if len(cfg.CredentialsJSON) > 0 {
		if err := checkServiceAccount(cfg.CredentialsJSON); err != nil {
			return nil, err
		}
		opts = append([]goption.ClientOption{
			goption.WithCredentialsJSON(cfg.CredentialsJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}, opts...)
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	sheet := cfg.SheetName
	if sheet == "" {
		sheet = "Expenses"
	}
	logger.DebugContext(ctx, "Google Sheets service created", "sheet", sheet)
	return &Exporter{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheet: sheet, logger: logger}, nil
}

func checkServiceAccount(b []byte) error {
	var key struct {
		Type        string `json:"type"`
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(b, &key); err != nil {
		return fmt.Errorf("parse service account credentials: %w", err)
	}
	if key.Type != "service_account" || key.ClientEmail == "" {
		return ErrNotServiceAcct
	}
	return nil
}

// Export appends one row per expense, preceded by the header when
// withHeader is set. An empty slice writes nothing.
func (e *Exporter) Export(ctx context.Context, filter core.FilterState, expenses []core.Expense, withHeader bool) (Result, error) {
	rows := buildRows(filter, expenses)
	if len(rows) == 0 {
		return Result{}, nil
	}
	if withHeader {
		rows = append([][]any{Header}, rows...)
	}

	rng := fmt.Sprintf("%s!A:F", e.sheet)
	resp, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return Result{}, fmt.Errorf("append to sheet %s: %w", e.sheet, err)
	}

	res := Result{Rows: int64(len(rows))}
	if resp.Updates != nil {
		res.Range = resp.Updates.UpdatedRange
		if resp.Updates.UpdatedRows > 0 {
			res.Rows = resp.Updates.UpdatedRows
		}
	}
	e.logger.InfoContext(ctx, "Exported expenses",
		log.FieldCount, len(expenses),
		"range", res.Range)
	return res, nil
}

func buildRows(filter core.FilterState, expenses []core.Expense) [][]any {
	label := filter.Label()
	rows := make([][]any, 0, len(expenses))
	for _, x := range expenses {
		date := ""
		if !x.CreatedAt.IsZero() {
			date = x.CreatedAt.Local().Format(time.DateOnly)
		}
		rows = append(rows, []any{
			date,
			x.Title,
			string(x.Category),
			x.Amount.Decimal().InexactFloat64(),
			x.ID,
			label,
		})
	}
	return rows
}
