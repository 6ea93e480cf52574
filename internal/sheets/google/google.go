package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"caixa/internal/core"
	ports "caixa/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	summarySheet  string
}

// Ensure interface conformance
var _ ports.SummaryWriter = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_SHEET_NAME (default "Resumo") and service account
// credentials via GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE,
// or GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Resumo"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		summarySheet:  sheetName,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
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

// summaryHeader is row 1 of the summary sheet.
var summaryHeader = []any{
	"Mês", "Receita", "Despesas", "Lucro Líquido",
	"Caixa Inicial", "Caixa Final",
	"Km", "Horas", "Combustível e Custos",
	"Fixas Previstas", "Fixas Pagas",
}

// summaryRow converts a month summary into one sheet row. Money lands
// as decimal values so the sheet can aggregate them.
func summaryRow(key core.MonthKey, s core.MonthSummary) []any {
	return []any{
		string(key),
		decimal(s.TotalIncome),
		decimal(s.TotalExpenses),
		decimal(s.NetProfit),
		decimal(s.OpeningCash),
		decimal(s.ClosingCash),
		s.TotalDistanceKm,
		s.TotalHours,
		decimal(s.OperationalOutflow),
		decimal(s.ProjectedFixed),
		decimal(s.DilutedFixed),
	}
}

func decimal(m core.Money) float64 {
	return float64(m.Cents) / 100.0
}

// AppendMonthSummary writes the month's row, replacing an existing row
// for the same month so repeated exports stay idempotent.
func (c *Client) AppendMonthSummary(ctx context.Context, key core.MonthKey, summary core.MonthSummary) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:A", c.summarySheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to get sheet dimensions for %s: %w", c.summarySheet, err)
	}

	// Row 1 is the header; rewrite it when the sheet is empty.
	if len(resp.Values) == 0 {
		headerRange := fmt.Sprintf("%s!A1", c.summarySheet)
		vr := &gsheet.ValueRange{Values: [][]any{summaryHeader}}
		if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, headerRange, vr).
			ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
			return fmt.Errorf("failed to write header in sheet %s: %w", c.summarySheet, err)
		}
	}

	// Find an existing row for this month, else append past the end.
	targetRow := len(resp.Values) + 1
	if targetRow == 1 {
		targetRow = 2 // first data row after the freshly written header
	}
	for i, row := range resp.Values {
		if i == 0 || len(row) == 0 {
			continue
		}
		if cell, ok := row[0].(string); ok && cell == string(key) {
			targetRow = i + 1
			break
		}
	}

	dataRange := fmt.Sprintf("%s!A%d", c.summarySheet, targetRow)
	vr := &gsheet.ValueRange{Values: [][]any{summaryRow(key, summary)}}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to update row %d in sheet %s: %w", targetRow, c.summarySheet, err)
	}

	slog.InfoContext(ctx, "Exported month summary to sheet",
		"month_key", key,
		"sheet", c.summarySheet,
		"row", targetRow)
	return nil
}
