package analytics

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// sheetHeaders are the header rows ensured by InitHeaders.
var sheetHeaders = map[string][]interface{}{
	SheetToneUsage: {"Date", "Tone"},
	SheetVisits:    {"Timestamp", "HashedIP", "Browser", "DeviceType"},
	SheetSummaries: {"Date", "Tone", "Length", "ContentType", "Success"},
}

// SheetsClient appends analytics rows to a Google spreadsheet.
type SheetsClient struct {
	service       *sheets.Service
	spreadsheetID string
}

// NewSheetsClient creates a Sheets client authenticated with a service
// account.
func NewSheetsClient(ctx context.Context, clientEmail, privateKey, spreadsheetID string) (*SheetsClient, error) {
	conf := &jwt.Config{
		Email:      clientEmail,
		PrivateKey: []byte(privateKey),
		Scopes:     []string{sheets.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}

	service, err := sheets.NewService(ctx, option.WithTokenSource(conf.TokenSource(ctx)))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &SheetsClient{
		service:       service,
		spreadsheetID: spreadsheetID,
	}, nil
}

// InitHeaders idempotently ensures each analytics tab has its header
// row. Safe to call repeatedly.
func (c *SheetsClient) InitHeaders(ctx context.Context) error {
	for sheet, header := range sheetHeaders {
		readRange := fmt.Sprintf("%s!A1:Z1", sheet)
		resp, err := c.service.Spreadsheets.Values.Get(c.spreadsheetID, readRange).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("reading header row of %s: %w", sheet, err)
		}
		if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
			continue
		}

		valueRange := &sheets.ValueRange{Values: [][]interface{}{header}}
		_, err = c.service.Spreadsheets.Values.
			Update(c.spreadsheetID, readRange, valueRange).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("writing header row of %s: %w", sheet, err)
		}
	}
	return nil
}

// AppendRows appends the given rows to their sheets, grouped per tab.
func (c *SheetsClient) AppendRows(ctx context.Context, rows []Row) error {
	grouped := make(map[string][][]interface{})
	for _, row := range rows {
		grouped[row.Sheet] = append(grouped[row.Sheet], row.Values)
	}

	for sheet, values := range grouped {
		valueRange := &sheets.ValueRange{Values: values}
		_, err := c.service.Spreadsheets.Values.
			Append(c.spreadsheetID, sheet+"!A:Z", valueRange).
			ValueInputOption("RAW").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("appending %d rows to %s: %w", len(values), sheet, err)
		}
	}
	return nil
}
