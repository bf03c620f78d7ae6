package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"gagyebu/internal/core"
	"gagyebu/internal/sheets"
)

// Summary rows live in columns A:F: owner, month, income, expense, net, updated.
const columns = "A:F"

var header = []any{"owner_id", "month", "income", "expense", "net", "updated_at"}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	now           func() time.Time
}

var _ sheets.SummaryStore = (*Client)(nil)

type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// New creates a client authenticated with service account credentials,
// taken inline from CredentialsJSON or read from CredentialsFile.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	var credentials []byte
	switch {
	case opts.CredentialsJSON != "":
		credentials = []byte(opts.CredentialsJSON)
	case opts.CredentialsFile != "":
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentials = b
	default:
		return nil, errors.New("missing service account credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets summary export ready",
		"component", "sheets",
		"sheet", opts.SheetName)
	return NewWithService(svc, opts.SpreadsheetID, opts.SheetName), nil
}

// NewWithService wraps an existing service; tests point it at a fake endpoint.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Summary"
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName, now: time.Now}
}

// WriteMonthSummaries rewrites the rows already exported for the owner's
// months in one batch update and appends the rest.
func (c *Client) WriteMonthSummaries(ctx context.Context, ownerID string, summaries []core.MonthSummary) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if ownerID == "" {
		return core.ErrEmptyOwner
	}
	if len(summaries) == 0 {
		return nil
	}

	values, err := c.readAll(ctx)
	if err != nil {
		return err
	}
	plan := planWrites(values, ownerID, summaries, c.now())

	if len(plan.updates) > 0 {
		data := make([]*gsheet.ValueRange, 0, len(plan.updates))
		for _, u := range plan.updates {
			data = append(data, &gsheet.ValueRange{
				Range:  fmt.Sprintf("%s!A%d:F%d", c.sheetName, u.row, u.row),
				Values: [][]any{u.values},
			})
		}
		req := &gsheet.BatchUpdateValuesRequest{ValueInputOption: "RAW", Data: data}
		if _, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("update summary rows in %s: %w", c.sheetName, err)
		}
	}

	if len(plan.appends) > 0 {
		vr := &gsheet.ValueRange{Values: plan.appends}
		rng := fmt.Sprintf("%s!%s", c.sheetName, columns)
		if _, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
			ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do(); err != nil {
			return fmt.Errorf("append summary rows to %s: %w", c.sheetName, err)
		}
	}

	slog.DebugContext(ctx, "Summaries exported",
		"component", "sheets",
		"owner_id", ownerID,
		"updated", len(plan.updates),
		"appended", len(plan.appends))
	return nil
}

// ReadMonthSummaries returns the owner's exported rows, newest month first.
func (c *Client) ReadMonthSummaries(ctx context.Context, ownerID string) ([]core.MonthSummary, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	values, err := c.readAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []core.MonthSummary
	for _, r := range parseRows(values) {
		if r.owner == ownerID {
			out = append(out, r.summary)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MonthKey > out[j].MonthKey })
	return out, nil
}

func (c *Client) readAll(ctx context.Context) ([][]any, error) {
	rng := fmt.Sprintf("%s!%s", c.sheetName, columns)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}
