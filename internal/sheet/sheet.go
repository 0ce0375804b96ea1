package sheet

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/konkon034034/jinsei-soudan/internal/config"
)

// Workflow statuses, written to the Status column. Approval moves a
// row from APPROVAL_PENDING_SCRIPT to APPROVED_SCRIPT via Slack.
const (
	StatusPending               = "PENDING"
	StatusProcessing            = "PROCESSING"
	StatusApprovalPendingScript = "APPROVAL_PENDING_SCRIPT"
	StatusApprovedScript        = "APPROVED_SCRIPT"
	StatusReviseScript          = "REVISE_SCRIPT"
	StatusRejected              = "REJECTED"
	StatusCompleted             = "COMPLETED"
	StatusError                 = "ERROR"
)

// Column indices (0-based) of the A–Q workflow sheet.
const (
	ColCompleted      = 0  // A: done checkbox
	ColDatetime       = 1  // B: timestamp (JST)
	ColSourceSummary  = 2  // C: collected consultation text
	ColPromptMemo     = 3  // D: extra script instructions
	ColCharCount      = 4  // E: script character count
	ColScript         = 5  // F: script body
	ColVideoURL       = 6  // G: rendered video Drive URL
	ColDescPrompt     = 7  // H: description prompt
	ColMetadata       = 8  // I: title/description payload
	ColComment        = 9  // J: first comment
	ColSearch         = 10 // K: SEO keywords
	ColSourceVideoID  = 11 // L: source dedupe ID
	ColSourceVideoURL = 12 // M: source URL
	ColConsulterInfo  = 13 // N: consulter profile (e.g. 68歳女性)
	ColStatus         = 14 // O: workflow status
	ColTriggerKeyword = 15 // P: hook keyword
	ColFuncTag        = 16 // Q: variant tag
)

const columnCount = 17

// cellCap is the spreadsheet's hard cell limit.
const cellCap = 50000

var jst = time.FixedZone("JST", 9*60*60)

// Row is one workflow row with its 1-based sheet row number.
type Row struct {
	Num            int
	SourceSummary  string
	PromptMemo     string
	Script         string
	VideoURL       string
	Metadata       string
	Comment        string
	ConsulterInfo  string
	Status         string
	TriggerKeyword string
	FuncTag        string
}

// Store reads and writes the per-channel workflow sheet.
type Store struct {
	cfg           *config.Config
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
}

// New connects to the spreadsheet named by the channel config using
// the shared service-account credential.
func New(ctx context.Context, cfg *config.Config, ch config.ChannelConfig) (*Store, error) {
	creds := os.Getenv(cfg.Drive.CredentialsEnv)
	if creds == "" {
		return nil, fmt.Errorf("%s not set", cfg.Drive.CredentialsEnv)
	}
	spreadsheetID := os.Getenv(cfg.Sheet.SpreadsheetIDEnv)
	if spreadsheetID == "" {
		return nil, fmt.Errorf("%s not set", cfg.Sheet.SpreadsheetIDEnv)
	}

	svc, err := sheets.NewService(ctx, option.WithCredentialsJSON([]byte(creds)))
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Store{
		cfg:           cfg,
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     ch.SheetName,
	}, nil
}

// FindPendingRows returns the 1-based row numbers ready for a run:
// rows with a source summary whose status is PENDING or blank, plus
// APPROVAL_PENDING_SCRIPT rows with no video yet (a failed render
// being retried) and APPROVED_SCRIPT rows awaiting production.
func (s *Store) FindPendingRows(ctx context.Context) ([]int, error) {
	values, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	var pending []int
	for i, row := range values {
		num := i + 1
		if num <= s.cfg.Sheet.HeaderRows {
			continue
		}
		if isPending(row) {
			pending = append(pending, num)
		}
	}
	log.Printf("[sheet] %d pending row(s)", len(pending))
	return pending, nil
}

// isPending decides whether one raw row is runnable.
func isPending(row []string) bool {
	if cell(row, ColSourceSummary) == "" {
		return false
	}
	switch strings.ToUpper(cell(row, ColStatus)) {
	case StatusPending, "":
		return true
	case StatusApprovalPendingScript, StatusApprovedScript:
		return cell(row, ColVideoURL) == ""
	}
	return false
}

// GetRow reads one row by its 1-based number.
func (s *Store) GetRow(ctx context.Context, num int) (*Row, error) {
	rng := fmt.Sprintf("%s!A%d:Q%d", s.sheetName, num, num)
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read row %d: %w", num, err)
	}
	var raw []string
	if len(resp.Values) > 0 {
		for _, v := range resp.Values[0] {
			raw = append(raw, fmt.Sprintf("%v", v))
		}
	}
	return &Row{
		Num:            num,
		SourceSummary:  cell(raw, ColSourceSummary),
		PromptMemo:     cell(raw, ColPromptMemo),
		Script:         cell(raw, ColScript),
		VideoURL:       cell(raw, ColVideoURL),
		Metadata:       cell(raw, ColMetadata),
		Comment:        cell(raw, ColComment),
		ConsulterInfo:  cell(raw, ColConsulterInfo),
		Status:         cell(raw, ColStatus),
		TriggerKeyword: cell(raw, ColTriggerKeyword),
		FuncTag:        cell(raw, ColFuncTag),
	}, nil
}

// UpdateCell writes one cell by 1-based row and 0-based column,
// truncating to the spreadsheet cell cap.
func (s *Store) UpdateCell(ctx context.Context, row, col int, value string) error {
	rng := fmt.Sprintf("%s!%s%d", s.sheetName, columnLetter(col), row)
	vr := &sheets.ValueRange{Values: [][]any{{truncateCell(value)}}}
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

// UpdateStatus sets the Status column and stamps the JST datetime.
func (s *Store) UpdateStatus(ctx context.Context, row int, status string) error {
	if err := s.UpdateCell(ctx, row, ColStatus, status); err != nil {
		return err
	}
	log.Printf("[sheet] Row %d → %s", row, status)
	return s.UpdateCell(ctx, row, ColDatetime, time.Now().In(jst).Format("2006/01/02 15:04:05"))
}

// MarkError records a run failure on the row so the operator sees the
// message next to the source data.
func (s *Store) MarkError(ctx context.Context, row int, runErr error) {
	if err := s.UpdateCell(ctx, row, ColStatus, StatusError); err != nil {
		log.Printf("[sheet] ⚠️  Could not mark row %d as ERROR: %v", row, err)
		return
	}
	msg := fmt.Sprintf("ERROR: %v", runErr)
	if err := s.UpdateCell(ctx, row, ColFuncTag, msg); err != nil {
		log.Printf("[sheet] ⚠️  Could not record error text on row %d: %v", row, err)
	}
}

func (s *Store) readAll(ctx context.Context) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.sheetName+"!A:Q").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", s.sheetName, err)
	}
	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, 0, len(row))
		for _, v := range row {
			cells = append(cells, fmt.Sprintf("%v", v))
		}
		rows[i] = cells
	}
	return rows, nil
}

// cell reads a column from a possibly short row.
func cell(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// truncateCell enforces the 50000-character spreadsheet cell limit.
func truncateCell(v string) string {
	r := []rune(v)
	if len(r) <= cellCap {
		return v
	}
	return string(r[:cellCap-15]) + "...(truncated)"
}

// columnLetter converts a 0-based column index to A1 notation.
func columnLetter(col int) string {
	letters := ""
	for col >= 0 {
		letters = string(rune('A'+col%26)) + letters
		col = col/26 - 1
	}
	return letters
}
