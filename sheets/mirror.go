package sheets

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/sheets/v4"

	"leadflow/classify"
)

// Intake-tab columns the mirror owns. The remaining columns belong to the
// operators.
const (
	statusColumn     = "L"
	trackColumn      = "M"
	confidenceColumn = "N"

	processedMarker = "PROCESSED"
)

// valuesUpdater is the slice of the Sheets API the mirror needs; a fake
// stands in during tests.
type valuesUpdater interface {
	BatchUpdate(ctx context.Context, spreadsheetID string, req *sheets.BatchUpdateValuesRequest) error
}

type apiUpdater struct {
	svc *sheets.Service
}

func (u *apiUpdater) BatchUpdate(ctx context.Context, spreadsheetID string, req *sheets.BatchUpdateValuesRequest) error {
	_, err := u.svc.Spreadsheets.Values.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
	return err
}

// Mirror pushes lead state into fixed workbook cells. It is eventually
// consistent with the lead repository; a sync failure leaves stale cells
// until the next update.
type Mirror struct {
	updater       valuesUpdater
	spreadsheetID string
	tab           string
	logger        *zap.Logger
}

// NewMirror wraps a Sheets service for one spreadsheet. tab may be empty,
// addressing the first sheet.
func NewMirror(svc *sheets.Service, spreadsheetID, tab string, logger *zap.Logger) *Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mirror{
		updater:       &apiUpdater{svc: svc},
		spreadsheetID: spreadsheetID,
		tab:           tab,
		logger:        logger,
	}
}

// MirrorClassification writes the post-classification cells for one sheet
// row: status PROCESSED, the track in upper case, and the confidence as a
// rounded percentage. Errors are logged and swallowed.
func (m *Mirror) MirrorClassification(ctx context.Context, row int, result classify.Result) {
	if m == nil || row <= 0 {
		return
	}

	req := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data: []*sheets.ValueRange{
			{
				Range:  m.cell(statusColumn, row),
				Values: [][]any{{processedMarker}},
			},
			{
				Range:  m.cell(trackColumn, row),
				Values: [][]any{{strings.ToUpper(string(result.Track))}},
			},
			{
				Range:  m.cell(confidenceColumn, row),
				Values: [][]any{{formatConfidence(result.Confidence)}},
			},
		},
	}

	if err := m.updater.BatchUpdate(ctx, m.spreadsheetID, req); err != nil {
		m.logger.Warn("sheet mirror update failed",
			zap.Int("row", row),
			zap.Error(err))
		return
	}

	m.logger.Info("sheet row mirrored",
		zap.Int("row", row),
		zap.String("track", string(result.Track)))
}

func (m *Mirror) cell(column string, row int) string {
	ref := fmt.Sprintf("%s%d", column, row)
	if m.tab == "" {
		return ref
	}
	return m.tab + "!" + ref
}

func formatConfidence(confidence float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(confidence*100)))
}
