// internal/services/stock-export/service.go
package stockexport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "stock-backoffice/internal/common/errors"
	stockhttp "stock-backoffice/internal/common/http"
	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/models"
	propertylisting "stock-backoffice/internal/services/property-listing"
)

const (
	ServiceName = "stock-export"

	filenamePrefix = "Выгрузка стока РМ ОРИИ"
)

var (
	ErrExportEmpty = errors.New("EXPORT_EMPTY")
)

// Service downloads the server-side spreadsheet export and writes local
// workbooks of listing pages.
type Service struct {
	config *Config
	client *stockhttp.Client
	logger logger.Logger
	now    func() time.Time
}

func NewService(config *Config, deps ServiceDependencies) *Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		config: config,
		client: deps.Client,
		logger: deps.Logger.WithFields(map[string]interface{}{"service": ServiceName}),
		now:    now,
	}
}

// Filename names an export made at t: dd_MM_yy_HH_mm.
func Filename(t time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", filenamePrefix, t.Format("02_01_06_15_04"))
}

// Export asks the backend for the workbook of q. The response must open as
// a workbook.
func (s *Service) Export(ctx context.Context, q propertylisting.Query) (*Workbook, error) {
	if q.PerPage <= 0 {
		q.PerPage = s.config.PerPage
	}
	if q.Page <= 0 {
		q.Page = 1
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	resp, err := s.client.Do(ctx, stockhttp.Request{
		Method:   "POST",
		Endpoint: s.config.Endpoint,
		Params:   url.Values{"status_group": {string(q.Group)}},
		Body:     propertylisting.BuildRequest(q, s.config.MaxBrands),
		Binary:   true,
	})
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.Body) == 0 {
		return nil, fmt.Errorf("%w: no data received", ErrExportEmpty)
	}

	sheets, rows, err := inspect(resp.Body)
	if err != nil {
		return nil, apperrors.NewExportFailedError(err.Error())
	}

	s.logger.Info("export received", map[string]interface{}{
		"group":  string(q.Group),
		"bytes":  len(resp.Body),
		"sheets": len(sheets),
		"rows":   rows,
	})

	return &Workbook{
		Filename: Filename(s.now()),
		Data:     resp.Body,
		Sheets:   sheets,
		Rows:     rows,
	}, nil
}

// WriteLocal builds a workbook of items with one column per visible header.
func (s *Service) WriteLocal(items []models.Item, headers []models.Header) (*Workbook, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := s.config.SheetName
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, apperrors.NewExportFailedError(err.Error())
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, apperrors.NewExportFailedError(err.Error())
	}

	columns := make([]models.Header, 0, len(headers))
	for _, h := range headers {
		if h.Visible {
			columns = append(columns, h)
		}
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	for i, h := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h.Text)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for rowIdx, item := range items {
		for colIdx, h := range columns {
			text := item.Text(h.Value)
			if text == "" {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheet, cell, text)
		}
	}

	for i := range columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, 20)
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, apperrors.NewExportFailedError(err.Error())
	}

	return &Workbook{
		Filename: Filename(s.now()),
		Data:     buffer.Bytes(),
		Sheets:   []string{sheet},
		Rows:     len(items),
		Local:    true,
	}, nil
}

// Save writes wb into the configured directory and returns its path.
func (s *Service) Save(wb *Workbook) (string, error) {
	if err := os.MkdirAll(s.config.Dir, 0o755); err != nil {
		return "", apperrors.NewExportFailedError(err.Error())
	}
	path := filepath.Join(s.config.Dir, wb.Filename)
	if err := os.WriteFile(path, wb.Data, 0o644); err != nil {
		return "", apperrors.NewExportFailedError(err.Error())
	}
	s.logger.Info("export saved", map[string]interface{}{"path": path, "local": wb.Local})
	return path, nil
}

// inspect opens data as a workbook and counts the data rows of its first
// sheet.
func inspect(data []byte) ([]string, int, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, 0, fmt.Errorf("no sheets found in Excel file")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	n := len(rows) - 1
	if n < 0 {
		n = 0
	}
	return sheets, n, nil
}
