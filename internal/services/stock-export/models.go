// internal/services/stock-export/models.go
package stockexport

import (
	"time"

	stockhttp "stock-backoffice/internal/common/http"
	"stock-backoffice/internal/common/logger"
)

// Workbook is an exported spreadsheet ready to be saved.
type Workbook struct {
	Filename string
	Data     []byte
	Sheets   []string
	Rows     int
	Local    bool
}

type ServiceDependencies struct {
	Client *stockhttp.Client
	Logger logger.Logger
	Now    func() time.Time
}
