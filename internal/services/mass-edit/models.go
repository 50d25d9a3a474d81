// internal/services/mass-edit/models.go
package massedit

import (
	stockhttp "stock-backoffice/internal/common/http"
	"stock-backoffice/internal/common/logger"
)

type ServiceDependencies struct {
	Client    *stockhttp.Client
	Validator stockhttp.Validator
	Logger    logger.Logger
}
