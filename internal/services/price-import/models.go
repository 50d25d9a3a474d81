// internal/services/price-import/models.go
package priceimport

import (
	stockhttp "stock-backoffice/internal/common/http"
	"stock-backoffice/internal/common/logger"
)

type ServiceDependencies struct {
	Client    *stockhttp.Client
	Validator stockhttp.Validator
	Logger    logger.Logger
}

// emptyResponseMessage is reported when the backend answers without a body.
const emptyResponseMessage = "Пустой ответ от сервера"
