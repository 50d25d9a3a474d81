// internal/services/activity-feed/models.go
package activityfeed

import (
	stockhttp "stock-backoffice/internal/common/http"
	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/models"
)

// Query selects one feed page. An empty EventType means every type.
type Query struct {
	EventType models.FeedEventType
	Page      int
	PerPage   int
}

type ServiceDependencies struct {
	Client    *stockhttp.Client
	Validator stockhttp.Validator
	Logger    logger.Logger
}
