// internal/services/permissions/models.go
package permissions

import (
	stockhttp "stock-backoffice/internal/common/http"
	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/common/storage"
	"stock-backoffice/internal/models"
)

// CacheKey is where the last fetched permissions are kept.
const CacheKey = "user-permissions"

type ServiceDependencies struct {
	Client    *stockhttp.Client
	Validator stockhttp.Validator
	Storage   *storage.Store
	Logger    logger.Logger
}

type cachedPermissions struct {
	UserID      string             `json:"userId"`
	Permissions models.Permissions `json:"permissions"`
}
