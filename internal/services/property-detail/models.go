// internal/services/property-detail/models.go
package propertydetail

import (
	stockhttp "stock-backoffice/internal/common/http"
	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/common/storage"
	"stock-backoffice/internal/models"
)

// PropertyTypesKey is the storage key of the last opened card's types.
const PropertyTypesKey = "property-types"

type ServiceDependencies struct {
	Client *stockhttp.Client
	Store  *storage.Store
	Logger logger.Logger
}

type statusUpdate struct {
	Status string `json:"status"`
}

type reasonsEnvelope struct {
	Items []models.NameValue `json:"items"`
}

type classifiedSites struct {
	Classifides []models.ClassifiedSite `json:"classifides"`
}

type classifiedSave struct {
	Classifides []models.ClassifiedLink `json:"classifides"`
}

type leasingEnvelope struct {
	Items []models.LeasingAgreement `json:"items"`
}

type responsibleUpdate struct {
	Responsible []models.ResponsibleAssignment `json:"responsible"`
}
