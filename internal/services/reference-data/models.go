// internal/services/reference-data/models.go
package referencedata

import (
	stockhttp "stock-backoffice/internal/common/http"
	"stock-backoffice/internal/common/logger"
)

// EquipmentList names a static equipment reference list.
type EquipmentList string

const (
	DriveUnits        EquipmentList = "drive-units"
	FuelTypes         EquipmentList = "fuel-types"
	TransmissionTypes EquipmentList = "transmission-types"
	WheelFormulas     EquipmentList = "wheel-formulas"
)

// ParticipantRole selects lessors or lessees.
type ParticipantRole string

const (
	Lessor ParticipantRole = "lessor"
	Lessee ParticipantRole = "lessee"
)

type ServiceDependencies struct {
	Client    *stockhttp.Client
	Validator stockhttp.Validator
	Logger    logger.Logger
}
