// internal/stock/facets/additional.go
package facets

import (
	"context"
	"sync"

	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/common/observer"
	"stock-backoffice/internal/models"
	referencedata "stock-backoffice/internal/services/reference-data"
	"stock-backoffice/internal/stock/filters"
)

const (
	ListFuelTypes         List = "fuelTypes"
	ListWheelFormulas     List = "wheelFormulas"
	ListTransmissionTypes List = "transmissionTypes"
	ListDriveUnits        List = "driveUnits"
	ListResponsibles      List = "responsibles"
	ListLessors           List = "lessors"
	ListLessees           List = "lessees"
	ListKeysCount         List = "keysCount"
)

var additionalLists = []List{
	ListFuelTypes, ListWheelFormulas, ListTransmissionTypes, ListDriveUnits,
	ListResponsibles, ListLessors, ListLessees, ListKeysCount,
}

// AdditionalSource serves the lists of the additional filters panel.
type AdditionalSource interface {
	Equipment(ctx context.Context, list referencedata.EquipmentList) ([]models.ReferenceItem, error)
	Users(ctx context.Context) ([]models.User, error)
	Participants(ctx context.Context, role referencedata.ParticipantRole) []models.ReferenceItem
	KeysCount(ctx context.Context) ([]models.ReferenceItem, error)
}

type AdditionalSnapshot struct {
	Loading     map[List]bool
	Lists       map[List][]models.Option
	Selection   filters.Filters
	ActiveCount int
}

// Additional holds the additional filters panel: equipment lists,
// responsible users, lessors, lessees, keys count, region and address.
type Additional struct {
	source  AdditionalSource
	logger  logger.Logger
	subject *observer.Subject[AdditionalSnapshot]

	mu        sync.Mutex
	loading   map[List]bool
	lists     map[List][]models.Option
	selection filters.Filters
}

func NewAdditional(source AdditionalSource, log logger.Logger) *Additional {
	a := &Additional{
		source:    source,
		logger:    logger.ForComponent(log, "facets.additional"),
		subject:   observer.NewSubject[AdditionalSnapshot](),
		loading:   make(map[List]bool, len(additionalLists)),
		lists:     make(map[List][]models.Option, len(additionalLists)),
		selection: filters.Empty(),
	}
	for _, l := range additionalLists {
		a.lists[l] = []models.Option{}
	}
	return a
}

func (a *Additional) Subscribe(fn func(AdditionalSnapshot)) func() {
	return a.subject.Subscribe(fn)
}

func (a *Additional) Snapshot() AdditionalSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := AdditionalSnapshot{
		Loading:     make(map[List]bool, len(a.loading)),
		Lists:       make(map[List][]models.Option, len(a.lists)),
		Selection:   a.selection.Clone(),
		ActiveCount: a.selection.AdditionalCount(),
	}
	for k, v := range a.loading {
		snap.Loading[k] = v
	}
	for k, v := range a.lists {
		snap.Lists[k] = append([]models.Option{}, v...)
	}
	return snap
}

func (a *Additional) Options(list List) []models.Option {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.Option{}, a.lists[list]...)
}

// Load fetches every list one after another. A failed list is left empty
// and the rest still load.
func (a *Additional) Load(ctx context.Context) {
	equipment := map[List]referencedata.EquipmentList{
		ListFuelTypes:         referencedata.FuelTypes,
		ListWheelFormulas:     referencedata.WheelFormulas,
		ListTransmissionTypes: referencedata.TransmissionTypes,
		ListDriveUnits:        referencedata.DriveUnits,
	}
	for _, list := range []List{ListFuelTypes, ListWheelFormulas, ListTransmissionTypes, ListDriveUnits} {
		kind := equipment[list]
		a.load(list, func() ([]models.Option, error) {
			items, err := a.source.Equipment(ctx, kind)
			return models.Options(items), err
		})
	}

	a.load(ListResponsibles, func() ([]models.Option, error) {
		users, err := a.source.Users(ctx)
		if err != nil {
			return nil, err
		}
		opts := make([]models.Option, 0, len(users))
		for _, u := range users {
			opts = append(opts, models.Option{Text: u.DisplayName(), Value: u.UID})
		}
		return opts, nil
	})
	a.load(ListLessors, func() ([]models.Option, error) {
		return models.Options(a.source.Participants(ctx, referencedata.Lessor)), nil
	})
	a.load(ListLessees, func() ([]models.Option, error) {
		return models.Options(a.source.Participants(ctx, referencedata.Lessee)), nil
	})
	a.load(ListKeysCount, func() ([]models.Option, error) {
		items, err := a.source.KeysCount(ctx)
		return models.Options(items), err
	})
}

func (a *Additional) load(list List, fetch func() ([]models.Option, error)) {
	a.mu.Lock()
	if a.loading[list] {
		a.mu.Unlock()
		return
	}
	a.loading[list] = true
	a.mu.Unlock()

	opts, err := fetch()

	a.mu.Lock()
	a.loading[list] = false
	if err != nil || opts == nil {
		opts = []models.Option{}
	}
	a.lists[list] = opts
	a.mu.Unlock()

	if err != nil {
		a.logger.Error("failed to load additional filter list", map[string]interface{}{
			"list":  string(list),
			"error": err.Error(),
		})
	}
	a.subject.Notify(a.Snapshot())
}

// Sync adopts the additional fields of f.
func (a *Additional) Sync(f filters.Filters) {
	f = f.Clone()
	f.Normalize()

	a.mu.Lock()
	a.selection.EngineType = f.EngineType
	a.selection.WheelFormula = f.WheelFormula
	a.selection.TransmissionType = f.TransmissionType
	a.selection.DriveUnit = f.DriveUnit
	a.selection.Responsible = f.Responsible
	a.selection.Lessor = f.Lessor
	a.selection.Lessee = f.Lessee
	a.selection.KeysCount = f.KeysCount
	a.selection.FuelType = f.FuelType
	a.selection.Region = f.Region
	a.selection.Address = f.Address
	a.mu.Unlock()
	a.subject.Notify(a.Snapshot())
}

// ApplyTo writes the panel's fields into f.
func (a *Additional) ApplyTo(f *filters.Filters) {
	a.mu.Lock()
	sel := a.selection.Clone()
	a.mu.Unlock()

	f.EngineType = sel.EngineType
	f.WheelFormula = sel.WheelFormula
	f.TransmissionType = sel.TransmissionType
	f.DriveUnit = sel.DriveUnit
	f.Responsible = sel.Responsible
	f.Lessor = sel.Lessor
	f.Lessee = sel.Lessee
	f.KeysCount = sel.KeysCount
	f.FuelType = sel.FuelType
	f.Region = sel.Region
	f.Address = sel.Address
}

// Reset clears the panel's fields. Loaded lists are kept.
func (a *Additional) Reset() {
	a.mu.Lock()
	a.selection = filters.Empty()
	a.mu.Unlock()
	a.subject.Notify(a.Snapshot())
}

// ActiveCount counts the selected values of the panel.
func (a *Additional) ActiveCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.selection.AdditionalCount()
}
