// internal/stock/facets/cascade.go
package facets

import (
	"context"
	"sync"

	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/common/observer"
	"stock-backoffice/internal/models"
	"stock-backoffice/internal/stock/filters"
)

// List names a candidate list held by the cascade store.
type List string

const (
	ListStatuses    List = "statuses"
	ListLiquidities List = "liquidities"
	ListTypes       List = "types"
	ListKinds       List = "kinds"
	ListSubKinds    List = "subKinds"
	ListBrands      List = "brands"
	ListModels      List = "models"
	ListEquipments  List = "equipments"
)

// facetLists maps a cascade facet to the list of its candidates.
var facetLists = map[filters.Facet]List{
	filters.FacetVehicleType:    ListTypes,
	filters.FacetVehicleKind:    ListKinds,
	filters.FacetVehicleSubKind: ListSubKinds,
	filters.FacetBrand:          ListBrands,
	filters.FacetModel:          ListModels,
	filters.FacetEquipment:      ListEquipments,
}

var allLists = []List{
	ListStatuses, ListLiquidities, ListTypes, ListKinds,
	ListSubKinds, ListBrands, ListModels, ListEquipments,
}

// ReferenceSource serves the cascade's reference lists.
type ReferenceSource interface {
	Types(ctx context.Context, parents []string) ([]models.ReferenceItem, error)
	Brands(ctx context.Context, types []string) ([]models.ReferenceItem, error)
	Models(ctx context.Context, brands []string) ([]models.ReferenceItem, error)
	Equipments(ctx context.Context, modelIDs []string) ([]models.ReferenceItem, error)
	Statuses(ctx context.Context, group string) ([]models.ReferenceItem, error)
	Liquidities(ctx context.Context) ([]models.ReferenceItem, error)
}

// CascadeSnapshot is the observable state of the cascade store.
type CascadeSnapshot struct {
	Group       filters.StatusGroup
	Initialized bool
	Loading     map[List]bool
	Lists       map[List][]models.Option
	Selected    map[filters.Facet][]string
}

// Cascade holds the vehicle type hierarchy, the brand/model/equipment
// cascade and the status and liquidity lists. Handlers never return
// errors: a failed load empties that level's list.
type Cascade struct {
	source  ReferenceSource
	logger  logger.Logger
	subject *observer.Subject[CascadeSnapshot]

	mu            sync.Mutex
	group         filters.StatusGroup
	initialized   bool
	loading       map[List]bool
	lists         map[List][]models.Option
	selected      map[filters.Facet][]string
	selectedTypes []string
}

func NewCascade(source ReferenceSource, log logger.Logger) *Cascade {
	c := &Cascade{
		source:  source,
		logger:  logger.ForComponent(log, "facets.cascade"),
		subject: observer.NewSubject[CascadeSnapshot](),
		group:   filters.GroupActive,
	}
	c.clear()
	return c
}

func (c *Cascade) clear() {
	c.initialized = false
	c.loading = make(map[List]bool, len(allLists))
	c.lists = make(map[List][]models.Option, len(allLists))
	for _, l := range allLists {
		c.lists[l] = []models.Option{}
	}
	c.selected = make(map[filters.Facet][]string, len(filters.CascadeOrder))
	c.selectedTypes = nil
}

// Subscribe registers fn for state changes.
func (c *Cascade) Subscribe(fn func(CascadeSnapshot)) func() {
	return c.subject.Subscribe(fn)
}

// Snapshot returns a copy of the current state.
func (c *Cascade) Snapshot() CascadeSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Cascade) snapshotLocked() CascadeSnapshot {
	snap := CascadeSnapshot{
		Group:       c.group,
		Initialized: c.initialized,
		Loading:     make(map[List]bool, len(c.loading)),
		Lists:       make(map[List][]models.Option, len(c.lists)),
		Selected:    make(map[filters.Facet][]string, len(c.selected)),
	}
	for k, v := range c.loading {
		snap.Loading[k] = v
	}
	for k, v := range c.lists {
		snap.Lists[k] = append([]models.Option{}, v...)
	}
	for k, v := range c.selected {
		snap.Selected[k] = append([]string{}, v...)
	}
	return snap
}

func (c *Cascade) publish() {
	c.subject.Notify(c.Snapshot())
}

// Options returns the candidates of list.
func (c *Cascade) Options(list List) []models.Option {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Option{}, c.lists[list]...)
}

func (c *Cascade) IsLoading(list List) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading[list]
}

func (c *Cascade) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

// Selected returns the current selection of a cascade facet.
func (c *Cascade) Selected(facet filters.Facet) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.selected[facet]...)
}

// ApplySelection copies the cascade selections into f.
func (c *Cascade) ApplySelection(f *filters.Filters) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, facet := range filters.CascadeOrder {
		if sel := f.Selection(facet); sel != nil {
			*sel = append(filters.IDList{}, c.selected[facet]...)
		}
	}
}

// begin marks list as loading. It reports false when a load of list is
// already running, or when skipPopulated is set and the list has entries.
func (c *Cascade) begin(list List, skipPopulated bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading[list] {
		return false
	}
	if skipPopulated && len(c.lists[list]) > 0 {
		return false
	}
	c.loading[list] = true
	return true
}

// finish stores the outcome of a load. A failed load empties the list.
func (c *Cascade) finish(list List, opts []models.Option, err error) {
	c.mu.Lock()
	c.loading[list] = false
	if err != nil {
		c.lists[list] = []models.Option{}
	} else {
		c.lists[list] = opts
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("failed to load candidates", map[string]interface{}{
			"list":  string(list),
			"error": err.Error(),
		})
	}
	c.publish()
}

// InitializeData loads statuses, liquidities and types once.
func (c *Cascade) InitializeData(ctx context.Context) {
	if c.Initialized() {
		return
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); c.LoadStatuses(ctx, "") }()
	go func() { defer wg.Done(); c.LoadLiquidities(ctx) }()
	go func() { defer wg.Done(); c.LoadTypes(ctx) }()
	wg.Wait()

	c.mu.Lock()
	c.initialized = true
	c.mu.Unlock()
	c.publish()
}

// Reset clears every list and selection, then runs the initial load again.
func (c *Cascade) Reset(ctx context.Context) {
	c.mu.Lock()
	group := c.group
	c.clear()
	c.group = group
	c.mu.Unlock()

	c.logger.Debug("cascade reset", nil)
	c.publish()
	c.InitializeData(ctx)
}

// LoadStatuses always refetches. A non-empty group switches the store to
// that status group first.
func (c *Cascade) LoadStatuses(ctx context.Context, group filters.StatusGroup) {
	c.mu.Lock()
	if group != "" {
		c.group = group
	}
	current := c.group
	c.loading[ListStatuses] = true
	c.mu.Unlock()

	items, err := c.source.Statuses(ctx, string(current))
	c.finish(ListStatuses, models.StatusOptions(items), err)
}

func (c *Cascade) LoadLiquidities(ctx context.Context) {
	if !c.begin(ListLiquidities, true) {
		return
	}
	items, err := c.source.Liquidities(ctx)
	c.finish(ListLiquidities, models.Options(items), err)
}

func (c *Cascade) LoadTypes(ctx context.Context) {
	if !c.begin(ListTypes, true) {
		return
	}
	items, err := c.source.Types(ctx, nil)
	c.finish(ListTypes, models.Options(items), err)
}

// clearDependents empties the selections and candidate lists of every
// facet below facet, then records ids as facet's selection.
func (c *Cascade) clearDependents(facet filters.Facet, ids []string) {
	c.mu.Lock()
	for _, dep := range filters.DependentsOf(facet) {
		c.selected[dep] = nil
		c.lists[facetLists[dep]] = []models.Option{}
	}
	if facet == filters.FacetVehicleType {
		c.selectedTypes = nil
	}
	c.selected[facet] = append([]string(nil), ids...)
	c.mu.Unlock()
	c.publish()
}

// brandParents is the nearest non-empty selection among sub-kind, kind and
// type.
func (c *Cascade) brandParents() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var f filters.Filters
	f.VehicleType = c.selected[filters.FacetVehicleType]
	f.VehicleKind = c.selected[filters.FacetVehicleKind]
	f.VehicleSubKind = c.selected[filters.FacetVehicleSubKind]
	return filters.BrandParents(f)
}

// Select routes a selection change to the handler of facet.
func (c *Cascade) Select(ctx context.Context, facet filters.Facet, ids []string) {
	switch facet {
	case filters.FacetVehicleType:
		c.HandleTypeChange(ctx, ids)
	case filters.FacetVehicleKind:
		c.HandleKindChange(ctx, ids)
	case filters.FacetVehicleSubKind:
		c.HandleSubKindChange(ctx, ids)
	case filters.FacetBrand:
		c.HandleBrandChange(ctx, ids)
	case filters.FacetModel:
		c.HandleModelChange(ctx, ids)
	case filters.FacetEquipment:
		c.mu.Lock()
		c.selected[filters.FacetEquipment] = append([]string(nil), ids...)
		c.mu.Unlock()
		c.publish()
	}
}

// HandleTypeChange loads the kinds of the selected types and the brands
// available for them.
func (c *Cascade) HandleTypeChange(ctx context.Context, typeIDs []string) {
	if c.IsLoading(ListKinds) {
		return
	}
	c.clearDependents(filters.FacetVehicleType, typeIDs)
	if len(typeIDs) == 0 {
		return
	}
	if !c.begin(ListKinds, false) {
		return
	}

	items, err := c.source.Types(ctx, typeIDs)
	c.finish(ListKinds, models.Options(items), err)
	if err != nil {
		return
	}

	c.mu.Lock()
	c.selectedTypes = append([]string(nil), typeIDs...)
	c.mu.Unlock()
	c.LoadBrands(ctx, typeIDs)
}

// HandleKindChange loads the sub-kinds of the selected kinds. Clearing the
// kinds falls back to the brands of the selected types.
func (c *Cascade) HandleKindChange(ctx context.Context, kindIDs []string) {
	if c.IsLoading(ListSubKinds) {
		return
	}
	c.clearDependents(filters.FacetVehicleKind, kindIDs)
	if len(kindIDs) == 0 {
		c.LoadBrands(ctx, c.brandParents())
		return
	}
	if !c.begin(ListSubKinds, false) {
		return
	}

	items, err := c.source.Types(ctx, kindIDs)
	c.finish(ListSubKinds, models.Options(items), err)
	if err != nil {
		return
	}

	c.mu.Lock()
	c.selectedTypes = append([]string(nil), kindIDs...)
	c.mu.Unlock()
	c.LoadBrands(ctx, kindIDs)
}

// HandleSubKindChange reloads the brands for the nearest selected level.
func (c *Cascade) HandleSubKindChange(ctx context.Context, subKindIDs []string) {
	c.clearDependents(filters.FacetVehicleSubKind, subKindIDs)

	parents := c.brandParents()
	c.mu.Lock()
	c.selectedTypes = append([]string(nil), parents...)
	c.mu.Unlock()
	c.LoadBrands(ctx, parents)
}

// LoadBrands loads the brands of typeIDs, or of the last selected types
// when typeIDs is empty. Calls made while brands are loading are dropped.
func (c *Cascade) LoadBrands(ctx context.Context, typeIDs []string) {
	if len(typeIDs) == 0 {
		c.mu.Lock()
		typeIDs = append([]string(nil), c.selectedTypes...)
		c.mu.Unlock()
	}
	if !c.begin(ListBrands, false) {
		return
	}
	if len(typeIDs) == 0 {
		c.finish(ListBrands, []models.Option{}, nil)
		return
	}

	items, err := c.source.Brands(ctx, typeIDs)
	c.finish(ListBrands, models.Options(items), err)
}

// HandleBrandChange loads the models of the selected brands.
func (c *Cascade) HandleBrandChange(ctx context.Context, brandIDs []string) {
	if c.IsLoading(ListModels) {
		return
	}
	c.clearDependents(filters.FacetBrand, brandIDs)
	c.loadModels(ctx, brandIDs)
}

func (c *Cascade) loadModels(ctx context.Context, brandIDs []string) {
	if len(brandIDs) == 0 || !c.begin(ListModels, false) {
		return
	}
	items, err := c.source.Models(ctx, brandIDs)
	c.finish(ListModels, models.Options(items), err)
}

// HandleModelChange loads the equipments of the selected models.
func (c *Cascade) HandleModelChange(ctx context.Context, modelIDs []string) {
	if c.IsLoading(ListEquipments) {
		return
	}
	c.clearDependents(filters.FacetModel, modelIDs)
	c.loadEquipments(ctx, modelIDs)
}

func (c *Cascade) loadEquipments(ctx context.Context, modelIDs []string) {
	if len(modelIDs) == 0 || !c.begin(ListEquipments, false) {
		return
	}
	items, err := c.source.Equipments(ctx, modelIDs)
	c.finish(ListEquipments, models.Options(items), err)
}

// InitializeFromFilters restores the candidate lists for a saved filter set
// top-down and then adopts its cascade selections.
func (c *Cascade) InitializeFromFilters(ctx context.Context, f filters.Filters) {
	c.InitializeData(ctx)

	if len(f.VehicleType) > 0 {
		c.HandleTypeChange(ctx, f.VehicleType.Strings())
	}
	if len(f.VehicleKind) > 0 {
		c.HandleKindChange(ctx, f.VehicleKind.Strings())
	}
	if len(f.VehicleSubKind) > 0 {
		c.mu.Lock()
		c.selectedTypes = f.VehicleSubKind.Strings()
		c.mu.Unlock()
		c.LoadBrands(ctx, f.VehicleSubKind.Strings())
	}
	if len(f.Brand) > 0 {
		c.loadModels(ctx, f.Brand.Strings())
	}
	if len(f.Model) > 0 {
		c.loadEquipments(ctx, f.Model.Strings())
	}

	c.mu.Lock()
	for _, facet := range filters.CascadeOrder {
		if sel := f.Selection(facet); sel != nil {
			c.selected[facet] = sel.Strings()
		}
	}
	c.mu.Unlock()
	c.publish()
}
