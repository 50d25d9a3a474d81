// internal/stock/filters/deps.go
package filters

// Facet names a cascading filter level.
type Facet string

const (
	FacetVehicleType    Facet = "vehicleType"
	FacetVehicleKind    Facet = "vehicleKind"
	FacetVehicleSubKind Facet = "vehicleSubKind"
	FacetBrand          Facet = "brand"
	FacetModel          Facet = "model"
	FacetEquipment      Facet = "equipment"
)

// CascadeOrder lists the cascade from the root down.
var CascadeOrder = []Facet{
	FacetVehicleType, FacetVehicleKind, FacetVehicleSubKind,
	FacetBrand, FacetModel, FacetEquipment,
}

// Dependencies is the cascade graph: changing a facet invalidates every
// facet listed for it.
var Dependencies = map[Facet][]Facet{
	FacetVehicleType:    {FacetVehicleKind, FacetVehicleSubKind, FacetBrand, FacetModel, FacetEquipment},
	FacetVehicleKind:    {FacetVehicleSubKind, FacetBrand, FacetModel, FacetEquipment},
	FacetVehicleSubKind: {FacetBrand, FacetModel, FacetEquipment},
	FacetBrand:          {FacetModel, FacetEquipment},
	FacetModel:          {FacetEquipment},
}

// DependentsOf returns the facets invalidated by a change of facet.
func DependentsOf(facet Facet) []Facet {
	return append([]Facet(nil), Dependencies[facet]...)
}

// Selection returns the list of f holding facet.
func (f *Filters) Selection(facet Facet) *IDList {
	switch facet {
	case FacetVehicleType:
		return &f.VehicleType
	case FacetVehicleKind:
		return &f.VehicleKind
	case FacetVehicleSubKind:
		return &f.VehicleSubKind
	case FacetBrand:
		return &f.Brand
	case FacetModel:
		return &f.Model
	case FacetEquipment:
		return &f.Equipment
	}
	return nil
}

// ClearDependents empties every selection that depends on facet.
func ClearDependents(facet Facet, f *Filters) {
	for _, dep := range Dependencies[facet] {
		if sel := f.Selection(dep); sel != nil {
			*sel = IDList{}
		}
	}
}

// BrandParents is the nearest non-empty selection among sub-kind, kind and
// type, which scopes the brand candidates.
func BrandParents(f Filters) []string {
	for _, sel := range []IDList{f.VehicleSubKind, f.VehicleKind, f.VehicleType} {
		if len(sel) > 0 {
			return sel.Strings()
		}
	}
	return nil
}
