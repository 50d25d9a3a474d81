// internal/stock/filters/filters.go
package filters

import "strings"

// ApprovedForSale is the tri-state "approved for sale" facet.
type ApprovedForSale string

const (
	ApprovedUnset   ApprovedForSale = ""
	ApprovedTrue    ApprovedForSale = "true"
	ApprovedFalse   ApprovedForSale = "false"
	ApprovedUnknown ApprovedForSale = "unknown"
)

// IsSet reports whether the facet constrains the listing.
func (a ApprovedForSale) IsSet() bool {
	return a == ApprovedTrue || a == ApprovedFalse
}

// StatusGroup partitions the stock into the active and archive data sets.
type StatusGroup string

const (
	GroupActive  StatusGroup = "Active"
	GroupArchive StatusGroup = "Archive"
)

// GroupFromTab maps a tab name to its status group: "archive" selects the
// archive, anything else the active stock.
func GroupFromTab(tab string) StatusGroup {
	if strings.EqualFold(tab, "archive") {
		return GroupArchive
	}
	return GroupActive
}

// Valid reports whether g is one of the two known groups.
func (g StatusGroup) Valid() bool {
	return g == GroupActive || g == GroupArchive
}

// Key is the lowercase form used in storage keys.
func (g StatusGroup) Key() string {
	return strings.ToLower(string(g))
}

// Filters is the flat set of facet values for one status group. After
// Normalize every list is non-nil; nil bounds mean "no constraint".
type Filters struct {
	Status         IDList `json:"status"`
	VehicleType    IDList `json:"vehicleType"`
	VehicleKind    IDList `json:"vehicleKind"`
	VehicleSubKind IDList `json:"vehicleSubKind"`
	Brand          IDList `json:"brand"`
	Model          IDList `json:"model"`
	Equipment      IDList `json:"equipment"`
	Liquidity      IDList `json:"liquidity"`

	YearMin          *int    `json:"yearMin"`
	YearMax          *int    `json:"yearMax"`
	PowerHPMin       *int    `json:"powerHPMin"`
	PowerHPMax       *int    `json:"powerHPMax"`
	PowerKWMin       *int    `json:"powerKWMin"`
	PowerKWMax       *int    `json:"powerKWMax"`
	DateOfSeizureMin *string `json:"dateOfSeizureMin"`
	DateOfSeizureMax *string `json:"dateOfSeizureMax"`
	MileageMin       *int    `json:"mileageMin"`
	MileageMax       *int    `json:"mileageMax"`
	EngineHoursMin   *int    `json:"engineHoursMin"`
	EngineHoursMax   *int    `json:"engineHoursMax"`

	EngineType       IDList `json:"engineType"`
	WheelFormula     IDList `json:"wheelFormula"`
	TransmissionType IDList `json:"transmissionType"`
	DriveUnit        IDList `json:"driveUnit"`
	Responsible      IDList `json:"responsible"`
	Lessor           IDList `json:"lessor"`
	Lessee           IDList `json:"lessee"`
	KeysCount        IDList `json:"keysCount"`
	FuelType         IDList `json:"fuelType"`

	Region          *string         `json:"region"`
	Address         *string         `json:"address"`
	ApprovedForSale ApprovedForSale `json:"approved_for_sale,omitempty"`
}

// Empty returns filters with every list allocated and nothing selected.
func Empty() Filters {
	var f Filters
	f.Normalize()
	return f
}

func (f *Filters) lists() []*IDList {
	return []*IDList{
		&f.Status, &f.VehicleType, &f.VehicleKind, &f.VehicleSubKind,
		&f.Brand, &f.Model, &f.Equipment, &f.Liquidity,
		&f.EngineType, &f.WheelFormula, &f.TransmissionType, &f.DriveUnit,
		&f.Responsible, &f.Lessor, &f.Lessee, &f.KeysCount, &f.FuelType,
	}
}

func (f *Filters) bounds() []*int {
	return []*int{
		f.YearMin, f.YearMax, f.PowerHPMin, f.PowerHPMax, f.PowerKWMin, f.PowerKWMax,
		f.MileageMin, f.MileageMax, f.EngineHoursMin, f.EngineHoursMax,
	}
}

// Normalize replaces nil lists with empty ones and blank strings with nil.
func (f *Filters) Normalize() {
	for _, l := range f.lists() {
		if *l == nil {
			*l = IDList{}
		}
	}
	f.DateOfSeizureMin = blankToNil(f.DateOfSeizureMin)
	f.DateOfSeizureMax = blankToNil(f.DateOfSeizureMax)
	f.Region = blankToNil(f.Region)
	f.Address = blankToNil(f.Address)
}

// Clone returns a deep copy.
func (f Filters) Clone() Filters {
	out := f
	src := f.lists()
	for i, l := range out.lists() {
		if *src[i] != nil {
			*l = append(IDList{}, (*src[i])...)
		}
	}
	out.YearMin, out.YearMax = cloneInt(f.YearMin), cloneInt(f.YearMax)
	out.PowerHPMin, out.PowerHPMax = cloneInt(f.PowerHPMin), cloneInt(f.PowerHPMax)
	out.PowerKWMin, out.PowerKWMax = cloneInt(f.PowerKWMin), cloneInt(f.PowerKWMax)
	out.MileageMin, out.MileageMax = cloneInt(f.MileageMin), cloneInt(f.MileageMax)
	out.EngineHoursMin, out.EngineHoursMax = cloneInt(f.EngineHoursMin), cloneInt(f.EngineHoursMax)
	out.DateOfSeizureMin, out.DateOfSeizureMax = cloneString(f.DateOfSeizureMin), cloneString(f.DateOfSeizureMax)
	out.Region, out.Address = cloneString(f.Region), cloneString(f.Address)
	return out
}

// ActiveCount counts selected list entries plus every set bound and
// singleton.
func (f Filters) ActiveCount() int {
	n := 0
	for _, l := range f.lists() {
		n += len(*l)
	}
	for _, b := range f.bounds() {
		if b != nil {
			n++
		}
	}
	for _, s := range []*string{f.DateOfSeizureMin, f.DateOfSeizureMax, f.Region, f.Address} {
		if s != nil && *s != "" {
			n++
		}
	}
	if f.ApprovedForSale.IsSet() {
		n++
	}
	return n
}

// AdditionalCount counts the "additional filters" panel: its lists plus
// region and address.
func (f Filters) AdditionalCount() int {
	n := len(f.EngineType) + len(f.WheelFormula) + len(f.TransmissionType) +
		len(f.DriveUnit) + len(f.Responsible) + len(f.Lessor) + len(f.Lessee) +
		len(f.KeysCount) + len(f.FuelType)
	if f.Region != nil && *f.Region != "" {
		n++
	}
	if f.Address != nil && *f.Address != "" {
		n++
	}
	return n
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Int returns a pointer to v, for building bounds.
func Int(v int) *int { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }
