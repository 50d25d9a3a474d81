// internal/stock/filters/server.go
package filters

import "strings"

// keysCountTokens maps the keys-count option labels to backend tokens.
var keysCountTokens = map[string]string{
	"Не применимо": "NONE",
	"1 ключ":       "ONE",
	"2 ключа":      "TWO",
}

// ServerFilter is the backend filter payload of the listing and export
// endpoints.
type ServerFilter struct {
	Query       *string  `json:"query"`
	Statuses    []string `json:"statuses"`
	Types       []string `json:"types"`
	Subtypes1   []string `json:"subtypes1"`
	Subtypes2   []string `json:"subtypes2"`
	Brands      []string `json:"brands"`
	Models      []string `json:"models"`
	Equipments  []string `json:"equipments"`
	Liquidities []string `json:"liquidities"`

	YearMin          *int    `json:"year_min"`
	YearMax          *int    `json:"year_max"`
	EnginePowerHPMin *int    `json:"engine_power_hp_min"`
	EnginePowerHPMax *int    `json:"engine_power_hp_max"`
	EnginePowerKWMin *int    `json:"engine_power_kw_min"`
	EnginePowerKWMax *int    `json:"engine_power_kw_max"`
	DateOfSeizureMin *string `json:"date_of_seizure_min"`
	DateOfSeizureMax *string `json:"date_of_seizure_max"`
	MileageMin       *int    `json:"mileage_min"`
	MileageMax       *int    `json:"mileage_max"`
	EngineHoursMin   *int    `json:"engine_hours_min"`
	EngineHoursMax   *int    `json:"engine_hours_max"`

	FuelTypes         []string `json:"fuel_types"`
	TransmissionTypes []string `json:"transmission_types"`
	WheelFormulas     []string `json:"wheel_formulas"`
	Lessors           []string `json:"lessors"`
	Lessees           []string `json:"lessees"`
	DriveUnits        []string `json:"drive_units"`
	KeysCounts        []string `json:"keys_counts"`
	ResponsibleUsers  []string `json:"responsible_users"`

	Region          *string     `json:"region"`
	Address         *string     `json:"address"`
	StatusGroup     StatusGroup `json:"status_group"`
	ApprovedForSale *string     `json:"approved_for_sale,omitempty"`
}

// CreateServerFilters derives the backend payload from f. It is pure: f is
// not modified and equal inputs give equal outputs.
func CreateServerFilters(f Filters, searchText string, group StatusGroup) ServerFilter {
	out := ServerFilter{
		Query:       nonBlank(searchText),
		Statuses:    f.Status.Strings(),
		Types:       f.VehicleType.Strings(),
		Subtypes1:   f.VehicleKind.Strings(),
		Subtypes2:   f.VehicleSubKind.Strings(),
		Brands:      f.Brand.Strings(),
		Models:      f.Model.Strings(),
		Equipments:  f.Equipment.Strings(),
		Liquidities: f.Liquidity.Strings(),

		YearMin:          nonZero(f.YearMin),
		YearMax:          nonZero(f.YearMax),
		EnginePowerHPMin: nonZero(f.PowerHPMin),
		EnginePowerHPMax: nonZero(f.PowerHPMax),
		EnginePowerKWMin: nonZero(f.PowerKWMin),
		EnginePowerKWMax: nonZero(f.PowerKWMax),
		DateOfSeizureMin: nonBlankPtr(f.DateOfSeizureMin),
		DateOfSeizureMax: nonBlankPtr(f.DateOfSeizureMax),
		MileageMin:       nonZero(f.MileageMin),
		MileageMax:       nonZero(f.MileageMax),
		EngineHoursMin:   nonZero(f.EngineHoursMin),
		EngineHoursMax:   nonZero(f.EngineHoursMax),

		FuelTypes:         f.FuelType.Strings(),
		TransmissionTypes: f.TransmissionType.Strings(),
		WheelFormulas:     f.WheelFormula.Strings(),
		Lessors:           f.Lessor.Strings(),
		Lessees:           f.Lessee.Strings(),
		DriveUnits:        f.DriveUnit.Strings(),
		KeysCounts:        mapKeysCounts(f.KeysCount),
		ResponsibleUsers:  f.Responsible.Strings(),

		Region:      nonBlankPtr(f.Region),
		Address:     nonBlankPtr(f.Address),
		StatusGroup: group,
	}

	if f.ApprovedForSale.IsSet() {
		v := string(f.ApprovedForSale)
		out.ApprovedForSale = &v
	}
	return out
}

// Normalize makes every list non-nil and caps the brand selection at
// maxBrands entries. It returns the normalized copy.
func (s ServerFilter) Normalize(maxBrands int) ServerFilter {
	for _, l := range []*[]string{
		&s.Statuses, &s.Types, &s.Subtypes1, &s.Subtypes2, &s.Brands, &s.Models,
		&s.Equipments, &s.Liquidities, &s.FuelTypes, &s.TransmissionTypes,
		&s.WheelFormulas, &s.Lessors, &s.Lessees, &s.DriveUnits, &s.KeysCounts,
		&s.ResponsibleUsers,
	} {
		if *l == nil {
			*l = []string{}
		}
	}
	if maxBrands > 0 && len(s.Brands) > maxBrands {
		s.Brands = append([]string{}, s.Brands[:maxBrands]...)
	}
	return s
}

func mapKeysCounts(labels IDList) []string {
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		if token, ok := keysCountTokens[label]; ok {
			out = append(out, token)
			continue
		}
		out = append(out, label)
	}
	return out
}

func nonBlank(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func nonBlankPtr(s *string) *string {
	if s == nil {
		return nil
	}
	return nonBlank(*s)
}

func nonZero(p *int) *int {
	if p == nil || *p == 0 {
		return nil
	}
	v := *p
	return &v
}
