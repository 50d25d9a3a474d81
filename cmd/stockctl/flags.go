// cmd/stockctl/flags.go
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"stock-backoffice/internal/stock/filters"
)

// filterFlags are the listing filters settable from the command line.
// Only flags given explicitly change the saved filters.
type filterFlags struct {
	status      []string
	vehicleType []string
	brand       []string
	model       []string
	liquidity   []string
	responsible []string
	lessor      []string
	lessee      []string
	keysCount   []string

	yearMin, yearMax               string
	powerHPMin, powerHPMax         string
	powerKWMin, powerKWMax         string
	mileageMin, mileageMax         string
	engineHoursMin, engineHoursMax string
	seizedFrom, seizedTo           string

	region   string
	address  string
	approved string
}

var boundFlags = []struct {
	flag  string
	bound string
}{
	{"year-min", "year"}, {"year-max", "year"},
	{"power-hp-min", "powerHP"}, {"power-hp-max", "powerHP"},
	{"power-kw-min", "powerKW"}, {"power-kw-max", "powerKW"},
	{"mileage-min", "mileage"}, {"mileage-max", "mileage"},
	{"engine-hours-min", "engineHours"}, {"engine-hours-max", "engineHours"},
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringSliceVar(&f.status, "status", nil, "status ids")
	fs.StringSliceVar(&f.vehicleType, "type", nil, "vehicle type ids")
	fs.StringSliceVar(&f.brand, "brand", nil, "brand ids")
	fs.StringSliceVar(&f.model, "model", nil, "model ids")
	fs.StringSliceVar(&f.liquidity, "liquidity", nil, "liquidity ids")
	fs.StringSliceVar(&f.responsible, "responsible", nil, "responsible user ids")
	fs.StringSliceVar(&f.lessor, "lessor", nil, "lessor ids")
	fs.StringSliceVar(&f.lessee, "lessee", nil, "lessee ids")
	fs.StringSliceVar(&f.keysCount, "keys-count", nil, "keys count ids")

	fs.StringVar(&f.yearMin, "year-min", "", "minimum year of manufacture")
	fs.StringVar(&f.yearMax, "year-max", "", "maximum year of manufacture")
	fs.StringVar(&f.powerHPMin, "power-hp-min", "", "minimum power, hp")
	fs.StringVar(&f.powerHPMax, "power-hp-max", "", "maximum power, hp")
	fs.StringVar(&f.powerKWMin, "power-kw-min", "", "minimum power, kW")
	fs.StringVar(&f.powerKWMax, "power-kw-max", "", "maximum power, kW")
	fs.StringVar(&f.mileageMin, "mileage-min", "", "minimum mileage")
	fs.StringVar(&f.mileageMax, "mileage-max", "", "maximum mileage")
	fs.StringVar(&f.engineHoursMin, "engine-hours-min", "", "minimum engine hours")
	fs.StringVar(&f.engineHoursMax, "engine-hours-max", "", "maximum engine hours")
	fs.StringVar(&f.seizedFrom, "seized-from", "", "seized on or after, YYYY-MM-DD")
	fs.StringVar(&f.seizedTo, "seized-to", "", "seized on or before, YYYY-MM-DD")

	fs.StringVar(&f.region, "region", "", "region")
	fs.StringVar(&f.address, "address", "", "address")
	fs.StringVar(&f.approved, "approved", "", "approved for sale: true, false or unknown")
}

func (f *filterFlags) names() []string {
	names := []string{
		"status", "type", "brand", "model", "liquidity", "responsible", "lessor", "lessee", "keys-count",
		"seized-from", "seized-to", "region", "address", "approved",
	}
	for _, b := range boundFlags {
		names = append(names, b.flag)
	}
	return names
}

// changed reports whether any filter flag was given.
func (f *filterFlags) changed(cmd *cobra.Command) bool {
	for _, name := range f.names() {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// apply returns base with every given flag applied.
func (f *filterFlags) apply(cmd *cobra.Command, base filters.Filters) (filters.Filters, error) {
	out := base.Clone()
	fs := cmd.Flags()

	lists := map[string]struct {
		dst *filters.IDList
		src []string
	}{
		"status":      {&out.Status, f.status},
		"type":        {&out.VehicleType, f.vehicleType},
		"brand":       {&out.Brand, f.brand},
		"model":       {&out.Model, f.model},
		"liquidity":   {&out.Liquidity, f.liquidity},
		"responsible": {&out.Responsible, f.responsible},
		"lessor":      {&out.Lessor, f.lessor},
		"lessee":      {&out.Lessee, f.lessee},
		"keys-count":  {&out.KeysCount, f.keysCount},
	}
	for name, l := range lists {
		if fs.Changed(name) {
			*l.dst = filters.IDList(append([]string{}, l.src...))
		}
	}

	bounds := map[string]struct {
		dst **int
		raw string
	}{
		"year-min":         {&out.YearMin, f.yearMin},
		"year-max":         {&out.YearMax, f.yearMax},
		"power-hp-min":     {&out.PowerHPMin, f.powerHPMin},
		"power-hp-max":     {&out.PowerHPMax, f.powerHPMax},
		"power-kw-min":     {&out.PowerKWMin, f.powerKWMin},
		"power-kw-max":     {&out.PowerKWMax, f.powerKWMax},
		"mileage-min":      {&out.MileageMin, f.mileageMin},
		"mileage-max":      {&out.MileageMax, f.mileageMax},
		"engine-hours-min": {&out.EngineHoursMin, f.engineHoursMin},
		"engine-hours-max": {&out.EngineHoursMax, f.engineHoursMax},
	}
	for _, b := range boundFlags {
		if !fs.Changed(b.flag) {
			continue
		}
		v, err := filters.ParseBound(b.bound, bounds[b.flag].raw)
		if err != nil {
			return base, err
		}
		*bounds[b.flag].dst = v
	}

	dates := map[string]struct {
		dst **string
		raw string
	}{
		"seized-from": {&out.DateOfSeizureMin, f.seizedFrom},
		"seized-to":   {&out.DateOfSeizureMax, f.seizedTo},
	}
	for name, d := range dates {
		if !fs.Changed(name) {
			continue
		}
		raw := strings.TrimSpace(d.raw)
		if raw == "" {
			*d.dst = nil
			continue
		}
		if _, err := filters.ParseDate(raw); err != nil {
			return base, fmt.Errorf("%s: %q is not a date", name, raw)
		}
		*d.dst = filters.String(raw)
	}

	if fs.Changed("region") {
		out.Region = filters.String(f.region)
	}
	if fs.Changed("address") {
		out.Address = filters.String(f.address)
	}
	if fs.Changed("approved") {
		switch a := filters.ApprovedForSale(f.approved); a {
		case filters.ApprovedUnset, filters.ApprovedTrue, filters.ApprovedFalse, filters.ApprovedUnknown:
			out.ApprovedForSale = a
		default:
			return base, fmt.Errorf("approved: %q must be true, false or unknown", f.approved)
		}
	}

	out.Normalize()
	return out, nil
}

// parseSort reads "column" as ascending, "-column" as descending and
// "none" as no sort.
func parseSort(arg string) (string, bool) {
	arg = strings.TrimSpace(arg)
	if arg == "none" {
		return "", false
	}
	if strings.HasPrefix(arg, "-") {
		return arg[1:], true
	}
	return arg, false
}
