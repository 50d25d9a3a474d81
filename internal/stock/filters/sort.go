// internal/stock/filters/sort.go
package filters

import "strings"

// SortFieldMapping maps listing column names to backend sort identifiers.
var SortFieldMapping = map[string]string{
	"leasing_contract.leasing_contract_number":   "leasingcontractnumber",
	"lot_number":                                 "lotnumber",
	"price":                                      "price",
	"realization_cost":                           "realizationcost",
	"vin":                                        "vin",
	"equipment.type_ts":                          "typets",
	"equipment.subtype1":                         "subtype1",
	"equipment.subtype2":                         "subtype2",
	"equipment.brand":                            "brand",
	"equipment.model.name":                       "modelname",
	"valuation_details.valuation_date":           "valuationdate",
	"valuation":                                  "valuation",
	"market_bottom":                              "marketbottom",
	"realization_date":                           "realizationdate",
	"parking.region":                             "parkingregion",
	"year":                                       "year",
	"equipment.engine_power_hp":                  "enginepowerhp",
	"equipment.engine_power_kw":                  "enginepowerkw",
	"equipment.transmission":                     "transmission",
	"state_number":                               "statenumber",
	"equipment.body_type":                        "bodytype",
	"equipment.name":                             "equipmentname",
	"equipment.liquidity":                        "liquidity",
	"equipment.type_fuel":                        "typefuel",
	"equipment.category":                         "category",
	"equipment.model.model_group_name":           "modelgroupname",
	"equipment.wheel_formula":                    "wheelformula",
	"equipment.engine_volume":                    "enginevolume",
	"equipment.mover_type.name":                  "movertypename",
	"equipment.curb_weight":                      "curbweight",
	"equipment.weigth":                           "weight",
	"equipment.seats_number":                     "seatsnumber",
	"equipment.dimensions":                       "dimensions",
	"equipment.drive_unit":                       "driveunit",
	"equipment.move_ability":                     "moveability",
	"equipment.brand_country":                    "brandcountry",
	"leasing_contract.supplier.name":             "suppliername",
	"leasing_contract.purchase_price":            "purchaseprice",
	"leasing_contract.supplier.inn":              "supplierinn",
	"leasing_contract.lessee.name":               "lesseename",
	"leasing_contract.lessee.inn":                "lesseeinn",
	"leasing_contract.lessor.name":               "lessorname",
	"leasing_contract.lessor.inn":                "lessorinn",
	"leasing_contract.contract_termination_date": "contractterminationdate",
	"leasing_contract.seizure_date":              "seizuredate",
	"leasing_contract.lease_repurchase_date":     "leaserepurchasedate",
	"owners_count":                               "ownerscount",
	"mileage":                                    "mileage",
	"engine_hours":                               "enginehours",
	"color":                                      "color",
	"responsible.employee_display":               "employeedisplay",
}

// MapSortFieldName returns the backend identifier of column, or false when
// the column cannot be sorted server side.
func MapSortFieldName(column string) (string, bool) {
	mapped, ok := SortFieldMapping[column]
	if !ok || strings.Contains(mapped, ".") {
		return "", false
	}
	return mapped, true
}

// PrepareSortFields maps columns to backend identifiers, dropping the ones
// without a mapping. Directions stay aligned with the kept columns; a
// missing direction means ascending.
func PrepareSortFields(columns []string, desc []bool) ([]string, []bool) {
	outCols := make([]string, 0, len(columns))
	outDesc := make([]bool, 0, len(columns))
	for i, column := range columns {
		mapped, ok := MapSortFieldName(column)
		if !ok {
			continue
		}
		outCols = append(outCols, mapped)
		outDesc = append(outDesc, i < len(desc) && desc[i])
	}
	return outCols, outDesc
}
