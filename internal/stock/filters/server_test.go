// internal/stock/filters/server_test.go
package filters

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateServerFilters(t *testing.T) {
	tests := []struct {
		name           string
		filters        func() Filters
		search         string
		group          StatusGroup
		validateOutput func(t *testing.T, out ServerFilter)
	}{
		{
			name:    "zero value filters give empty arrays",
			filters: func() Filters { return Filters{} },
			group:   GroupActive,
			validateOutput: func(t *testing.T, out ServerFilter) {
				data, err := json.Marshal(out)
				require.NoError(t, err)

				var m map[string]interface{}
				require.NoError(t, json.Unmarshal(data, &m))
				for _, key := range []string{"statuses", "types", "subtypes1", "subtypes2", "brands", "models",
					"equipments", "liquidities", "fuel_types", "transmission_types", "wheel_formulas",
					"lessors", "lessees", "drive_units", "keys_counts", "responsible_users"} {
					assert.Equal(t, []interface{}{}, m[key], key)
				}
				assert.Nil(t, m["query"])
				assert.Equal(t, "Active", m["status_group"])
				assert.NotContains(t, m, "approved_for_sale")
			},
		},
		{
			name: "fields are renamed and keys counts mapped",
			filters: func() Filters {
				f := Empty()
				f.VehicleType = IDList{"t1"}
				f.VehicleKind = IDList{"k1"}
				f.VehicleSubKind = IDList{"s1"}
				f.KeysCount = IDList{"Не применимо", "1 ключ", "2 ключа", "3 ключа"}
				f.Responsible = IDList{"u1"}
				return f
			},
			search: "камаз",
			group:  GroupArchive,
			validateOutput: func(t *testing.T, out ServerFilter) {
				assert.Equal(t, []string{"t1"}, out.Types)
				assert.Equal(t, []string{"k1"}, out.Subtypes1)
				assert.Equal(t, []string{"s1"}, out.Subtypes2)
				assert.Equal(t, []string{"NONE", "ONE", "TWO", "3 ключа"}, out.KeysCounts)
				assert.Equal(t, []string{"u1"}, out.ResponsibleUsers)
				require.NotNil(t, out.Query)
				assert.Equal(t, "камаз", *out.Query)
				assert.Equal(t, GroupArchive, out.StatusGroup)
			},
		},
		{
			name: "zero bounds and blank strings become null",
			filters: func() Filters {
				f := Empty()
				f.YearMin = Int(0)
				f.YearMax = Int(2020)
				f.MileageMin = Int(0)
				f.DateOfSeizureMin = String("")
				f.DateOfSeizureMax = String("2024-01-31")
				f.Region = String("  ")
				return f
			},
			search: "   ",
			group:  GroupActive,
			validateOutput: func(t *testing.T, out ServerFilter) {
				assert.Nil(t, out.YearMin)
				assert.Equal(t, 2020, *out.YearMax)
				assert.Nil(t, out.MileageMin)
				assert.Nil(t, out.DateOfSeizureMin)
				assert.Equal(t, "2024-01-31", *out.DateOfSeizureMax)
				assert.Nil(t, out.Region)
				assert.Nil(t, out.Query)
			},
		},
		{
			name: "approved for sale only when decided",
			filters: func() Filters {
				f := Empty()
				f.ApprovedForSale = ApprovedFalse
				return f
			},
			group: GroupActive,
			validateOutput: func(t *testing.T, out ServerFilter) {
				require.NotNil(t, out.ApprovedForSale)
				assert.Equal(t, "false", *out.ApprovedForSale)
			},
		},
		{
			name: "unknown approval is omitted",
			filters: func() Filters {
				f := Empty()
				f.ApprovedForSale = ApprovedUnknown
				return f
			},
			group: GroupActive,
			validateOutput: func(t *testing.T, out ServerFilter) {
				assert.Nil(t, out.ApprovedForSale)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := CreateServerFilters(tt.filters(), tt.search, tt.group)
			tt.validateOutput(t, out)
		})
	}
}

func TestCreateServerFilters_IsPure(t *testing.T) {
	f := Empty()
	f.Brand = IDList{"b1", "b2"}
	f.KeysCount = IDList{"1 ключ"}
	f.YearMin = Int(2001)
	before := f.Clone()

	first := CreateServerFilters(f, "x", GroupActive)
	second := CreateServerFilters(f, "x", GroupActive)

	assert.Equal(t, first, second)
	assert.Equal(t, before, f)

	// the output does not alias the input
	first.Brands[0] = "mutated"
	*first.YearMin = 1
	assert.Equal(t, "b1", f.Brand[0])
	assert.Equal(t, 2001, *f.YearMin)
}

func TestServerFilter_Normalize(t *testing.T) {
	s := ServerFilter{Brands: []string{"a", "b", "c", "d"}}

	out := s.Normalize(3)

	assert.Equal(t, []string{"a", "b", "c"}, out.Brands)
	assert.NotNil(t, out.Statuses)
	assert.Len(t, s.Brands, 4)
}
