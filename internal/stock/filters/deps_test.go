// internal/stock/filters/deps_test.go
package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClearDependents(t *testing.T) {
	full := func() Filters {
		f := Empty()
		f.VehicleType = IDList{"t"}
		f.VehicleKind = IDList{"k"}
		f.VehicleSubKind = IDList{"s"}
		f.Brand = IDList{"b"}
		f.Model = IDList{"m"}
		f.Equipment = IDList{"e"}
		f.Status = IDList{"ON_SALE"}
		return f
	}

	for _, facet := range CascadeOrder {
		t.Run(string(facet), func(t *testing.T) {
			f := full()
			ClearDependents(facet, &f)

			cleared := map[Facet]bool{}
			for _, dep := range Dependencies[facet] {
				cleared[dep] = true
			}
			for _, other := range CascadeOrder {
				sel := *f.Selection(other)
				if cleared[other] {
					assert.Empty(t, sel, other)
					assert.NotNil(t, sel, other)
				} else {
					assert.Len(t, sel, 1, other)
				}
			}
			assert.Equal(t, IDList{"ON_SALE"}, f.Status)
		})
	}
}

func TestDependencies_AreDownstreamOnly(t *testing.T) {
	position := map[Facet]int{}
	for i, f := range CascadeOrder {
		position[f] = i
	}
	for facet, deps := range Dependencies {
		for _, dep := range deps {
			assert.Greater(t, position[dep], position[facet], "%s -> %s", facet, dep)
		}
	}
	assert.Empty(t, DependentsOf(FacetEquipment))
}

func TestBrandParents(t *testing.T) {
	f := Empty()
	assert.Nil(t, BrandParents(f))

	f.VehicleType = IDList{"t"}
	assert.Equal(t, []string{"t"}, BrandParents(f))

	f.VehicleKind = IDList{"k1", "k2"}
	assert.Equal(t, []string{"k1", "k2"}, BrandParents(f))

	f.VehicleSubKind = IDList{"s"}
	assert.Equal(t, []string{"s"}, BrandParents(f))
}
