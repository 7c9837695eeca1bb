package dependency

import (
	"testing"

	"listing-billing-be/internal/apperror"
	"listing-billing-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upgrades(edges map[string][]string) []*entity.UpgradeDefinition {
	out := make([]*entity.UpgradeDefinition, 0, len(edges))
	for code, req := range edges {
		out = append(out, &entity.UpgradeDefinition{Code: code, Requires: req, IsActive: true})
	}
	return out
}

func TestDetectCycle(t *testing.T) {
	tests := []struct {
		name      string
		edges     map[string][]string
		wantCycle []string
	}{
		{"empty", map[string][]string{}, nil},
		{"chain", map[string][]string{"c": {"b"}, "b": {"a"}, "a": nil}, nil},
		{"diamond", map[string][]string{"d": {"b", "c"}, "b": {"a"}, "c": {"a"}}, nil},
		{"self loop", map[string][]string{"a": {"a"}}, []string{"a", "a"}},
		{"triangle", map[string][]string{"a": {"b"}, "b": {"c"}, "c": {"a"}}, []string{"a", "b", "c", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCycle, NewGraph(upgrades(tt.edges)).DetectCycle())
		})
	}
}

func TestTopologicalOrderPutsPrerequisitesFirst(t *testing.T) {
	g := NewGraph(upgrades(map[string][]string{
		"spotlight": {"boost", "highlight"},
		"boost":     {"bump"},
		"highlight": {"bump"},
		"bump":      nil,
	}))

	order, err := g.TopologicalOrder()
	require.NoError(t, err)
	require.Len(t, order, 4)

	pos := map[string]int{}
	for i, c := range order {
		pos[c] = i
	}
	assert.Less(t, pos["bump"], pos["boost"])
	assert.Less(t, pos["bump"], pos["highlight"])
	assert.Less(t, pos["boost"], pos["spotlight"])
	assert.Less(t, pos["highlight"], pos["spotlight"])
}

func TestCheckWriteRejectsNewCycle(t *testing.T) {
	g := NewGraph(upgrades(map[string][]string{"b": {"a"}, "a": nil}))

	require.NoError(t, g.CheckWrite("c", []string{"b"}))

	err := g.CheckWrite("a", []string{"b"})
	var cycleErr *apperror.DependencyCycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []string{"a", "b", "a"}, cycleErr.Cycle)

	// The original graph is untouched by the rejected write.
	assert.Nil(t, g.DetectCycle())
}

func TestRename(t *testing.T) {
	g := NewGraph(upgrades(map[string][]string{"b": {"a"}, "a": nil})).Rename("a", "base")
	assert.True(t, g.Has("base"))
	assert.False(t, g.Has("a"))
	assert.Equal(t, []string{"base"}, g.Requires("b"))
}
