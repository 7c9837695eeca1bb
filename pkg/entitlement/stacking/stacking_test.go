package stacking

import (
	"testing"
	"time"

	"listing-billing-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(DurationForDays(10))
	past := now.Add(-DurationForDays(3))
	fiveDays := DurationForDays(5)

	tests := []struct {
		name    string
		policy  entity.StackingPolicy
		current *time.Time
		want    time.Time
	}{
		{"extend keeps remaining time", entity.StackingExtend, &future, now.Add(DurationForDays(15))},
		{"replace discards remaining time", entity.StackingReplace, &future, now.Add(fiveDays)},
		{"extend first application", entity.StackingExtend, nil, now.Add(fiveDays)},
		{"replace first application", entity.StackingReplace, nil, now.Add(fiveDays)},
		{"extend from lapsed expiry starts now", entity.StackingExtend, &past, now.Add(fiveDays)},
		{"unknown policy behaves as extend", entity.StackingPolicy(""), &future, now.Add(DurationForDays(15))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.policy, now, tt.current, fiveDays))
		})
	}
}

func TestResolveIsPure(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	current := now.Add(time.Hour)
	before := current

	first := Resolve(entity.StackingExtend, now, &current, time.Hour)
	second := Resolve(entity.StackingExtend, now, &current, time.Hour)

	assert.Equal(t, first, second)
	assert.Equal(t, before, current)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy(" Replace ", entity.StackingExtend)
	require.NoError(t, err)
	assert.Equal(t, entity.StackingReplace, p)

	p, err = ParsePolicy("", entity.StackingExtend)
	require.NoError(t, err)
	assert.Equal(t, entity.StackingExtend, p)

	_, err = ParsePolicy("merge", entity.StackingExtend)
	assert.Error(t, err)
}

func TestEffective(t *testing.T) {
	assert.Equal(t, entity.StackingReplace, Effective(entity.StackingReplace, entity.StackingExtend))
	assert.Equal(t, entity.StackingReplace, Effective("", entity.StackingReplace))
	assert.Equal(t, entity.StackingExtend, Effective("", ""))
}
