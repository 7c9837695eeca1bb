// Package stacking decides how a newly bought period combines with time a
// profile already holds.
package stacking

import (
	"fmt"
	"strings"
	"time"

	"listing-billing-be/internal/entity"
)

// Resolve returns the expiry after applying duration under policy. A nil
// current expiry is a first application and both policies give now+duration.
func Resolve(policy entity.StackingPolicy, now time.Time, current *time.Time, duration time.Duration) time.Time {
	switch policy {
	case entity.StackingReplace:
		return now.Add(duration)
	default:
		anchor := now
		if current != nil && current.After(now) {
			anchor = *current
		}
		return anchor.Add(duration)
	}
}

// ParsePolicy accepts "extend" or "replace" in any case. Empty input yields
// fallback.
func ParsePolicy(raw string, fallback entity.StackingPolicy) (entity.StackingPolicy, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return fallback, nil
	}
	policy := entity.StackingPolicy(trimmed)
	if !policy.IsValid() {
		return "", fmt.Errorf("unknown stacking policy %q", raw)
	}
	return policy, nil
}

// Effective picks the record's own policy when set, the fallback otherwise.
func Effective(own, fallback entity.StackingPolicy) entity.StackingPolicy {
	if own.IsValid() {
		return own
	}
	if fallback.IsValid() {
		return fallback
	}
	return entity.StackingExtend
}

func DurationForDays(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}

func DurationForHours(hours int) time.Duration {
	return time.Duration(hours) * time.Hour
}
