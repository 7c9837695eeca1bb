package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCouponInvalidStatus(t *testing.T) {
	tests := []struct {
		reason     CouponReason
		wantStatus int
		wantCode   string
	}{
		{CouponNotFound, http.StatusNotFound, "COUPON_NOT_FOUND"},
		{CouponInactive, http.StatusUnprocessableEntity, "COUPON_INACTIVE"},
		{CouponExpired, http.StatusUnprocessableEntity, "COUPON_EXPIRED"},
		{CouponExhausted, http.StatusConflict, "COUPON_EXHAUSTED"},
		{CouponPlanMismatch, http.StatusUnprocessableEntity, "COUPON_PLAN_MISMATCH"},
	}

	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			err := CouponInvalid("SAVE10", tt.reason, "")
			assert.Equal(t, tt.wantStatus, err.HTTPStatus())
			assert.Equal(t, tt.wantCode, err.ErrorCode())
		})
	}
}

func TestErrorsAsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("purchase: %w", &DependencyError{Missing: []string{"boost"}})

	var depErr *DependencyError
	require.True(t, errors.As(wrapped, &depErr))
	assert.Equal(t, []string{"boost"}, depErr.Missing)

	var appErr AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, "DEPENDENCY_UNSATISFIED", appErr.ErrorCode())
}

func TestInternalErrorHidesCause(t *testing.T) {
	err := Internal("create invoice", errors.New("pq: connection refused"))

	assert.Equal(t, "internal server error", PublicMessage(err))
	assert.Contains(t, err.Error(), "connection refused")
	assert.ErrorIs(t, err, err.Err)
}

func TestDependencyCycleMessage(t *testing.T) {
	err := &DependencyCycleError{Cycle: []string{"a", "b", "a"}}
	assert.Equal(t, "upgrade dependency cycle: a -> b -> a", err.Error())
}
