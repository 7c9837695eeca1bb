package scheduler

import (
	"context"
	"errors"
	"testing"

	"listing-billing-be/internal/pkg/logger"
	"listing-billing-be/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInvoices struct {
	service.IInvoiceService
	results []int
	err     error
	calls   int
}

func (f *fakeInvoices) ExpireOverdue(ctx context.Context, limit int) (int, error) {
	f.calls++
	if f.calls > len(f.results) {
		return 0, f.err
	}
	return f.results[f.calls-1], nil
}

func TestExpireOverdueInvoicesDrainsFullBatches(t *testing.T) {
	tests := []struct {
		name      string
		results   []int
		err       error
		wantTotal int
		wantCalls int
		wantErr   bool
	}{
		{name: "nothing overdue", results: []int{0}, wantTotal: 0, wantCalls: 1},
		{name: "short batch stops", results: []int{1}, wantTotal: 1, wantCalls: 1},
		{name: "full batches repeat", results: []int{2, 2, 1}, wantTotal: 5, wantCalls: 3},
		{name: "error after progress", results: []int{2}, err: errors.New("db down"), wantTotal: 2, wantCalls: 2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoices := &fakeInvoices{results: tt.results, err: tt.err}
			h := NewHandler(invoices, 2, logger.NewNopLogger())

			total, err := h.ExpireOverdueInvoices(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantTotal, total)
			assert.Equal(t, tt.wantCalls, invoices.calls)
		})
	}
}

func TestRegisterInvoiceSweep(t *testing.T) {
	s := New(NewHandler(&fakeInvoices{}, 0, logger.NewNopLogger()), logger.NewNopLogger())

	require.NoError(t, s.RegisterInvoiceSweep(""))
	assert.Empty(t, s.cron.Entries())

	require.NoError(t, s.RegisterInvoiceSweep("@every 1m"))
	assert.Len(t, s.cron.Entries(), 1)

	assert.Error(t, s.RegisterInvoiceSweep("every now and then"))

	s.Start()
	s.Stop()
}
