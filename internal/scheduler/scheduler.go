package scheduler

import (
	"context"
	"time"

	"listing-billing-be/internal/pkg/logger"
	"listing-billing-be/internal/service"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

const jobTimeout = 30 * time.Second

// Handler holds the periodic billing jobs.
type Handler struct {
	invoices service.IInvoiceService
	batch    int
	logger   logger.ILogger
}

func NewHandler(invoices service.IInvoiceService, batch int, logger logger.ILogger) *Handler {
	if batch <= 0 {
		batch = 200
	}
	return &Handler{invoices: invoices, batch: batch, logger: logger}
}

// ExpireOverdueInvoices closes every pending invoice whose payment window has
// passed, one batch at a time, until a batch comes back short.
func (h *Handler) ExpireOverdueInvoices(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := h.invoices.ExpireOverdue(ctx, h.batch)
		total += n
		if err != nil {
			return total, errors.Wrap(err, "unable to expire overdue invoices")
		}
		if n < h.batch {
			return total, nil
		}
	}
}

// Scheduler runs Handler jobs on cron specs.
type Scheduler struct {
	cron    *cron.Cron
	handler *Handler
	logger  logger.ILogger
}

func New(handler *Handler, logger logger.ILogger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		handler: handler,
		logger:  logger,
	}
}

// RegisterInvoiceSweep schedules ExpireOverdueInvoices. An empty spec leaves
// the sweep off.
func (s *Scheduler) RegisterInvoiceSweep(spec string) error {
	if spec == "" {
		return nil
	}
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		n, err := s.handler.ExpireOverdueInvoices(ctx)
		if err != nil {
			s.logger.Error("SCHEDULER", "Invoice sweep failed", map[string]interface{}{"error": err.Error(), "expired": n})
			return
		}
		if n > 0 {
			s.logger.Info("SCHEDULER", "Expired overdue invoices", map[string]interface{}{"expired": n})
		}
	})
	return errors.Wrapf(err, "invalid invoice sweep schedule %q", spec)
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
