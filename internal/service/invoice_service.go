package service

import (
	"context"
	"errors"
	"time"

	"listing-billing-be/internal/apperror"
	"listing-billing-be/internal/dto"
	"listing-billing-be/internal/entity"
	"listing-billing-be/internal/pkg/logger"
	"listing-billing-be/pkg/entitlement/purchase"
	"listing-billing-be/pkg/events"

	"github.com/google/uuid"
)

type IInvoiceService interface {
	Get(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error)
	ListByProfile(ctx context.Context, profileId uuid.UUID, req dto.InvoiceListRequest) (*dto.ListResponse[dto.InvoiceResponse], error)
	Entitlements(ctx context.Context, profileId uuid.UUID, includeExpired bool) ([]dto.EntitlementResponse, error)

	// Admin
	MarkPaid(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error)
	Cancel(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error)
	Expire(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error)
	ExpireOverdue(ctx context.Context, limit int) (int, error)
}

type invoiceService struct {
	orchestrator *purchase.Orchestrator
	publisher    events.Publisher
	logger       logger.ILogger
	now          func() time.Time
}

func NewInvoiceService(orchestrator *purchase.Orchestrator, publisher events.Publisher, logger logger.ILogger) IInvoiceService {
	return &invoiceService{
		orchestrator: orchestrator,
		publisher:    publisher,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *invoiceService) Get(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error) {
	inv, err := s.orchestrator.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv), nil
}

func (s *invoiceService) ListByProfile(ctx context.Context, profileId uuid.UUID, req dto.InvoiceListRequest) (*dto.ListResponse[dto.InvoiceResponse], error) {
	page, limit := pageOf(req.Page, req.Limit)
	invoices, total, err := s.orchestrator.ListInvoices(ctx, profileId, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	return listResponse(invoices, total, page, limit, toInvoiceResponse), nil
}

func (s *invoiceService) Entitlements(ctx context.Context, profileId uuid.UUID, includeExpired bool) ([]dto.EntitlementResponse, error) {
	list, err := s.orchestrator.Entitlements(ctx, profileId, includeExpired)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]dto.EntitlementResponse, 0, len(list))
	for _, e := range list {
		out = append(out, toEntitlementResponse(e, now))
	}
	return out, nil
}

func (s *invoiceService) MarkPaid(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error) {
	settlement, err := s.orchestrator.MarkPaid(ctx, id)
	if err != nil {
		logFailure(s.logger, "INVOICE", "Failed to mark invoice paid", err, map[string]interface{}{"invoice_id": id.String()})
		return nil, err
	}

	granted := make([]string, 0, len(settlement.Entitlements))
	for _, e := range settlement.Entitlements {
		granted = append(granted, e.Code+"@"+e.ExpiresAt.Format(time.RFC3339))
	}
	s.logger.Info("INVOICE", "Invoice paid", map[string]interface{}{
		"invoice_id": id.String(),
		"profile_id": settlement.Invoice.ProfileId.String(),
		"granted":    granted,
	})
	s.publisher.PublishInvoiceStatusChanged(ctx, settlement.Invoice, entity.InvoiceStatusPending)
	return toInvoiceResponse(settlement.Invoice), nil
}

func (s *invoiceService) Cancel(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error) {
	return s.close(ctx, id, "cancel", s.orchestrator.Cancel)
}

func (s *invoiceService) Expire(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error) {
	return s.close(ctx, id, "expire", s.orchestrator.Expire)
}

// ExpireOverdue expires up to limit pending invoices past their payment
// window and reports how many it closed. An invoice paid or cancelled in the
// meantime is skipped.
func (s *invoiceService) ExpireOverdue(ctx context.Context, limit int) (int, error) {
	overdue, err := s.orchestrator.Overdue(ctx, limit)
	if err != nil {
		s.logger.Error("INVOICE", "Failed to list overdue invoices", map[string]interface{}{"error": err.Error()})
		return 0, apperror.Internal("list overdue invoices", err)
	}

	expired := 0
	for _, inv := range overdue {
		if _, err := s.Expire(ctx, inv.Id); err != nil {
			var conflict *apperror.ConflictError
			if errors.As(err, &conflict) {
				continue
			}
			return expired, err
		}
		expired++
	}
	return expired, nil
}

func (s *invoiceService) close(ctx context.Context, id uuid.UUID, action string, fn func(context.Context, uuid.UUID) (*entity.Invoice, error)) (*dto.InvoiceResponse, error) {
	inv, err := fn(ctx, id)
	if err != nil {
		logFailure(s.logger, "INVOICE", "Failed to "+action+" invoice", err, map[string]interface{}{"invoice_id": id.String()})
		return nil, err
	}
	s.logger.Info("INVOICE", "Invoice "+string(inv.Status), map[string]interface{}{"invoice_id": id.String()})
	s.publisher.PublishInvoiceStatusChanged(ctx, inv, entity.InvoiceStatusPending)
	return toInvoiceResponse(inv), nil
}
