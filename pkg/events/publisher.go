package events

import (
	"context"
	"time"

	"listing-billing-be/internal/entity"
	"listing-billing-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Publisher emits the entitlement engine's domain events. Publishing is best
// effort: failures are logged and never fail the operation that triggered them.
type Publisher interface {
	PublishInvoiceCreated(ctx context.Context, invoice *entity.Invoice)
	PublishInvoiceStatusChanged(ctx context.Context, invoice *entity.Invoice, from entity.InvoiceStatus)
	PublishCouponRedeemed(ctx context.Context, code string, invoice *entity.Invoice, discount decimal.Decimal)
	PublishCatalogChanged(ctx context.Context, resource, code, action string)
}

type BusPublisher struct {
	bus    Bus
	logger logger.ILogger
}

func NewBusPublisher(bus Bus, logger logger.ILogger) *BusPublisher {
	return &BusPublisher{
		bus:    bus,
		logger: logger,
	}
}

func (p *BusPublisher) PublishInvoiceCreated(ctx context.Context, invoice *entity.Invoice) {
	codes := make([]string, 0, len(invoice.Items))
	for _, item := range invoice.Items {
		codes = append(codes, item.Code)
	}
	p.publish(ctx, InvoiceCreated, map[string]interface{}{
		"invoice_id":   invoice.Id.String(),
		"profile_id":   invoice.ProfileId.String(),
		"kind":         string(invoice.Kind),
		"items":        codes,
		"total_amount": invoice.TotalAmount.String(),
		"coupon_code":  invoice.CouponCode,
		"expires_at":   invoice.ExpiresAt,
		"entity_type":  "invoice",
		"entity_id":    invoice.Id.String(),
	})
}

func (p *BusPublisher) PublishInvoiceStatusChanged(ctx context.Context, invoice *entity.Invoice, from entity.InvoiceStatus) {
	p.publish(ctx, InvoiceStatusChanged, map[string]interface{}{
		"invoice_id":  invoice.Id.String(),
		"profile_id":  invoice.ProfileId.String(),
		"from":        string(from),
		"to":          string(invoice.Status),
		"entity_type": "invoice",
		"entity_id":   invoice.Id.String(),
	})
}

func (p *BusPublisher) PublishCouponRedeemed(ctx context.Context, code string, invoice *entity.Invoice, discount decimal.Decimal) {
	p.publish(ctx, CouponRedeemed, map[string]interface{}{
		"coupon_code": code,
		"invoice_id":  invoice.Id.String(),
		"profile_id":  invoice.ProfileId.String(),
		"discount":    discount.String(),
		"entity_type": "coupon",
		"entity_id":   code,
	})
}

func (p *BusPublisher) PublishCatalogChanged(ctx context.Context, resource, code, action string) {
	p.publish(ctx, CatalogChanged, map[string]interface{}{
		"resource":    resource,
		"code":        code,
		"action":      action,
		"entity_type": resource,
		"entity_id":   code,
	})
}

func (p *BusPublisher) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if p.bus == nil {
		return
	}

	now := time.Now()
	data["event_id"] = uuid.NewString()
	data["occurred_at"] = now
	evt := BaseEvent{Type: eventType, Data: data, OccurredAt: now}

	if err := p.bus.Publish(ctx, evt); err != nil {
		p.logger.Error("EVENTS", "Failed to publish "+eventType+" event", map[string]interface{}{"error": err.Error()})
	}
}
