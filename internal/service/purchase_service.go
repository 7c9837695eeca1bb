package service

import (
	"context"

	"listing-billing-be/internal/dto"
	"listing-billing-be/internal/pkg/logger"
	"listing-billing-be/pkg/entitlement/purchase"
	"listing-billing-be/pkg/events"
)

type IPurchaseService interface {
	PurchasePlan(ctx context.Context, req dto.PurchasePlanRequest) (*dto.PurchaseResponse, error)
	RenewPlan(ctx context.Context, req dto.PurchasePlanRequest) (*dto.PurchaseResponse, error)
	PurchaseUpgrade(ctx context.Context, req dto.PurchaseUpgradeRequest) (*dto.PurchaseResponse, error)
}

type purchaseService struct {
	orchestrator *purchase.Orchestrator
	publisher    events.Publisher
	logger       logger.ILogger
}

func NewPurchaseService(orchestrator *purchase.Orchestrator, publisher events.Publisher, logger logger.ILogger) IPurchaseService {
	return &purchaseService{
		orchestrator: orchestrator,
		publisher:    publisher,
		logger:       logger,
	}
}

func planRequest(req dto.PurchasePlanRequest) purchase.PlanRequest {
	return purchase.PlanRequest{
		ProfileId:   req.ProfileId,
		UserId:      req.UserId,
		PlanCode:    req.PlanCode,
		VariantDays: req.VariantDays,
		CouponCode:  req.CouponCode,
	}
}

func (s *purchaseService) PurchasePlan(ctx context.Context, req dto.PurchasePlanRequest) (*dto.PurchaseResponse, error) {
	result, err := s.orchestrator.PurchasePlan(ctx, planRequest(req))
	return s.finish(ctx, "Plan purchase", result, err, map[string]interface{}{
		"profile_id": req.ProfileId.String(),
		"plan_code":  req.PlanCode,
		"days":       req.VariantDays,
	})
}

func (s *purchaseService) RenewPlan(ctx context.Context, req dto.PurchasePlanRequest) (*dto.PurchaseResponse, error) {
	result, err := s.orchestrator.RenewPlan(ctx, planRequest(req))
	return s.finish(ctx, "Plan renewal", result, err, map[string]interface{}{
		"profile_id": req.ProfileId.String(),
		"plan_code":  req.PlanCode,
		"days":       req.VariantDays,
	})
}

func (s *purchaseService) PurchaseUpgrade(ctx context.Context, req dto.PurchaseUpgradeRequest) (*dto.PurchaseResponse, error) {
	result, err := s.orchestrator.PurchaseUpgrade(ctx, purchase.UpgradeRequest{
		ProfileId:   req.ProfileId,
		UserId:      req.UserId,
		UpgradeCode: req.UpgradeCode,
		CouponCode:  req.CouponCode,
	})
	return s.finish(ctx, "Upgrade purchase", result, err, map[string]interface{}{
		"profile_id":   req.ProfileId.String(),
		"upgrade_code": req.UpgradeCode,
	})
}

// finish logs the outcome and, once the invoice is committed, announces it.
func (s *purchaseService) finish(ctx context.Context, what string, result *purchase.Result, err error, details map[string]interface{}) (*dto.PurchaseResponse, error) {
	if err != nil {
		logFailure(s.logger, "PURCHASE", what+" failed", err, details)
		return nil, err
	}

	inv := result.Invoice
	details["invoice_id"] = inv.Id.String()
	details["total_amount"] = inv.TotalAmount.String()
	s.logger.Info("PURCHASE", what+" created pending invoice", details)

	s.publisher.PublishInvoiceCreated(ctx, inv)
	if result.Coupon != nil {
		s.publisher.PublishCouponRedeemed(ctx, result.Coupon.Coupon.Code, inv, result.Coupon.Discount)
	}

	return &dto.PurchaseResponse{
		Invoice:   *toInvoiceResponse(inv),
		ExpiresAt: result.ExpiresAt,
	}, nil
}
