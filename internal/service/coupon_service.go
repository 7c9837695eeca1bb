package service

import (
	"context"

	"listing-billing-be/internal/dto"
	"listing-billing-be/internal/entity"
	"listing-billing-be/internal/pkg/logger"
	"listing-billing-be/internal/repository/unitofwork"
	"listing-billing-be/pkg/entitlement/coupon"
	"listing-billing-be/pkg/lock"
)

type ICouponService interface {
	// Checkout
	Quote(ctx context.Context, req dto.ApplyCouponRequest) (*dto.CouponApplicationResponse, error)
	Apply(ctx context.Context, req dto.ApplyCouponRequest) (*dto.CouponApplicationResponse, error)

	// Admin
	Create(ctx context.Context, req dto.CreateCouponRequest) (*dto.CouponResponse, error)
	Update(ctx context.Context, code string, req dto.UpdateCouponRequest) (*dto.CouponResponse, error)
	Deactivate(ctx context.Context, code string) (*dto.CouponResponse, error)
	Get(ctx context.Context, code string) (*dto.CouponResponse, error)
	List(ctx context.Context, req dto.CouponListRequest) (*dto.ListResponse[dto.CouponResponse], error)
}

type couponService struct {
	uowFactory unitofwork.RepositoryFactory
	ledger     *coupon.Ledger
	manager    *coupon.Manager
	locker     lock.Locker
	logger     logger.ILogger
}

func NewCouponService(uowFactory unitofwork.RepositoryFactory, ledger *coupon.Ledger, manager *coupon.Manager, locker lock.Locker, logger logger.ILogger) ICouponService {
	return &couponService{
		uowFactory: uowFactory,
		ledger:     ledger,
		manager:    manager,
		locker:     locker,
		logger:     logger,
	}
}

func couponLockKey(code string) string {
	return "coupon:" + entity.NormalizeCouponCode(code)
}

func (s *couponService) Quote(ctx context.Context, req dto.ApplyCouponRequest) (*dto.CouponApplicationResponse, error) {
	result, err := s.ledger.Quote(ctx, s.uowFactory.NewUnitOfWork(ctx), req.Code, req.BasePrice, req.PlanCode)
	if err != nil {
		return nil, err
	}
	return toApplicationResponse(result), nil
}

// Apply consumes a use outside of a purchase, for flows that price on their own.
func (s *couponService) Apply(ctx context.Context, req dto.ApplyCouponRequest) (*dto.CouponApplicationResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	result, err := s.ledger.Apply(ctx, uow, req.Code, req.BasePrice, req.PlanCode)
	if err != nil {
		logFailure(s.logger, "COUPON", "Coupon rejected", err, map[string]interface{}{"code": req.Code})
		return nil, err
	}
	s.logger.Info("COUPON", "Coupon applied", map[string]interface{}{
		"code":     result.Coupon.Code,
		"discount": result.Discount.String(),
		"uses":     result.Coupon.CurrentUses,
	})
	return toApplicationResponse(result), nil
}

func (s *couponService) Create(ctx context.Context, req dto.CreateCouponRequest) (*dto.CouponResponse, error) {
	var created *entity.Coupon
	err := inTx(ctx, s.uowFactory, s.locker, couponLockKey(req.Code), func(uow unitofwork.UnitOfWork) (err error) {
		created, err = s.manager.Create(ctx, uow, req)
		return err
	})
	if err != nil {
		logFailure(s.logger, "COUPON", "Failed to create coupon", err, map[string]interface{}{"code": req.Code})
		return nil, err
	}
	s.logger.Info("COUPON", "Coupon created", map[string]interface{}{"code": created.Code, "type": string(created.Type)})
	return toCouponResponse(created), nil
}

func (s *couponService) Update(ctx context.Context, code string, req dto.UpdateCouponRequest) (*dto.CouponResponse, error) {
	var updated *entity.Coupon
	err := inTx(ctx, s.uowFactory, s.locker, couponLockKey(code), func(uow unitofwork.UnitOfWork) (err error) {
		updated, err = s.manager.Update(ctx, uow, code, req)
		return err
	})
	if err != nil {
		logFailure(s.logger, "COUPON", "Failed to update coupon", err, map[string]interface{}{"code": code})
		return nil, err
	}
	return toCouponResponse(updated), nil
}

func (s *couponService) Deactivate(ctx context.Context, code string) (*dto.CouponResponse, error) {
	var updated *entity.Coupon
	err := inTx(ctx, s.uowFactory, s.locker, couponLockKey(code), func(uow unitofwork.UnitOfWork) (err error) {
		updated, err = s.manager.Deactivate(ctx, uow, code)
		return err
	})
	if err != nil {
		logFailure(s.logger, "COUPON", "Failed to deactivate coupon", err, map[string]interface{}{"code": code})
		return nil, err
	}
	s.logger.Info("COUPON", "Coupon deactivated", map[string]interface{}{"code": updated.Code})
	return toCouponResponse(updated), nil
}

func (s *couponService) Get(ctx context.Context, code string) (*dto.CouponResponse, error) {
	c, err := s.manager.GetByCode(ctx, s.uowFactory.NewUnitOfWork(ctx), code)
	if err != nil {
		return nil, err
	}
	return toCouponResponse(c), nil
}

func (s *couponService) List(ctx context.Context, req dto.CouponListRequest) (*dto.ListResponse[dto.CouponResponse], error) {
	coupons, total, err := s.manager.List(ctx, s.uowFactory.NewUnitOfWork(ctx), req)
	if err != nil {
		return nil, err
	}
	page, limit := pageOf(req.Page, req.Limit)
	return listResponse(coupons, total, page, limit, toCouponResponse), nil
}

func toApplicationResponse(r *coupon.ApplicationResult) *dto.CouponApplicationResponse {
	out := &dto.CouponApplicationResponse{
		Code:       r.Coupon.Code,
		Type:       string(r.Coupon.Type),
		BasePrice:  r.BasePrice,
		Discount:   r.Discount,
		FinalPrice: r.FinalPrice,
		Consumed:   r.Consumed,
	}
	if r.AssignedPlan != nil {
		out.AssignedPlanCode = r.AssignedPlan.Code
		out.AssignedVariantDays = r.AssignedVariant.Days
	}
	return out
}
