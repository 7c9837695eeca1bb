package controller

import (
	"listing-billing-be/internal/apperror"
	"listing-billing-be/internal/dto"
	"listing-billing-be/internal/pkg/serverutils"
	"listing-billing-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICouponController interface {
	RegisterRoutes(api fiber.Router, admin fiber.Router)
}

type couponController struct {
	service service.ICouponService
	limiter *serverutils.RateLimiter
}

func NewCouponController(service service.ICouponService, limiter *serverutils.RateLimiter) ICouponController {
	return &couponController{service: service, limiter: limiter}
}

func (c *couponController) RegisterRoutes(api fiber.Router, admin fiber.Router) {
	// Public coupon checks are throttled per client to slow down code guessing.
	limited := c.limiter.Middleware()
	api.Post("/coupons/quote", limited, c.Quote)
	api.Post("/coupons/apply", limited, c.Apply)

	admin.Get("/coupons", c.List)
	admin.Post("/coupons", c.Create)
	admin.Get("/coupons/:code", c.Get)
	admin.Put("/coupons/:code", c.Update)
	admin.Delete("/coupons/:code", c.Deactivate)
}

// Quote prices a coupon without using it up.
func (c *couponController) Quote(ctx *fiber.Ctx) error {
	var req dto.ApplyCouponRequest
	if err := serverutils.BindJSON(ctx, &req); err != nil {
		return err
	}
	res, err := c.service.Quote(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Coupon quoted", res))
}

// Apply prices a coupon and consumes one use.
func (c *couponController) Apply(ctx *fiber.Ctx) error {
	var req dto.ApplyCouponRequest
	if err := serverutils.BindJSON(ctx, &req); err != nil {
		return err
	}
	res, err := c.service.Apply(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Coupon applied", res))
}

func (c *couponController) List(ctx *fiber.Ctx) error {
	var req dto.CouponListRequest
	if err := ctx.QueryParser(&req); err != nil {
		return apperror.Validation("query", "invalid query parameters")
	}
	res, err := c.service.List(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Coupons retrieved", res))
}

func (c *couponController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateCouponRequest
	if err := serverutils.BindJSON(ctx, &req); err != nil {
		return err
	}
	res, err := c.service.Create(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Coupon created", res))
}

func (c *couponController) Get(ctx *fiber.Ctx) error {
	res, err := c.service.Get(ctx.Context(), ctx.Params("code"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Coupon retrieved", res))
}

func (c *couponController) Update(ctx *fiber.Ctx) error {
	var req dto.UpdateCouponRequest
	if err := serverutils.BindJSON(ctx, &req); err != nil {
		return err
	}
	res, err := c.service.Update(ctx.Context(), ctx.Params("code"), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Coupon updated", res))
}

// Deactivate keeps the coupon for invoice history and only switches it off.
func (c *couponController) Deactivate(ctx *fiber.Ctx) error {
	res, err := c.service.Deactivate(ctx.Context(), ctx.Params("code"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Coupon deactivated", res))
}
