package controller

import (
	"listing-billing-be/internal/apperror"
	"listing-billing-be/internal/dto"
	"listing-billing-be/internal/pkg/serverutils"
	"listing-billing-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IPurchaseController interface {
	RegisterRoutes(user fiber.Router)
}

type purchaseController struct {
	purchases service.IPurchaseService
	invoices  service.IInvoiceService
}

func NewPurchaseController(purchases service.IPurchaseService, invoices service.IInvoiceService) IPurchaseController {
	return &purchaseController{purchases: purchases, invoices: invoices}
}

func (c *purchaseController) RegisterRoutes(user fiber.Router) {
	user.Post("/purchases/plan", c.PurchasePlan)
	user.Post("/purchases/renew", c.RenewPlan)
	user.Post("/purchases/upgrade", c.PurchaseUpgrade)

	user.Get("/invoices/:id", c.GetInvoice)
	user.Get("/profiles/:profileId/invoices", c.ListInvoices)
	user.Get("/profiles/:profileId/entitlements", c.Entitlements)
}

// bindPlan fills the purchaser from the token when the body names none.
func bindPlan(ctx *fiber.Ctx) (dto.PurchasePlanRequest, error) {
	var req dto.PurchasePlanRequest
	if err := serverutils.BindJSON(ctx, &req); err != nil {
		return req, err
	}
	if req.UserId == uuid.Nil {
		req.UserId = serverutils.UserID(ctx)
	}
	return req, nil
}

// @Summary Purchase a plan variant
// @Tags Purchases
// @Security BearerAuth
// @Router /api/user/purchases/plan [post]
func (c *purchaseController) PurchasePlan(ctx *fiber.Ctx) error {
	req, err := bindPlan(ctx)
	if err != nil {
		return err
	}
	res, err := c.purchases.PurchasePlan(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Invoice created", res))
}

func (c *purchaseController) RenewPlan(ctx *fiber.Ctx) error {
	req, err := bindPlan(ctx)
	if err != nil {
		return err
	}
	res, err := c.purchases.RenewPlan(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Renewal invoice created", res))
}

func (c *purchaseController) PurchaseUpgrade(ctx *fiber.Ctx) error {
	var req dto.PurchaseUpgradeRequest
	if err := serverutils.BindJSON(ctx, &req); err != nil {
		return err
	}
	if req.UserId == uuid.Nil {
		req.UserId = serverutils.UserID(ctx)
	}
	res, err := c.purchases.PurchaseUpgrade(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Invoice created", res))
}

func (c *purchaseController) GetInvoice(ctx *fiber.Ctx) error {
	id, err := serverutils.UUIDParam(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.invoices.Get(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Invoice retrieved", res))
}

func (c *purchaseController) ListInvoices(ctx *fiber.Ctx) error {
	profileId, err := serverutils.UUIDParam(ctx, "profileId")
	if err != nil {
		return err
	}
	var req dto.InvoiceListRequest
	if err := ctx.QueryParser(&req); err != nil {
		return apperror.Validation("query", "invalid query parameters")
	}
	res, err := c.invoices.ListByProfile(ctx.Context(), profileId, req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Invoices retrieved", res))
}

// Entitlements returns the profile's active grants; ?all=true includes
// lapsed ones.
func (c *purchaseController) Entitlements(ctx *fiber.Ctx) error {
	profileId, err := serverutils.UUIDParam(ctx, "profileId")
	if err != nil {
		return err
	}
	res, err := c.invoices.Entitlements(ctx.Context(), profileId, ctx.QueryBool("all", false))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Entitlements retrieved", res))
}
