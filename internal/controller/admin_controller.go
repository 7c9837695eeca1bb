package controller

import (
	"listing-billing-be/internal/apperror"
	"listing-billing-be/internal/dto"
	"listing-billing-be/internal/pkg/serverutils"
	"listing-billing-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(admin fiber.Router)
}

type adminController struct {
	service  service.IAdminService
	invoices service.IInvoiceService
}

func NewAdminController(service service.IAdminService, invoices service.IInvoiceService) IAdminController {
	return &adminController{service: service, invoices: invoices}
}

func (c *adminController) RegisterRoutes(admin fiber.Router) {
	admin.Post("/invoices/:id/pay", c.MarkPaid)
	admin.Post("/invoices/:id/cancel", c.Cancel)
	admin.Post("/invoices/:id/expire", c.Expire)
	admin.Post("/invoices/expire-overdue", c.ExpireOverdue)

	admin.Get("/logs", c.GetLogs)
	admin.Get("/logs/:id", c.GetLogDetail)
}

// MarkPaid settles a pending invoice and grants its entitlements.
func (c *adminController) MarkPaid(ctx *fiber.Ctx) error {
	id, err := serverutils.UUIDParam(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.invoices.MarkPaid(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Invoice paid", res))
}

func (c *adminController) Cancel(ctx *fiber.Ctx) error {
	id, err := serverutils.UUIDParam(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.invoices.Cancel(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Invoice cancelled", res))
}

func (c *adminController) Expire(ctx *fiber.Ctx) error {
	id, err := serverutils.UUIDParam(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.invoices.Expire(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Invoice expired", res))
}

// ExpireOverdue runs one sweep batch on demand, outside the cron schedule.
func (c *adminController) ExpireOverdue(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", 200)
	if limit <= 0 {
		return apperror.Validation("limit", "must be greater than 0")
	}
	n, err := c.invoices.ExpireOverdue(ctx.Context(), limit)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Overdue invoices expired", dto.ExpireOverdueResponse{Expired: n}))
}

func (c *adminController) GetLogs(ctx *fiber.Ctx) error {
	var req dto.LogListRequest
	if err := ctx.QueryParser(&req); err != nil {
		return apperror.Validation("query", "invalid query parameters")
	}
	logs, err := c.service.GetSystemLogs(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("System logs", logs))
}

func (c *adminController) GetLogDetail(ctx *fiber.Ctx) error {
	// Log ids are MD5 hashes, not UUIDs.
	l, err := c.service.GetLogDetail(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Log detail", l))
}
