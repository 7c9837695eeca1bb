package controller

import (
	"strconv"

	"listing-billing-be/internal/apperror"
	"listing-billing-be/internal/dto"
	"listing-billing-be/internal/pkg/serverutils"
	"listing-billing-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICatalogController interface {
	RegisterRoutes(api fiber.Router, admin fiber.Router)
}

type catalogController struct {
	service service.ICatalogService
}

func NewCatalogController(service service.ICatalogService) ICatalogController {
	return &catalogController{service: service}
}

func (c *catalogController) RegisterRoutes(api fiber.Router, admin fiber.Router) {
	api.Get("/plans", c.ListPlans)
	api.Get("/plans/levels/:level", c.ListPlansByLevel)
	api.Get("/plans/:code", c.GetPlan)
	api.Get("/plans/:code/upgrade-report", c.GetPlanUpgradeReport)
	api.Get("/upgrades", c.ListUpgrades)
	api.Get("/upgrades/:code", c.GetUpgrade)
	api.Get("/upgrades/:code/tree", c.GetUpgradeTree)
	api.Get("/upgrades/:code/validate", c.ValidateUpgrade)

	admin.Get("/plans", c.AdminListPlans)
	admin.Post("/plans", c.CreatePlan)
	admin.Get("/plans/:id", c.AdminGetPlan)
	admin.Put("/plans/:id", c.UpdatePlan)
	admin.Delete("/plans/:id", c.DeletePlan)
	admin.Get("/upgrades", c.AdminListUpgrades)
	admin.Post("/upgrades", c.CreateUpgrade)
	admin.Get("/upgrades/:id", c.AdminGetUpgrade)
	admin.Put("/upgrades/:id", c.UpdateUpgrade)
	admin.Delete("/upgrades/:id", c.DeleteUpgrade)
	admin.Get("/catalog/graph", c.CheckGraph)
}

func parseList(ctx *fiber.Ctx) (dto.ListRequest, error) {
	var req dto.ListRequest
	if err := ctx.QueryParser(&req); err != nil {
		return req, apperror.Validation("query", "invalid query parameters")
	}
	return req, nil
}

// @Summary List active plans
// @Tags Catalog
// @Produce json
// @Router /api/plans [get]
func (c *catalogController) ListPlans(ctx *fiber.Ctx) error {
	req, err := parseList(ctx)
	if err != nil {
		return err
	}
	res, err := c.service.ListPlans(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Plans retrieved", res))
}

func (c *catalogController) ListPlansByLevel(ctx *fiber.Ctx) error {
	level, err := strconv.Atoi(ctx.Params("level"))
	if err != nil {
		return apperror.Validation("level", "must be an integer")
	}
	res, err := c.service.ListPlansByLevel(ctx.Context(), level)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Plans retrieved", res))
}

func (c *catalogController) GetPlan(ctx *fiber.Ctx) error {
	res, err := c.service.GetPlan(ctx.Context(), ctx.Params("code"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Plan retrieved", res))
}

// GetPlanUpgradeReport lists which bundled upgrades of a plan are missing a
// usable prerequisite.
func (c *catalogController) GetPlanUpgradeReport(ctx *fiber.Ctx) error {
	res, err := c.service.GetPlanUpgradeReport(ctx.Context(), ctx.Params("code"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Plan upgrade report", res))
}

func (c *catalogController) ListUpgrades(ctx *fiber.Ctx) error {
	req, err := parseList(ctx)
	if err != nil {
		return err
	}
	res, err := c.service.ListUpgrades(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Upgrades retrieved", res))
}

func (c *catalogController) GetUpgrade(ctx *fiber.Ctx) error {
	res, err := c.service.GetUpgrade(ctx.Context(), ctx.Params("code"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Upgrade retrieved", res))
}

func (c *catalogController) GetUpgradeTree(ctx *fiber.Ctx) error {
	res, err := c.service.GetUpgradeTree(ctx.Context(), ctx.Params("code"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Upgrade tree", res))
}

func (c *catalogController) ValidateUpgrade(ctx *fiber.Ctx) error {
	res, err := c.service.ValidateUpgrade(ctx.Context(), ctx.Params("code"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Upgrade dependency report", res))
}

// --- Admin ---

func (c *catalogController) AdminListPlans(ctx *fiber.Ctx) error {
	req, err := parseList(ctx)
	if err != nil {
		return err
	}
	res, err := c.service.AdminListPlans(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Plans retrieved", res))
}

func (c *catalogController) AdminGetPlan(ctx *fiber.Ctx) error {
	id, err := serverutils.UUIDParam(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.service.AdminGetPlan(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Plan retrieved", res))
}

func (c *catalogController) CreatePlan(ctx *fiber.Ctx) error {
	var req dto.CreatePlanRequest
	if err := serverutils.BindJSON(ctx, &req); err != nil {
		return err
	}
	res, err := c.service.CreatePlan(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Plan created", res))
}

func (c *catalogController) UpdatePlan(ctx *fiber.Ctx) error {
	id, err := serverutils.UUIDParam(ctx, "id")
	if err != nil {
		return err
	}
	var req dto.UpdatePlanRequest
	if err := serverutils.BindJSON(ctx, &req); err != nil {
		return err
	}
	res, err := c.service.UpdatePlan(ctx.Context(), id, req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Plan updated", res))
}

func (c *catalogController) DeletePlan(ctx *fiber.Ctx) error {
	id, err := serverutils.UUIDParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := c.service.DeletePlan(ctx.Context(), id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Plan deleted", nil))
}

func (c *catalogController) AdminListUpgrades(ctx *fiber.Ctx) error {
	req, err := parseList(ctx)
	if err != nil {
		return err
	}
	res, err := c.service.AdminListUpgrades(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Upgrades retrieved", res))
}

func (c *catalogController) AdminGetUpgrade(ctx *fiber.Ctx) error {
	id, err := serverutils.UUIDParam(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.service.AdminGetUpgrade(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Upgrade retrieved", res))
}

func (c *catalogController) CreateUpgrade(ctx *fiber.Ctx) error {
	var req dto.CreateUpgradeRequest
	if err := serverutils.BindJSON(ctx, &req); err != nil {
		return err
	}
	res, err := c.service.CreateUpgrade(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Upgrade created", res))
}

func (c *catalogController) UpdateUpgrade(ctx *fiber.Ctx) error {
	id, err := serverutils.UUIDParam(ctx, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateUpgradeRequest
	if err := serverutils.BindJSON(ctx, &req); err != nil {
		return err
	}
	res, err := c.service.UpdateUpgrade(ctx.Context(), id, req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Upgrade updated", res))
}

func (c *catalogController) DeleteUpgrade(ctx *fiber.Ctx) error {
	id, err := serverutils.UUIDParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := c.service.DeleteUpgrade(ctx.Context(), id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Upgrade deleted", nil))
}

// CheckGraph returns the stored upgrade graph in topological order, or a
// cycle error when the graph has been corrupted.
func (c *catalogController) CheckGraph(ctx *fiber.Ctx) error {
	order, err := c.service.CheckGraph(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Upgrade graph is acyclic", fiber.Map{"order": order}))
}
