package serverutils

import (
	"listing-billing-be/internal/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// UUIDParam parses a path parameter as a uuid.
func UUIDParam(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, apperror.Validation(name, "must be a valid uuid")
	}
	return id, nil
}

// UserID returns the authenticated user's id, or uuid.Nil when the token
// carried none.
func UserID(ctx *fiber.Ctx) uuid.UUID {
	raw, ok := ctx.Locals("user_id").(string)
	if !ok {
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}
