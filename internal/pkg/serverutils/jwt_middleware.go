package serverutils

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

func parseClaims(ctx *fiber.Ctx, secret string) (jwt.MapClaims, *Response) {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		resp := ErrorResponse(fiber.StatusUnauthorized, "Missing or invalid authorization header")
		return nil, &resp
	}

	token, err := jwt.Parse(authHeader[7:], func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || token == nil || !token.Valid {
		resp := ErrorResponse(fiber.StatusUnauthorized, "Invalid or expired token")
		return nil, &resp
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		resp := ErrorResponse(fiber.StatusUnauthorized, "Invalid token claims")
		return nil, &resp
	}
	return claims, nil
}

// JwtMiddleware accepts any valid token and exposes user_id and role.
func JwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		claims, fail := parseClaims(ctx, secret)
		if fail != nil {
			return ctx.Status(fail.Status).JSON(fail)
		}
		ctx.Locals("user_id", claims["user_id"])
		ctx.Locals("role", claims["role"])
		return ctx.Next()
	}
}

// AdminMiddleware additionally requires the role claim to be "admin".
func AdminMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		claims, fail := parseClaims(ctx, secret)
		if fail != nil {
			return ctx.Status(fail.Status).JSON(fail)
		}
		role, ok := claims["role"].(string)
		if !ok {
			return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(fiber.StatusForbidden, "Access denied: Role missing"))
		}
		if role != "admin" {
			return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(fiber.StatusForbidden, "Access denied: Admins only"))
		}
		ctx.Locals("user_id", claims["user_id"])
		ctx.Locals("role", role)
		return ctx.Next()
	}
}
