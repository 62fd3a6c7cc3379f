// FILE: internal/pkg/serverutils/jwt_middleware.go
package serverutils

import (
	"github.com/filezingme/BibiChat-sub000/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	localsUserID = "user_id"
	localsRole   = "role"
)

// NewJwtMiddleware authenticates REST calls with the same credential used at socket handshake.
func NewJwtMiddleware(tokens *TokenManager) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
		}

		identity, err := tokens.Parse(authHeader[7:])
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
		}

		ctx.Locals(localsUserID, identity.UserID.String())
		ctx.Locals(localsRole, identity.Role)
		return ctx.Next()
	}
}

// CurrentIdentity reads the identity stored by the JWT middleware.
func CurrentIdentity(ctx *fiber.Ctx) (Identity, error) {
	userIDStr, ok := ctx.Locals(localsUserID).(string)
	if !ok {
		return Identity{}, apperror.Auth("Unauthorized")
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return Identity{}, apperror.Auth("Invalid user ID")
	}
	role, _ := ctx.Locals(localsRole).(string)
	return Identity{UserID: userID, Role: role}, nil
}

// RequireRole rejects callers whose token role differs from role.
func RequireRole(role string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if r, _ := ctx.Locals(localsRole).(string); r != role {
			return apperror.Forbidden("insufficient role")
		}
		return ctx.Next()
	}
}
