package controller

import (
	"github.com/filezingme/BibiChat-sub000/internal/dto"
	"github.com/filezingme/BibiChat-sub000/internal/pkg/serverutils"
	"github.com/filezingme/BibiChat-sub000/internal/presence"

	"github.com/gofiber/fiber/v2"
)

type IPresenceController interface {
	RegisterRoutes(r fiber.Router)
	Show(ctx *fiber.Ctx) error
}

type presenceController struct {
	tracker *presence.Tracker
	auth    fiber.Handler
}

func NewPresenceController(tracker *presence.Tracker, auth fiber.Handler) IPresenceController {
	return &presenceController{tracker: tracker, auth: auth}
}

func (c *presenceController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/presence")
	h.Use(c.auth)
	h.Get("/:userId", c.Show)
}

func (c *presenceController) Show(ctx *fiber.Ctx) error {
	userID, err := uuidParam(ctx, "userId")
	if err != nil {
		return err
	}

	snap := c.tracker.Snapshot(userID)
	res := dto.PresenceResponse{
		UserID:            snap.UserID,
		Online:            snap.Online,
		ActiveConnections: snap.ActiveConnections,
	}
	if !snap.LastActiveAt.IsZero() {
		last := snap.LastActiveAt
		res.LastActiveAt = &last
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get presence", res))
}
