package controller

import (
	"github.com/filezingme/BibiChat-sub000/internal/dto"
	"github.com/filezingme/BibiChat-sub000/internal/pkg/serverutils"
	"github.com/filezingme/BibiChat-sub000/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatLogController interface {
	RegisterRoutes(r fiber.Router)
	ListSessions(ctx *fiber.Ctx) error
	Messages(ctx *fiber.Ctx) error
}

type chatLogController struct {
	service service.IChatLogService
	auth    fiber.Handler
}

func NewChatLogController(service service.IChatLogService, auth fiber.Handler) IChatLogController {
	return &chatLogController{service: service, auth: auth}
}

func (c *chatLogController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat-logs")
	h.Use(c.auth)
	h.Get("/sessions", c.ListSessions)
	h.Get("/sessions/:sessionId/messages", c.Messages)
}

func (c *chatLogController) ListSessions(ctx *fiber.Ctx) error {
	viewer, err := currentViewer(ctx)
	if err != nil {
		return err
	}

	var q dto.ListSessionsQuery
	if err := ctx.QueryParser(&q); err != nil {
		return err
	}

	res, err := c.service.ListSessions(ctx.UserContext(), viewer, q)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *chatLogController) Messages(ctx *fiber.Ctx) error {
	viewer, err := currentViewer(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Messages(ctx.UserContext(), viewer, ctx.Params("sessionId"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get session messages", res))
}
