package controller

import (
	"github.com/filezingme/BibiChat-sub000/internal/dto"
	"github.com/filezingme/BibiChat-sub000/internal/pkg/apperror"
	"github.com/filezingme/BibiChat-sub000/internal/pkg/serverutils"
	"github.com/filezingme/BibiChat-sub000/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDirectMessageController interface {
	RegisterRoutes(r fiber.Router)
	Send(ctx *fiber.Ctx) error
	React(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	Conversations(ctx *fiber.Ctx) error
	UnreadCount(ctx *fiber.Ctx) error
}

type directMessageController struct {
	service service.IDirectMessageService
	auth    fiber.Handler
}

func NewDirectMessageController(service service.IDirectMessageService, auth fiber.Handler) IDirectMessageController {
	return &directMessageController{service: service, auth: auth}
}

func (c *directMessageController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/dm")
	h.Use(c.auth)
	h.Post("", c.Send)
	h.Post("/messages/:id/reactions", c.React)
	h.Get("/conversations", c.Conversations)
	h.Get("/unread-count", c.UnreadCount)
	h.Get("/:peerId/history", c.History)
}

func (c *directMessageController) Send(ctx *fiber.Ctx) error {
	viewer, err := currentViewer(ctx)
	if err != nil {
		return err
	}

	var req dto.SendDirectMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Send(ctx.UserContext(), viewer.UserID, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success send message", res))
}

func (c *directMessageController) React(ctx *fiber.Ctx) error {
	viewer, err := currentViewer(ctx)
	if err != nil {
		return err
	}

	var req dto.ReactRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.React(ctx.UserContext(), viewer.UserID, ctx.Params("id"), req.Emoji)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success toggle reaction", res))
}

func (c *directMessageController) History(ctx *fiber.Ctx) error {
	viewer, err := currentViewer(ctx)
	if err != nil {
		return err
	}
	peerID, err := uuidParam(ctx, "peerId")
	if err != nil {
		return err
	}

	res, err := c.service.History(ctx.UserContext(), viewer.UserID, peerID, pageQuery(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *directMessageController) Conversations(ctx *fiber.Ctx) error {
	viewer, err := currentViewer(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Conversations(ctx.UserContext(), viewer.UserID, pageQuery(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *directMessageController) UnreadCount(ctx *fiber.Ctx) error {
	viewer, err := currentViewer(ctx)
	if err != nil {
		return err
	}

	count, err := c.service.UnreadCount(ctx.UserContext(), viewer.UserID)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get unread count", dto.CountResponse{Count: count}))
}
