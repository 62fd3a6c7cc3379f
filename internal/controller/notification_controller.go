package controller

import (
	"github.com/filezingme/BibiChat-sub000/internal/dto"
	"github.com/filezingme/BibiChat-sub000/internal/entity"
	"github.com/filezingme/BibiChat-sub000/internal/pkg/apperror"
	"github.com/filezingme/BibiChat-sub000/internal/pkg/serverutils"
	"github.com/filezingme/BibiChat-sub000/internal/service"

	"github.com/gofiber/fiber/v2"
)

type INotificationController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	UnreadCount(ctx *fiber.Ctx) error
	MarkRead(ctx *fiber.Ctx) error
	MarkAllRead(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	ListSent(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
}

type notificationController struct {
	service service.INotificationService
	auth    fiber.Handler
}

func NewNotificationController(service service.INotificationService, auth fiber.Handler) INotificationController {
	return &notificationController{service: service, auth: auth}
}

func (c *notificationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/notifications")
	h.Use(c.auth)
	h.Get("", c.List)
	h.Get("/unread-count", c.UnreadCount)
	h.Patch("/read-all", c.MarkAllRead)
	h.Patch("/:id/read", c.MarkRead)

	master := serverutils.RequireRole(string(entity.UserRoleMaster))
	h.Post("", master, c.Create)
	h.Get("/sent", master, c.ListSent)
	h.Delete("/:id", master, c.Cancel)
}

func (c *notificationController) List(ctx *fiber.Ctx) error {
	viewer, err := currentViewer(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.ListFor(ctx.UserContext(), viewer, pageQuery(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *notificationController) UnreadCount(ctx *fiber.Ctx) error {
	viewer, err := currentViewer(ctx)
	if err != nil {
		return err
	}

	count, err := c.service.UnreadCount(ctx.UserContext(), viewer)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get unread count", dto.CountResponse{Count: count}))
}

func (c *notificationController) MarkRead(ctx *fiber.Ctx) error {
	viewer, err := currentViewer(ctx)
	if err != nil {
		return err
	}
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	if err := c.service.MarkRead(ctx.UserContext(), viewer, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success mark notification read", nil))
}

func (c *notificationController) MarkAllRead(ctx *fiber.Ctx) error {
	viewer, err := currentViewer(ctx)
	if err != nil {
		return err
	}

	count, err := c.service.MarkAllRead(ctx.UserContext(), viewer)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success mark all notifications read", dto.CountResponse{Count: count}))
}

func (c *notificationController) Create(ctx *fiber.Ctx) error {
	viewer, err := currentViewer(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateNotificationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), viewer, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create notification", res))
}

func (c *notificationController) ListSent(ctx *fiber.Ctx) error {
	res, err := c.service.ListSent(ctx.UserContext(), pageQuery(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *notificationController) Cancel(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	if err := c.service.Cancel(ctx.UserContext(), id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success cancel notification", nil))
}
