package controller

import (
	"github.com/filezingme/BibiChat-sub000/internal/dto"
	"github.com/filezingme/BibiChat-sub000/internal/entity"
	"github.com/filezingme/BibiChat-sub000/internal/pkg/apperror"
	"github.com/filezingme/BibiChat-sub000/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func currentViewer(ctx *fiber.Ctx) (entity.Viewer, error) {
	identity, err := serverutils.CurrentIdentity(ctx)
	if err != nil {
		return entity.Viewer{}, err
	}
	return entity.Viewer{UserID: identity.UserID, Role: entity.UserRole(identity.Role)}, nil
}

func pageQuery(ctx *fiber.Ctx) dto.PageQuery {
	return dto.PageQuery{
		Page:  ctx.QueryInt("page", 1),
		Limit: ctx.QueryInt("limit", dto.DefaultPageLimit),
	}.Normalize()
}

func uuidParam(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, apperror.Validation(name + " must be a valid id")
	}
	return id, nil
}
