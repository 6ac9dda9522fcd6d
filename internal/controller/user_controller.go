package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"katiba-reader-be/internal/dto"
	"katiba-reader-be/internal/pkg/serverutils"
	"katiba-reader-be/internal/service"
)

type IUserController interface {
	RegisterRoutes(r fiber.Router)
}

type userController struct {
	progress service.IProgressService
}

func NewUserController(progress service.IProgressService) IUserController {
	return &userController{
		progress: progress,
	}
}

func (c *userController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/user/v1/:user_id")

	h.Put("progress", c.UpdateProgress)
	h.Get("progress", c.History)
	h.Post("bookmarks", c.AddBookmark)
	h.Get("bookmarks", c.Bookmarks)
	h.Delete("bookmarks/:ref", c.RemoveBookmark)
}

func parseUserID(ctx *fiber.Ctx) (uuid.UUID, error) {
	userID, err := uuid.Parse(ctx.Params("user_id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}
	return userID, nil
}

func (c *userController) UpdateProgress(ctx *fiber.Ctx) error {
	userID, err := parseUserID(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateProgressRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.progress.UpdateProgress(ctx.Context(), userID, &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success update reading progress", nil))
}

func (c *userController) History(ctx *fiber.Ctx) error {
	userID, err := parseUserID(ctx)
	if err != nil {
		return err
	}

	res, err := c.progress.History(ctx.Context(), userID, ctx.QueryInt("limit", 10), ctx.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get reading progress", res))
}

func (c *userController) AddBookmark(ctx *fiber.Ctx) error {
	userID, err := parseUserID(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateBookmarkRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.progress.AddBookmark(ctx.Context(), userID, &req); err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse[any]("Success add bookmark", nil))
}

func (c *userController) Bookmarks(ctx *fiber.Ctx) error {
	userID, err := parseUserID(ctx)
	if err != nil {
		return err
	}

	res, err := c.progress.Bookmarks(ctx.Context(), userID)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get bookmarks", res))
}

func (c *userController) RemoveBookmark(ctx *fiber.Ctx) error {
	userID, err := parseUserID(ctx)
	if err != nil {
		return err
	}

	if err := c.progress.RemoveBookmark(ctx.Context(), userID, ctx.Params("ref")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success remove bookmark", nil))
}
