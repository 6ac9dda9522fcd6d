package controller

import (
	"github.com/gofiber/fiber/v2"

	"katiba-reader-be/internal/dto"
	"katiba-reader-be/internal/pkg/serverutils"
	"katiba-reader-be/internal/service"
)

type IConstitutionController interface {
	RegisterRoutes(r fiber.Router)
}

type constitutionController struct {
	constitution service.IConstitutionService
	analytics    service.IAnalyticsService
}

func NewConstitutionController(
	constitution service.IConstitutionService,
	analytics service.IAnalyticsService,
) IConstitutionController {
	return &constitutionController{
		constitution: constitution,
		analytics:    analytics,
	}
}

func (c *constitutionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/constitution/v1")

	h.Get("", c.Overview)
	h.Get("search", c.Search)
	h.Get("search/suggestions", c.Suggestions)
	h.Get("network", c.ContentNetwork)
	h.Get("popular", c.Popular)
	h.Post("views", c.TrackView)
	h.Post("reload", c.Reload)
	h.Get("file-info", c.FileInfo)
	h.Get("integrity", c.ValidateIntegrity)

	h.Get("chapters/:number", c.GetChapter)
	h.Get("chapters/:number/relationships", c.ChapterRelationships)
	h.Get("articles/:ref", c.GetArticle)
	h.Get("articles/:ref/related", c.RelatedArticles)
	h.Get("articles/:ref/recommendations", c.ArticleRecommendations)
	h.Get("recommendations/:user_id", c.Recommendations)
}

func (c *constitutionController) Overview(ctx *fiber.Ctx) error {
	res, err := c.constitution.Overview(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get constitution overview", res))
}

func (c *constitutionController) Search(ctx *fiber.Ctx) error {
	var req dto.SearchRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid search parameters")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.constitution.Search(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success search constitution", res))
}

func (c *constitutionController) Suggestions(ctx *fiber.Ctx) error {
	res, err := c.constitution.Suggestions(ctx.Context(), ctx.Query("q"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get suggestions", res))
}

func (c *constitutionController) GetChapter(ctx *fiber.Ctx) error {
	number, err := ctx.ParamsInt("number")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "chapter number must be an integer")
	}

	res, err := c.constitution.GetChapter(ctx.Context(), number)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get chapter", res))
}

func (c *constitutionController) ChapterRelationships(ctx *fiber.Ctx) error {
	number, err := ctx.ParamsInt("number")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "chapter number must be an integer")
	}

	res, err := c.constitution.ChapterRelationships(ctx.Context(), number)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get chapter relationships", res))
}

func (c *constitutionController) GetArticle(ctx *fiber.Ctx) error {
	res, err := c.constitution.GetArticle(ctx.Context(), ctx.Params("ref"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get article", res))
}

func (c *constitutionController) RelatedArticles(ctx *fiber.Ctx) error {
	res, err := c.constitution.RelatedArticles(ctx.Context(), ctx.Params("ref"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get related articles", res))
}

func (c *constitutionController) ArticleRecommendations(ctx *fiber.Ctx) error {
	res, err := c.constitution.RecommendationsForArticle(ctx.Context(), ctx.Params("ref"), ctx.QueryInt("limit", 10))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get article recommendations", res))
}

func (c *constitutionController) Recommendations(ctx *fiber.Ctx) error {
	res, err := c.constitution.Recommendations(ctx.Context(), ctx.Params("user_id"), ctx.QueryInt("limit", 10))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get recommendations", res))
}

func (c *constitutionController) ContentNetwork(ctx *fiber.Ctx) error {
	res, err := c.constitution.ContentNetwork(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get content network", res))
}

func (c *constitutionController) Popular(ctx *fiber.Ctx) error {
	res, err := c.analytics.PopularArticles(ctx.Context(), ctx.Query("timeframe", "weekly"), ctx.QueryInt("limit", 10))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get popular articles", res))
}

func (c *constitutionController) TrackView(ctx *fiber.Ctx) error {
	var req dto.TrackViewRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.analytics.TrackView(ctx.Context(), &req); err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse[any]("View tracked", nil))
}

func (c *constitutionController) Reload(ctx *fiber.Ctx) error {
	res, err := c.constitution.Reload(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success reload constitution data", res))
}

func (c *constitutionController) FileInfo(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get file info", c.constitution.FileInfo()))
}

func (c *constitutionController) ValidateIntegrity(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success validate constitution data", c.constitution.ValidateIntegrity(ctx.Context())))
}
