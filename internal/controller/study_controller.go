package controller

import (
	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/pkg/serverutils"
	"ai-tutor-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IStudyController interface {
	RegisterRoutes(r fiber.Router)
	GenerateNotes(ctx *fiber.Ctx) error
	GetNotes(ctx *fiber.Ctx) error
	GenerateMCQs(ctx *fiber.Ctx) error
	GetMCQs(ctx *fiber.Ctx) error
}

type studyController struct {
	studyService service.IStudyService
	auth         *serverutils.AuthMiddleware
}

func NewStudyController(studyService service.IStudyService, auth *serverutils.AuthMiddleware) IStudyController {
	return &studyController{
		studyService: studyService,
		auth:         auth,
	}
}

func (c *studyController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/study/v1")
	h.Use(c.auth.Handler())
	h.Post(":sessionId/notes", c.GenerateNotes)
	h.Get(":sessionId/notes", c.GetNotes)
	h.Post(":sessionId/mcqs", c.GenerateMCQs)
	h.Get(":sessionId/mcqs", c.GetMCQs)
}

func (c *studyController) GenerateNotes(ctx *fiber.Ctx) error {
	userId, sessionId, err := chatScope(ctx)
	if err != nil {
		return err
	}

	res, err := c.studyService.GenerateNotes(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusCreated, "Notes generated", res)
}

func (c *studyController) GetNotes(ctx *fiber.Ctx) error {
	userId, sessionId, err := chatScope(ctx)
	if err != nil {
		return err
	}

	res, err := c.studyService.GetArtifact(ctx.Context(), userId, sessionId, entity.ArtifactTypeNotes)
	if err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "Success", res)
}

func (c *studyController) GenerateMCQs(ctx *fiber.Ctx) error {
	userId, sessionId, err := chatScope(ctx)
	if err != nil {
		return err
	}

	res, err := c.studyService.GenerateMCQs(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusCreated, "Quiz generated", res)
}

func (c *studyController) GetMCQs(ctx *fiber.Ctx) error {
	userId, sessionId, err := chatScope(ctx)
	if err != nil {
		return err
	}

	res, err := c.studyService.GetArtifact(ctx.Context(), userId, sessionId, entity.ArtifactTypeMCQs)
	if err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "Success", res)
}
