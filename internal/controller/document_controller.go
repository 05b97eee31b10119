package controller

import (
	"ai-tutor-be/internal/pkg/serverutils"
	"ai-tutor-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
}

type documentController struct {
	documentService service.IDocumentService
	auth            *serverutils.AuthMiddleware
}

func NewDocumentController(documentService service.IDocumentService, auth *serverutils.AuthMiddleware) IDocumentController {
	return &documentController{
		documentService: documentService,
		auth:            auth,
	}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/document/v1")
	h.Use(c.auth.Handler())
	h.Post(":sessionId/upload", c.Upload)
	h.Get(":sessionId", c.List)
}

// Upload accepts multipart files under the "files" field ("file" works too,
// for single-document clients) and answers 202: indexing happens in the
// background and completion arrives over the websocket.
func (c *documentController) Upload(ctx *fiber.Ctx) error {
	userId, sessionId, err := chatScope(ctx)
	if err != nil {
		return err
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		return serverutils.NewHttpError(fiber.StatusBadRequest, "Expected a multipart upload")
	}
	files := form.File["files"]
	if len(files) == 0 {
		files = form.File["file"]
	}
	if len(files) == 0 {
		return serverutils.NewHttpError(fiber.StatusBadRequest, "Missing file upload field 'files'")
	}

	res, err := c.documentService.Upload(ctx.Context(), userId, sessionId, files)
	if err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusAccepted, "Documents queued for indexing", res)
}

func (c *documentController) List(ctx *fiber.Ctx) error {
	userId, sessionId, err := chatScope(ctx)
	if err != nil {
		return err
	}

	res, err := c.documentService.GetDocuments(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "Success", res)
}
