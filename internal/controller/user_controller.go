package controller

import (
	"ai-tutor-be/internal/pkg/serverutils"
	"ai-tutor-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IUserController interface {
	RegisterRoutes(r fiber.Router)
	Statistics(ctx *fiber.Ctx) error
}

type userController struct {
	userService service.IUserService
	auth        *serverutils.AuthMiddleware
}

func NewUserController(userService service.IUserService, auth *serverutils.AuthMiddleware) IUserController {
	return &userController{
		userService: userService,
		auth:        auth,
	}
}

func (c *userController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/user/v1")
	h.Use(c.auth.Handler())
	h.Get("statistics", c.Statistics)
}

func (c *userController) Statistics(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}

	res, err := c.userService.GetStatistics(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "Success", res)
}
