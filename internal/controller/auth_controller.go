package controller

import (
	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/pkg/serverutils"
	"ai-tutor-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	Register(ctx *fiber.Ctx) error
	Login(ctx *fiber.Ctx) error
	Logout(ctx *fiber.Ctx) error
	Me(ctx *fiber.Ctx) error
}

type authController struct {
	authService service.IAuthService
	auth        *serverutils.AuthMiddleware
}

func NewAuthController(authService service.IAuthService, auth *serverutils.AuthMiddleware) IAuthController {
	return &authController{
		authService: authService,
		auth:        auth,
	}
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth/v1")
	h.Post("register", c.Register)
	h.Post("login", c.Login)
	h.Post("logout", c.auth.Handler(), c.Logout)
	h.Get("me", c.auth.Handler(), c.Me)
}

func (c *authController) Register(ctx *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := serverutils.ValidateRequest(ctx, &req); err != nil {
		return err
	}

	res, err := c.authService.Register(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return serverutils.SuccessResponse(ctx, fiber.StatusCreated, "Account created", res)
}

func (c *authController) Login(ctx *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := serverutils.ValidateRequest(ctx, &req); err != nil {
		return err
	}

	res, err := c.authService.Login(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "Logged in", res)
}

func (c *authController) Logout(ctx *fiber.Ctx) error {
	rawToken, _ := ctx.Locals("token").(string)
	if err := c.authService.Logout(ctx.Context(), rawToken); err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "Logged out", nil)
}

func (c *authController) Me(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}

	res, err := c.authService.Me(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "Success", res)
}
