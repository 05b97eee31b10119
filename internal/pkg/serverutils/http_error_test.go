package serverutils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quietLogger struct{}

func (quietLogger) Debug(string, string, map[string]interface{}) {}
func (quietLogger) Info(string, string, map[string]interface{})  {}
func (quietLogger) Warn(string, string, map[string]interface{})  {}
func (quietLogger) Error(string, string, map[string]interface{}) {}
func (quietLogger) Sync() error                                  { return nil }

func newErrorApp(err error) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(quietLogger{})})
	app.Get("/boom", func(*fiber.Ctx) error { return err })
	return app
}

type envelope struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func doRequest(t *testing.T, app *fiber.App) (int, envelope) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(body, &env))
	return resp.StatusCode, env
}

func TestErrorHandlerMapsTypedErrors(t *testing.T) {
	status, env := doRequest(t, newErrorApp(NewHttpError(fiber.StatusUnauthorized, "Invalid credentials")))
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.False(t, env.Success)
	assert.Equal(t, "Invalid credentials", env.Message)

	status, env = doRequest(t, newErrorApp(NewHttpError(fiber.StatusConflict, "Username already taken")))
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "Username already taken", env.Message)
}

func TestErrorHandlerWrappedCauseStaysServerSide(t *testing.T) {
	wrapped := WrapHttpError(fiber.StatusBadGateway, "Generation failed", errors.New("connection refused"))
	status, env := doRequest(t, newErrorApp(wrapped))
	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Equal(t, "Generation failed", env.Message)
	assert.NotContains(t, env.Message, "connection refused")
}

func TestErrorHandlerHidesUntypedErrors(t *testing.T) {
	status, env := doRequest(t, newErrorApp(errors.New("pq: relation does not exist")))
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", env.Message)
}
