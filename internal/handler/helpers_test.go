package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scriptdesk-api/internal/middleware"
	"github.com/noah-isme/scriptdesk-api/internal/workflow"
)

var (
	writer  = workflow.Actor{ID: "writer-1", Role: workflow.RoleScriptwriter}
	manager = workflow.Actor{ID: "manager-1", Role: workflow.RoleProgramManager}
)

type envelope struct {
	Success bool                   `json:"success"`
	Data    json.RawMessage        `json:"data"`
	Message string                 `json:"message"`
	Meta    json.RawMessage        `json:"meta"`
	Details map[string]interface{} `json:"details"`
}

// newApp mounts register under prefix. A nil actor leaves the request
// unauthenticated.
func newApp(actor *workflow.Actor, prefix string, register func(fiber.Router)) *fiber.App {
	app := fiber.New()
	group := app.Group(prefix, func(c *fiber.Ctx) error {
		if actor != nil {
			c.Locals(middleware.LocalActor, *actor)
			c.Locals(middleware.LocalUserID, actor.ID)
			c.Locals(middleware.LocalUserRole, actor.Role.String())
		}
		return c.Next()
	})
	register(group)
	return app
}

func jsonRequest(t *testing.T, method, path string, payload interface{}) *http.Request {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func do(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, envelope) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var body envelope
	decodeResponse(t, resp, &body)
	return resp, body
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}

func ptr[T any](v T) *T {
	return &v
}
