package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scriptdesk-api/internal/dto"
	"github.com/noah-isme/scriptdesk-api/internal/handler"
	"github.com/noah-isme/scriptdesk-api/internal/service"
	"github.com/noah-isme/scriptdesk-api/internal/workflow"
)

type stubScriptService struct {
	lastActor  workflow.Actor
	lastID     uint
	lastTarget string
	lastCreate dto.ScriptCreateRequest
	lastUpdate dto.ScriptUpdateRequest
	lastList   dto.ScriptListRequest
	calls      int

	script dto.ScriptResponse
	list   dto.ScriptListResponse
	err    error
}

func (s *stubScriptService) Create(_ context.Context, actor workflow.Actor, req dto.ScriptCreateRequest) (dto.ScriptResponse, error) {
	s.calls++
	s.lastActor, s.lastCreate = actor, req
	return s.script, s.err
}

func (s *stubScriptService) Update(_ context.Context, id uint, actor workflow.Actor, req dto.ScriptUpdateRequest) (dto.ScriptResponse, error) {
	s.calls++
	s.lastID, s.lastActor, s.lastUpdate = id, actor, req
	return s.script, s.err
}

func (s *stubScriptService) Delete(_ context.Context, id uint, actor workflow.Actor) error {
	s.calls++
	s.lastID, s.lastActor = id, actor
	return s.err
}

func (s *stubScriptService) TransitionStatus(_ context.Context, id uint, actor workflow.Actor, target string) (dto.ScriptResponse, error) {
	s.calls++
	s.lastID, s.lastActor, s.lastTarget = id, actor, target
	return s.script, s.err
}

func (s *stubScriptService) Get(_ context.Context, id uint) (dto.ScriptResponse, error) {
	s.calls++
	s.lastID = id
	return s.script, s.err
}

func (s *stubScriptService) List(_ context.Context, req dto.ScriptListRequest) (dto.ScriptListResponse, error) {
	s.calls++
	s.lastList = req
	return s.list, s.err
}

func scriptApp(svc service.ScriptService, actor *workflow.Actor) *fiber.App {
	return newApp(actor, "/api/v1/scripts", handler.NewScriptHandler(svc, zerolog.Nop()).Register)
}

func TestScriptHandler_CreateUsesAuthenticatedAuthor(t *testing.T) {
	svc := &stubScriptService{script: dto.ScriptResponse{ID: 7, Title: "Morning news", AuthorID: writer.ID, Status: workflow.StatusDraft}}
	app := scriptApp(svc, &writer)

	resp, body := do(t, app, jsonRequest(t, http.MethodPost, "/api/v1/scripts", map[string]interface{}{
		"title":      "Morning news",
		"project_id": 1,
		"topic_ids":  []uint{2, 3},
	}))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.True(t, body.Success)

	var script dto.ScriptResponse
	require.NoError(t, json.Unmarshal(body.Data, &script))
	require.Equal(t, uint(7), script.ID)
	require.Equal(t, workflow.StatusDraft, script.Status)

	require.Equal(t, writer, svc.lastActor)
	require.Equal(t, "Morning news", svc.lastCreate.Title)
	require.Equal(t, []uint{2, 3}, svc.lastCreate.TopicIDs)
}

func TestScriptHandler_RejectsUnauthenticatedWrites(t *testing.T) {
	svc := &stubScriptService{}
	app := scriptApp(svc, nil)

	resp, body := do(t, app, jsonRequest(t, http.MethodPost, "/api/v1/scripts", map[string]string{"title": "x"}))
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.False(t, body.Success)
	require.Zero(t, svc.calls)
}

func TestScriptHandler_CreateValidationDetails(t *testing.T) {
	verr := service.NewValidationError("title", "is required")
	verr.Add("project_id", "is required")
	svc := &stubScriptService{err: verr}
	app := scriptApp(svc, &writer)

	resp, body := do(t, app, jsonRequest(t, http.MethodPost, "/api/v1/scripts", map[string]string{}))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "validation failed", body.Message)
	require.Equal(t, "is required", body.Details["title"])
	require.Equal(t, "is required", body.Details["project_id"])
}

func TestScriptHandler_MalformedBody(t *testing.T) {
	svc := &stubScriptService{}
	app := scriptApp(svc, &writer)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scripts", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Zero(t, svc.calls)
}

func TestScriptHandler_ListPassesFilters(t *testing.T) {
	svc := &stubScriptService{list: dto.ScriptListResponse{
		Items:      []dto.ScriptResponse{{ID: 1, Title: "A"}},
		Pagination: dto.NewPaginationMeta(2, 5, 6),
	}}
	app := scriptApp(svc, &writer)

	resp, body := do(t, app, jsonRequest(t, http.MethodGet,
		"/api/v1/scripts?status=submitted&project_id=3&author_id=writer-9&search=traffic&page=2&page_size=5", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.Equal(t, "submitted", svc.lastList.Status)
	require.Equal(t, ptr(uint(3)), svc.lastList.ProjectID)
	require.Equal(t, "writer-9", svc.lastList.AuthorID)
	require.Equal(t, "traffic", svc.lastList.Search)
	require.Equal(t, 2, svc.lastList.Page)
	require.Equal(t, 5, svc.lastList.PageSize)

	var meta dto.PaginationMeta
	require.NoError(t, json.Unmarshal(body.Meta, &meta))
	require.Equal(t, int64(6), meta.TotalItems)
	require.Equal(t, 2, meta.TotalPages)
}

func TestScriptHandler_ListRejectsBadQuery(t *testing.T) {
	svc := &stubScriptService{}
	app := scriptApp(svc, &writer)

	for _, query := range []string{"project_id=abc", "project_id=0", "page=-1", "page_size=x"} {
		resp, body := do(t, app, jsonRequest(t, http.MethodGet, "/api/v1/scripts?"+query, nil))
		require.Equal(t, fiber.StatusBadRequest, resp.StatusCode, query)
		require.NotEmpty(t, body.Details, query)
	}
	require.Zero(t, svc.calls)
}

func TestScriptHandler_GetRejectsNonNumericID(t *testing.T) {
	svc := &stubScriptService{}
	app := scriptApp(svc, &writer)

	resp, _ := do(t, app, jsonRequest(t, http.MethodGet, "/api/v1/scripts/abc", nil))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Zero(t, svc.calls)
}

func TestScriptHandler_UpdateForwardsPartialFields(t *testing.T) {
	svc := &stubScriptService{script: dto.ScriptResponse{ID: 4}}
	app := scriptApp(svc, &writer)

	resp, _ := do(t, app, jsonRequest(t, http.MethodPatch, "/api/v1/scripts/4", map[string]interface{}{
		"audio_link": "https://cdn.example.com/a.mp3",
	}))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(4), svc.lastID)
	require.Nil(t, svc.lastUpdate.Title)
	require.NotNil(t, svc.lastUpdate.AudioLink)
	require.Equal(t, "https://cdn.example.com/a.mp3", *svc.lastUpdate.AudioLink)
}

func TestScriptHandler_Delete(t *testing.T) {
	svc := &stubScriptService{}
	app := scriptApp(svc, &manager)

	resp, body := do(t, app, jsonRequest(t, http.MethodDelete, "/api/v1/scripts/9", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "script deleted", body.Message)
	require.Equal(t, uint(9), svc.lastID)
	require.Equal(t, manager, svc.lastActor)
}

func TestScriptHandler_TransitionSuccess(t *testing.T) {
	svc := &stubScriptService{script: dto.ScriptResponse{ID: 3, Status: workflow.StatusSubmitted}}
	app := scriptApp(svc, &writer)

	resp, body := do(t, app, jsonRequest(t, http.MethodPost, "/api/v1/scripts/3/transitions", map[string]string{"status": "submitted"}))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "submitted", svc.lastTarget)
	require.Equal(t, uint(3), svc.lastID)

	var script dto.ScriptResponse
	require.NoError(t, json.Unmarshal(body.Data, &script))
	require.Equal(t, workflow.StatusSubmitted, script.Status)
}

func TestScriptHandler_TransitionRequiresStatus(t *testing.T) {
	svc := &stubScriptService{}
	app := scriptApp(svc, &writer)

	resp, body := do(t, app, jsonRequest(t, http.MethodPost, "/api/v1/scripts/3/transitions", map[string]string{"status": "  "}))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "is required", body.Details["status"])
	require.Zero(t, svc.calls)
}

func TestScriptHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "invalid transition",
			err:     &workflow.InvalidTransitionError{From: workflow.StatusSubmitted, To: workflow.StatusApproved},
			status:  fiber.StatusConflict,
			message: `cannot move script from "submitted" to "approved"`,
		},
		{name: "permission denied", err: workflow.ErrPermissionDenied, status: fiber.StatusForbidden, message: "insufficient permissions"},
		{name: "wrapped permission", err: errors.Join(errors.New("ctx"), service.ErrPermissionDenied), status: fiber.StatusForbidden, message: "insufficient permissions"},
		{name: "not found", err: service.ErrScriptNotFound, status: fiber.StatusNotFound, message: service.ErrScriptNotFound.Error()},
		{name: "storage", err: &service.StorageError{Op: "script.update", Err: errors.New("conn reset")}, status: fiber.StatusServiceUnavailable, message: "storage temporarily unavailable"},
		{name: "unexpected", err: errors.New("boom"), status: fiber.StatusInternalServerError, message: "transition script failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubScriptService{err: tc.err}
			app := scriptApp(svc, &writer)

			resp, body := do(t, app, jsonRequest(t, http.MethodPost, "/api/v1/scripts/5/transitions", map[string]string{"status": "approved"}))
			require.Equal(t, tc.status, resp.StatusCode)
			require.False(t, body.Success)
			require.Equal(t, tc.message, body.Message)
		})
	}
}

func TestScriptHandler_InvalidTransitionListsAllowedTargets(t *testing.T) {
	svc := &stubScriptService{err: &workflow.InvalidTransitionError{From: workflow.StatusUnderReview, To: workflow.StatusArchived}}
	app := scriptApp(svc, &manager)

	resp, body := do(t, app, jsonRequest(t, http.MethodPost, "/api/v1/scripts/5/transitions", map[string]string{"status": "archived"}))
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	require.Equal(t, "under_review", body.Details["from"])
	require.Equal(t, "archived", body.Details["to"])
	require.ElementsMatch(t, []interface{}{"approved", "needs_revision"}, body.Details["allowed"])
}
