package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scriptdesk-api/internal/dto"
	"github.com/noah-isme/scriptdesk-api/internal/middleware"
	"github.com/noah-isme/scriptdesk-api/internal/service"
	"github.com/noah-isme/scriptdesk-api/internal/utils"
	"github.com/noah-isme/scriptdesk-api/internal/workflow"
)

// ProjectHandler exposes projects and their files.
type ProjectHandler struct {
	projects service.ProjectService
	files    service.FileService
	logger   zerolog.Logger
}

// NewProjectHandler constructs a project handler.
func NewProjectHandler(projects service.ProjectService, files service.FileService, logger zerolog.Logger) *ProjectHandler {
	return &ProjectHandler{
		projects: projects,
		files:    files,
		logger:   logger.With().Str("component", "project_handler").Logger(),
	}
}

// Register wires project and project file routes.
func (h *ProjectHandler) Register(router fiber.Router) {
	manage := middleware.RequireCapability(workflow.CapManageProjects)
	upload := middleware.RequireCapability(workflow.CapUploadFiles)

	router.Get("", h.list)
	router.Post("", manage, h.create)
	router.Patch("/:id", manage, h.update)
	router.Delete("/:id", manage, h.delete)

	router.Get("/:id/files", h.listFiles)
	router.Post("/:id/files", upload, h.registerFiles)
	router.Post("/:id/files/upload", upload, h.uploadFile)
}

func (h *ProjectHandler) list(c *fiber.Ctx) error {
	projects, err := h.projects.List(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "list projects")
	}
	return utils.SendSuccess(c, "projects retrieved", projects)
}

func (h *ProjectHandler) create(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return respondError(c, h.logger, err, "create project")
	}

	var req dto.ProjectCreateRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, h.logger, err, "create project")
	}

	project, err := h.projects.Create(c.UserContext(), actor, req)
	if err != nil {
		return respondError(c, h.logger, err, "create project")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "project created", project)
}

func (h *ProjectHandler) update(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return respondError(c, h.logger, err, "update project")
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "update project")
	}

	var req dto.ProjectUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, h.logger, err, "update project")
	}

	project, err := h.projects.Update(c.UserContext(), id, actor, req)
	if err != nil {
		return respondError(c, h.logger, err, "update project")
	}
	return utils.SendSuccess(c, "project updated", project)
}

func (h *ProjectHandler) delete(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return respondError(c, h.logger, err, "delete project")
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "delete project")
	}

	if err := h.projects.Delete(c.UserContext(), id, actor); err != nil {
		return respondError(c, h.logger, err, "delete project")
	}
	return utils.SendSuccess(c, "project deleted", nil)
}

func (h *ProjectHandler) listFiles(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "list project files")
	}

	files, err := h.files.List(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err, "list project files")
	}
	return utils.SendSuccess(c, "project files retrieved", files)
}

func (h *ProjectHandler) registerFiles(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return respondError(c, h.logger, err, "register project files")
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "register project files")
	}

	var req dto.FileBatchRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, h.logger, err, "register project files")
	}

	files, err := h.files.Register(c.UserContext(), actor, id, req)
	if err != nil {
		return respondError(c, h.logger, err, "register project files")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "files registered", files)
}

func (h *ProjectHandler) uploadFile(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return respondError(c, h.logger, err, "upload project file")
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "upload project file")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return respondError(c, h.logger, service.NewValidationError("file", "is required"), "upload project file")
	}

	stored, err := h.files.Upload(c.UserContext(), actor, id, file)
	if err != nil {
		return respondError(c, h.logger, err, "upload project file")
	}

	requestLogger(h.logger, c).Info().
		Uint("project_id", id).
		Str("file_id", stored.ID).
		Int64("size_bytes", stored.SizeBytes).
		Msg("project file uploaded")
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "upload successful", stored)
}
