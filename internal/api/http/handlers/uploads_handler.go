package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/roster-service/internal/api/dto"
	"github.com/spec-kit/roster-service/internal/bulk"
	"github.com/spec-kit/roster-service/internal/domain"
)

// UploadsHandler exposes bulk-upload job operations.
type UploadsHandler struct {
	engine *bulk.Engine
	jobs   *bulk.JobStore
	logger *zap.Logger
}

// NewUploadsHandler constructs handler.
func NewUploadsHandler(engine *bulk.Engine, jobs *bulk.JobStore, logger *zap.Logger) *UploadsHandler {
	return &UploadsHandler{engine: engine, jobs: jobs, logger: logger}
}

// Enqueue handles POST /orgs/:orgUUID/uploads (multipart CSV).
func (h *UploadsHandler) Enqueue(c *fiber.Ctx) error {
	orgUUID := c.Params("orgUUID")
	if orgUUID == "" {
		return fiber.NewError(http.StatusBadRequest, "org uuid required")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "file field required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "unreadable file")
	}
	defer file.Close() //nolint:errcheck

	result, err := h.engine.Enqueue(c.UserContext(), bulk.EnqueueInput{
		File:           file,
		FileName:       fileHeader.Filename,
		OrgUUID:        orgUUID,
		MembershipUUID: c.FormValue("membership_uuid"),
		RosterMode:     domain.RosterMode(c.FormValue("roster_mode")),
		GroupUUID:      c.FormValue("group_uuid"),
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": dto.EnqueueUploadResponse{
		JobID:        result.JobID,
		Status:       string(result.Status),
		TotalRecords: result.TotalRecords,
		BatchSize:    result.BatchSize,
	}})
}

// Status handles GET /uploads/:jobID.
func (h *UploadsHandler) Status(c *fiber.Ctx) error {
	view, err := h.engine.GetJobStatus(c.UserContext(), c.Params("jobID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": view})
}

// List handles GET /uploads, most recently updated first.
func (h *UploadsHandler) List(c *fiber.Ctx) error {
	jobs, err := h.jobs.List(c.UserContext())
	if err != nil {
		return err
	}
	views := make([]*bulk.JobStatusView, 0, len(jobs))
	for _, job := range jobs {
		view, err := h.engine.GetJobStatus(c.UserContext(), job.ID)
		if err != nil {
			return err
		}
		views = append(views, view)
	}
	return c.JSON(fiber.Map{"data": views})
}

// Process handles POST /internal/uploads/:jobID/process, the scheduler's
// callback target.
func (h *UploadsHandler) Process(c *fiber.Ctx) error {
	jobID := c.Params("jobID")
	if err := h.engine.ProcessBatch(c.UserContext(), jobID); err != nil {
		return err
	}
	h.logger.Debug("batch processed", zap.String("job_id", jobID))
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"status": "accepted"})
}
