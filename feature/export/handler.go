package export

import (
	"errors"
	"fmt"

	"race-telemetry/core/logger"
	"race-telemetry/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for exports.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the export routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/export")
	group.Get("/csv/:kind", h.HandleDownloadCSV)
	group.Post("/upload", h.HandleUploadAll)
	group.Post("/upload/:kind", h.HandleUpload)
	group.Get("/uploads", h.HandleListUploads)
	group.Get("/uploads/:name", h.HandleGetUpload)
}

// HandleDownloadCSV streams an export as a CSV attachment.
// @Summary Download CSV
// @Tags export
// @Produce text/csv
// @Param kind path string true "race-results or lap-history"
// @Success 200 {string} string "CSV file"
// @Failure 400 {object} map[string]string "Unknown kind"
// @Router /export/csv/{kind} [get]
func (h *Handler) HandleDownloadCSV(c *fiber.Ctx) error {
	kind := c.Params("kind")
	data, err := h.service.CSV(kind)
	if err != nil {
		return h.fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", h.service.Filename(kind)))
	return c.Send(data)
}

// HandleUpload uploads one export kind to the bucket.
// @Summary Upload Export
// @Tags export
// @Produce json
// @Param kind path string true "race-results or lap-history"
// @Success 201 {object} Object
// @Failure 400 {object} map[string]string "Unknown kind"
// @Failure 502 {object} map[string]string "Storage error"
// @Failure 503 {object} map[string]string "Storage disabled"
// @Router /export/upload/{kind} [post]
func (h *Handler) HandleUpload(c *fiber.Ctx) error {
	obj, err := h.service.Upload(c.Context(), c.Params("kind"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(obj)
}

// HandleUploadAll uploads every export kind.
// @Summary Upload All Exports
// @Description Uploads every kind and reports per-file results.
// @Tags export
// @Produce json
// @Success 200 {object} map[string]interface{} "Results"
// @Failure 503 {object} map[string]string "Storage disabled"
// @Router /export/upload [post]
func (h *Handler) HandleUploadAll(c *fiber.Ctx) error {
	results, err := h.service.UploadAll(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	success := true
	for _, r := range results {
		success = success && r.Success
	}
	return c.JSON(fiber.Map{
		"success": success,
		"folder":  h.service.prefix(),
		"results": results,
	})
}

// HandleListUploads lists uploaded exports.
// @Summary List Uploads
// @Tags export
// @Produce json
// @Success 200 {object} map[string]interface{} "Uploads"
// @Failure 502 {object} map[string]string "Storage error"
// @Failure 503 {object} map[string]string "Storage disabled"
// @Router /export/uploads [get]
func (h *Handler) HandleListUploads(c *fiber.Ctx) error {
	objects, err := h.service.List(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"count": len(objects), "uploads": objects})
}

// HandleGetUpload streams a previously uploaded export.
// @Summary Get Upload
// @Tags export
// @Produce text/csv
// @Param name path string true "File name"
// @Success 200 {string} string "CSV file"
// @Failure 400 {object} map[string]string "Invalid name"
// @Failure 502 {object} map[string]string "Storage error"
// @Router /export/uploads/{name} [get]
func (h *Handler) HandleGetUpload(c *fiber.Ctx) error {
	name := c.Params("name")
	body, err := h.service.Open(c.Context(), name)
	if err != nil {
		return h.fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.SendStream(body)
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, reconcile.ErrUnknownExportKind), errors.Is(err, ErrInvalidName):
		status = fiber.StatusBadRequest
	case errors.Is(err, ErrStorageDisabled):
		status = fiber.StatusServiceUnavailable
	case errors.Is(err, reconcile.ErrTransportFault):
		status = fiber.StatusBadGateway
	}
	logger.WithRayID(h.service.logger, c).Error("Export request failed", zap.Int("status", status), zap.Error(err))
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
