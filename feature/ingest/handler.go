package ingest

import (
	"errors"
	"fmt"

	"race-telemetry/core/logger"
	"race-telemetry/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles inbound webhooks from the timing software.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the webhook routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/webhook")
	group.Post("/", h.HandleRaceData)
	group.Post("/lap", h.HandleLap)
	group.Post("/cars", h.HandleCars)
	group.Post("/track", h.HandleTrack)
}

// HandleRaceData accepts an event envelope or a race-data body.
// @Summary Race Data Webhook
// @Description Accepts {"type","data"} envelopes or the race-data body posted by the timing software.
// @Tags webhook
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Applied"
// @Failure 400 {object} map[string]string "Malformed payload"
// @Router /webhook [post]
func (h *Handler) HandleRaceData(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	kind, err := h.service.RaceData(c.Body())
	if err != nil {
		return reply(c, l, err)
	}
	l.Debug("Webhook applied", zap.String("kind", string(kind)))
	return c.JSON(fiber.Map{"status": "success", "message": fmt.Sprintf("%s applied", kind)})
}

// HandleLap accepts a lap event.
// @Summary Lap Webhook
// @Tags webhook
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Applied"
// @Failure 400 {object} map[string]string "Malformed payload"
// @Router /webhook/lap [post]
func (h *Handler) HandleLap(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	if err := h.service.Lap(c.Body()); err != nil {
		return reply(c, l, err)
	}
	return c.JSON(fiber.Map{"status": "success", "message": "Lap recorded"})
}

// HandleCars accepts a car catalog.
// @Summary Car Catalog Webhook
// @Tags webhook
// @Accept json
// @Produce json
// @Param merge query boolean false "Merge into the catalog instead of replacing it"
// @Success 200 {object} map[string]string "Applied"
// @Failure 400 {object} map[string]string "Malformed payload"
// @Router /webhook/cars [post]
func (h *Handler) HandleCars(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	merge := c.QueryBool("merge", false)
	n, err := h.service.Cars(c.Body(), merge)
	if err != nil {
		return reply(c, l, err)
	}
	l.Info("Car catalog received", zap.Int("cars", n), zap.Bool("merge", merge))
	return c.JSON(fiber.Map{"status": "success", "message": fmt.Sprintf("%d cars applied", n)})
}

// HandleTrack accepts track data.
// @Summary Track Data Webhook
// @Description Accepts the track name, length, layout and sectors, bare or under track_data.
// @Tags webhook
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Applied"
// @Failure 400 {object} map[string]string "Malformed payload"
// @Router /webhook/track [post]
func (h *Handler) HandleTrack(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	track, err := h.service.Track(c.Body())
	if err != nil {
		return reply(c, l, err)
	}
	l.Info("Track data received", zap.String("track", track.Name), zap.Int("sectors", track.Sectors))
	return c.JSON(fiber.Map{"status": "success", "message": "Track data updated"})
}

func reply(c *fiber.Ctx, l *zap.Logger, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, ErrEmptyBody), errors.Is(err, reconcile.ErrMalformedEvent):
		status = fiber.StatusBadRequest
	case errors.Is(err, reconcile.ErrStaleResult):
		status = fiber.StatusConflict
	}
	l.Warn("Webhook rejected", zap.Int("status", status), zap.Error(err))
	return c.Status(status).JSON(fiber.Map{"status": "error", "message": err.Error()})
}
