package live

import (
	"errors"
	"strconv"

	"race-telemetry/core/logger"
	"race-telemetry/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the live view.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the live routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/live")
	group.Get("/standings", h.HandleStandings)
	group.Get("/laps", h.HandleLaps)
	group.Get("/session", h.HandleSession)
	group.Get("/status", h.HandleStatus)
	group.Get("/stats", h.HandleDriverStats)
	group.Get("/drivers/:id/laps", h.HandleDriverLaps)
	group.Get("/cars", h.HandleCars)
	group.Get("/cars/:id", h.HandleCar)
	group.Post("/filter", h.HandleSetFilter)
	group.Post("/resync", h.HandleResync)
	group.Post("/reset", h.HandleReset)
	group.Post("/export/:kind", h.HandleExport)
}

// FilterRequest is the body of POST /live/filter.
type FilterRequest struct {
	Mode string `json:"mode" example:"top6"`
}

// HandleStandings returns the ranked leaderboard.
// @Summary Get Standings
// @Description Returns drivers in rank order. Unranked drivers follow ranked ones.
// @Tags live
// @Produce json
// @Param filter query string false "all, top, topN or top:N (defaults to the active filter)"
// @Success 200 {object} map[string]interface{} "Standings"
// @Failure 400 {object} map[string]string "Unknown filter"
// @Router /live/standings [get]
func (h *Handler) HandleStandings(c *fiber.Ctx) error {
	rows, f, err := h.service.Standings(c.Query("filter"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"filter":    f.String(),
		"count":     len(rows),
		"standings": rows,
	})
}

// HandleLaps returns the newest laps across all drivers.
// @Summary Get Lap Feed
// @Description Returns the most recently arrived laps, newest first.
// @Tags live
// @Produce json
// @Param n query int false "Number of laps (default 20)"
// @Success 200 {object} map[string]interface{} "Laps"
// @Failure 400 {object} map[string]string "Invalid count"
// @Router /live/laps [get]
func (h *Handler) HandleLaps(c *fiber.Ctx) error {
	n := 0
	if raw := c.Query("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "n must be a non-negative integer"})
		}
		n = v
	}
	laps := h.service.Laps(n)
	return c.JSON(fiber.Map{"count": len(laps), "laps": laps})
}

// HandleSession returns the session header.
// @Summary Get Session
// @Tags live
// @Produce json
// @Success 200 {object} SessionView
// @Router /live/session [get]
func (h *Handler) HandleSession(c *fiber.Ctx) error {
	return c.JSON(h.service.Session())
}

// HandleStatus returns connectivity and event counters.
// @Summary Get Status
// @Tags live
// @Produce json
// @Success 200 {object} StatusView
// @Router /live/status [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(h.service.Status())
}

// HandleDriverStats returns lap aggregates per driver.
// @Summary Get Driver Stats
// @Description Lap count, best, average and last lap per driver since their last reset, best lap first.
// @Tags live
// @Produce json
// @Success 200 {object} map[string]interface{} "Driver stats"
// @Router /live/stats [get]
func (h *Handler) HandleDriverStats(c *fiber.Ctx) error {
	stats := h.service.DriverStats()
	return c.JSON(fiber.Map{"count": len(stats), "drivers": stats})
}

// HandleDriverLaps returns one driver's lap history.
// @Summary Get Driver Laps
// @Tags live
// @Produce json
// @Param id path string true "Driver ID"
// @Success 200 {object} map[string]interface{} "Driver and laps"
// @Failure 404 {object} map[string]string "Driver not found"
// @Router /live/drivers/{id}/laps [get]
func (h *Handler) HandleDriverLaps(c *fiber.Ctx) error {
	id := c.Params("id")
	driver, laps, ok := h.service.DriverLaps(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "driver not found"})
	}
	return c.JSON(fiber.Map{"driver": driver, "laps": laps})
}

// HandleCars returns the car catalog.
// @Summary List Cars
// @Tags live
// @Produce json
// @Success 200 {object} map[string]interface{} "Cars"
// @Router /live/cars [get]
func (h *Handler) HandleCars(c *fiber.Ctx) error {
	cars := h.service.Cars()
	return c.JSON(fiber.Map{"count": len(cars), "cars": cars})
}

// HandleCar returns one car. Unknown ids return the placeholder car.
// @Summary Get Car
// @Tags live
// @Produce json
// @Param id path string true "Car ID"
// @Success 200 {object} reconcile.CarRecord
// @Router /live/cars/{id} [get]
func (h *Handler) HandleCar(c *fiber.Ctx) error {
	return c.JSON(h.service.Car(c.Params("id")))
}

// HandleSetFilter changes the active standings filter.
// @Summary Set Filter
// @Tags live
// @Accept json
// @Produce json
// @Param request body FilterRequest true "Filter mode"
// @Success 200 {object} map[string]string "Active filter"
// @Failure 400 {object} map[string]string "Unknown filter"
// @Router /live/filter [post]
func (h *Handler) HandleSetFilter(c *fiber.Ctx) error {
	var req FilterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	f, err := h.service.SetFilter(req.Mode)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"filter": f.String()})
}

// HandleResync requests a fresh snapshot from the upstream.
// @Summary Force Resync
// @Tags live
// @Produce json
// @Success 202 {object} map[string]string "Requested"
// @Failure 503 {object} map[string]string "No snapshot source"
// @Router /live/resync [post]
func (h *Handler) HandleResync(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	if err := h.service.Resync(); err != nil {
		l.Warn("Resync unavailable", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}
	l.Info("Resync requested")
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "requested"})
}

// HandleReset clears standings and lap history.
// @Summary Reset Session
// @Tags live
// @Produce json
// @Success 200 {object} map[string]string "Reset"
// @Router /live/reset [post]
func (h *Handler) HandleReset(c *fiber.Ctx) error {
	logger.WithRayID(h.service.logger, c).Info("Session reset requested")
	h.service.Reset()
	return c.JSON(fiber.Map{"status": "reset"})
}

// HandleExport triggers an export of the given kind.
// @Summary Request Export
// @Description Builds the export and uploads it to the configured bucket.
// @Tags live
// @Produce json
// @Param kind path string true "race-results or lap-history"
// @Success 202 {object} map[string]string "Exported"
// @Failure 400 {object} map[string]string "Unknown kind"
// @Failure 502 {object} map[string]string "Upload failed"
// @Failure 503 {object} map[string]string "Export not configured"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /live/export/{kind} [post]
func (h *Handler) HandleExport(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	kind := c.Params("kind")

	err := h.service.Export(c.Context(), kind)
	if err == nil {
		l.Info("Export completed", zap.String("kind", kind))
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "exported", "kind": kind})
	}

	l.Error("Export failed", zap.String("kind", kind), zap.Error(err))
	return c.Status(exportStatus(err)).JSON(fiber.Map{"error": err.Error()})
}

func exportStatus(err error) int {
	switch {
	case errors.Is(err, reconcile.ErrUnknownExportKind):
		return fiber.StatusBadRequest
	case errors.Is(err, reconcile.ErrNoExportHandler):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, reconcile.ErrTransportFault):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
