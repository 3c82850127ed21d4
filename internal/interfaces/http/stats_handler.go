package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Entregas-api/internal/application/dto"
	"github.com/jhoicas/Entregas-api/internal/application/stats"
)

// StatsHandler maneja los rollups de entregas para el tablero (protegido).
type StatsHandler struct {
	aggregator *stats.Aggregator
}

// NewStatsHandler construye el handler de estadísticas.
func NewStatsHandler(aggregator *stats.Aggregator) *StatsHandler {
	return &StatsHandler{aggregator: aggregator}
}

// Messengers godoc
// @Summary      Rollup diario por mensajero
// @Tags         stats
// @Security     Bearer
// @Produce      json
// @Param        date  query  string  false  "YYYY-MM-DD (vacío = hoy)"
// @Success      200  {array}  dto.MessengerDailySummaryDTO
// @Router       /api/stats/messengers [get]
func (h *StatsHandler) Messengers(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	date, err := statsDate(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "date debe ser YYYY-MM-DD"})
	}
	list, err := h.aggregator.MessengerDailySummary(c.Context(), companyID, date)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(list)
}

// Zones godoc
// @Summary      Rollup diario por zona
// @Tags         stats
// @Security     Bearer
// @Produce      json
// @Param        date  query  string  false  "YYYY-MM-DD (vacío = hoy)"
// @Success      200  {array}  dto.ZoneDailySummaryDTO
// @Router       /api/stats/zones [get]
func (h *StatsHandler) Zones(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	date, err := statsDate(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "date debe ser YYYY-MM-DD"})
	}
	list, err := h.aggregator.ZoneDailySummary(c.Context(), companyID, date)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(list)
}

// Overview godoc
// @Summary      Resumen del día (mensajeros + zonas)
// @Tags         stats
// @Security     Bearer
// @Produce      json
// @Param        date  query  string  false  "YYYY-MM-DD (vacío = hoy)"
// @Success      200  {object}  dto.DailyOverviewDTO
// @Router       /api/stats/overview [get]
func (h *StatsHandler) Overview(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	date, err := statsDate(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "date debe ser YYYY-MM-DD"})
	}
	out, err := h.aggregator.DailyOverview(c.Context(), companyID, date)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// statsDate parsea ?date=YYYY-MM-DD; vacío devuelve hoy.
func statsDate(c *fiber.Ctx) (time.Time, error) {
	s := c.Query("date")
	if s == "" {
		return time.Now(), nil
	}
	return time.Parse("2006-01-02", s)
}
