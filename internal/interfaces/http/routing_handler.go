package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Entregas-api/internal/application/dto"
	approuting "github.com/jhoicas/Entregas-api/internal/application/routing"
	"github.com/jhoicas/Entregas-api/internal/application/stats"
	"github.com/jhoicas/Entregas-api/internal/domain"
	"github.com/jhoicas/Entregas-api/internal/domain/entity"
	domainrouting "github.com/jhoicas/Entregas-api/internal/domain/routing"
)

// RoutingHandler maneja el ciclo de planificación de rutas (protegido).
type RoutingHandler struct {
	planner    *approuting.Planner
	aggregator *stats.Aggregator
}

// NewRoutingHandler construye el handler de ruteo.
func NewRoutingHandler(planner *approuting.Planner, aggregator *stats.Aggregator) *RoutingHandler {
	return &RoutingHandler{planner: planner, aggregator: aggregator}
}

// Assign godoc
// @Summary      Ejecutar ciclo de asignación de rutas
// @Description  Agrupa los pedidos pendientes por zona, los empaqueta en rutas
//
//	por mensajero respetando la capacidad, confirma los colocados
//	(reserva de inventario) y reporta los que quedaron sin ruta con
//	su motivo.
//
// @Tags         routes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AssignRoutesRequest  true  "route_date (YYYY-MM-DD, vacío = hoy)"
// @Success      200   {object}  dto.AssignRoutesResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/routes/assign [post]
func (h *RoutingHandler) Assign(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	userID := GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.AssignRoutesRequest
	if err := c.BodyParser(&in); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	routeDate, err := parseDate(in.RouteDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "route_date debe ser YYYY-MM-DD"})
	}
	if routeDate.IsZero() {
		routeDate = time.Now().Truncate(24 * time.Hour)
	}

	result, err := h.planner.AssignRoutes(c.Context(), approuting.PlanInput{
		RouteDate: routeDate,
		CompanyID: companyID,
		Actor:     userID,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(toAssignResponse(result))
}

// MarkAssigned godoc
// @Summary      Marcar ruta como en progreso
// @Description  El mensajero salió a la calle: la ruta deja de aceptar pedidos.
// @Tags         routes
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la ruta"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/routes/{id}/start [post]
func (h *RoutingHandler) MarkAssigned(c *fiber.Ctx) error {
	err := h.planner.MarkAssigned(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "ruta no encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(fiber.Map{"message": "ruta en progreso"})
}

// Sheet godoc
// @Summary      Hoja de ruta en PDF
// @Tags         routes
// @Security     Bearer
// @Produce      application/pdf
// @Param        id  path  string  true  "ID de la ruta"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/routes/{id}/sheet [get]
func (h *RoutingHandler) Sheet(c *fiber.Ctx) error {
	pdfBytes, err := h.planner.RouteSheet(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "ruta no encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", `attachment; filename="hoja-de-ruta.pdf"`)
	return c.Send(pdfBytes)
}

// Stats godoc
// @Summary      Estadísticas de una ruta
// @Tags         routes
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la ruta"
// @Success      200  {object}  dto.RouteStatsDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/routes/{id}/stats [get]
func (h *RoutingHandler) Stats(c *fiber.Ctx) error {
	out, err := h.aggregator.RouteStats(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "ruta no encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// ── mapeo resultado → DTO ─────────────────────────────────────────────────────

func toAssignResponse(result *approuting.PlanResult) dto.AssignRoutesResponse {
	assignments := make([]dto.RouteAssignmentDTO, 0, len(result.Assignments))
	for _, a := range result.Assignments {
		assignments = append(assignments, toRouteAssignmentDTO(a))
	}
	unassigned := make([]dto.UnassignedOrderDTO, 0, len(result.Unassigned))
	for _, u := range result.Unassigned {
		unassigned = append(unassigned, dto.UnassignedOrderDTO{
			OrderID:      u.Order.ID,
			CustomerName: u.Order.CustomerName,
			Zone:         domainrouting.NormalizeZone(zoneLabel(u.Order)),
			Reason:       u.Reason,
		})
	}
	return dto.AssignRoutesResponse{
		InputCount:  result.InputCount,
		PlacedCount: result.PlacedCount,
		Confirmed:   result.Confirmed,
		Assignments: assignments,
		Unassigned:  unassigned,
	}
}

func toRouteAssignmentDTO(a *entity.RouteAssignment) dto.RouteAssignmentDTO {
	return dto.RouteAssignmentDTO{
		ID:               a.ID,
		MessengerID:      a.MessengerID,
		RouteDate:        a.RouteDate.Format("2006-01-02"),
		Zone:             a.Zone,
		Status:           a.Status,
		OrderCount:       a.OrderCount,
		DeliveredCount:   a.DeliveredCount,
		ReturnedCount:    a.ReturnedCount,
		RescheduledCount: a.RescheduledCount,
		PendingCount:     a.PendingCount(),
	}
}

// zoneLabel etiqueta de zona cruda de un pedido, con la precedencia del agrupador.
func zoneLabel(o *entity.Order) string {
	if o.District != "" {
		return o.District
	}
	if o.Canton != "" {
		return o.Canton
	}
	return o.Province
}
