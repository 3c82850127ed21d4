package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Entregas-api/internal/application/dto"
	"github.com/jhoicas/Entregas-api/internal/application/fulfillment"
	"github.com/jhoicas/Entregas-api/internal/application/orders"
	"github.com/jhoicas/Entregas-api/internal/domain"
	"github.com/jhoicas/Entregas-api/internal/domain/entity"
	"github.com/jhoicas/Entregas-api/internal/domain/repository"
	domainrouting "github.com/jhoicas/Entregas-api/internal/domain/routing"
)

// OrderHandler maneja las peticiones HTTP de pedidos y sus transiciones (protegido).
type OrderHandler struct {
	uc     *orders.UseCase
	engine *fulfillment.Engine
}

// NewOrderHandler construye el handler de pedidos.
func NewOrderHandler(uc *orders.UseCase, engine *fulfillment.Engine) *OrderHandler {
	return &OrderHandler{uc: uc, engine: engine}
}

// Create godoc
// @Summary      Registrar pedido
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateOrderRequest  true  "cliente, zona, monto, líneas"
// @Success      201   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/orders [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	userID := GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreateOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	items := make([]entity.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, entity.OrderItem{ProductID: it.ProductID, WarehouseID: it.WarehouseID, Quantity: it.Quantity})
	}
	routeDate, err := parseDate(in.RouteDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "route_date debe ser YYYY-MM-DD"})
	}

	order, err := h.uc.Create(c.Context(), orders.CreateInput{
		CompanyID:       companyID,
		CustomerName:    in.CustomerName,
		CustomerPhone:   in.CustomerPhone,
		CustomerAddress: in.CustomerAddress,
		Province:        in.Province,
		Canton:          in.Canton,
		District:        in.District,
		TotalAmount:     in.TotalAmount,
		RouteDate:       routeDate,
		Items:           items,
		Actor:           userID,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(toOrderResponse(order))
}

// List godoc
// @Summary      Listar pedidos
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "pendiente|confirmado|en_ruta|entregado|devolucion|reagendado"
// @Param        zone    query  string  false  "zona (se normaliza: minúsculas, sin tildes)"
// @Success      200  {array}  dto.OrderResponse
// @Router       /api/orders [get]
func (h *OrderHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	status := c.Query("status")
	if status != "" && !entity.ValidStatus(status) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "status desconocido"})
	}
	list, err := h.uc.List(c.Context(), repository.OrderFilter{
		CompanyID: companyID,
		Status:    status,
		Zone:      domainrouting.NormalizeZone(c.Query("zone")),
		Limit:     c.QueryInt("limit", 50),
		Offset:    c.QueryInt("offset", 0),
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := make([]dto.OrderResponse, 0, len(list))
	for _, o := range list {
		out = append(out, toOrderResponse(o))
	}
	return c.JSON(fiber.Map{"total": len(out), "orders": out})
}

// GetByID godoc
// @Summary      Obtener pedido por ID
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	order, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "pedido no encontrado"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(toOrderResponse(order))
}

// Transition godoc
// @Summary      Transicionar pedido de estado
// @Description  Aplica una arista del ciclo de vida (confirmar, despachar,
//
//	entregar, devolver, reagendar) junto con su efecto de inventario.
//	Repetir la misma transición es un no-op.
//
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del pedido"
// @Param        body  body  dto.TransitionRequest  true  "target_status y opcionales"
// @Success      200   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/transition [post]
func (h *OrderHandler) Transition(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.TransitionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	result, err := h.engine.Apply(c.Context(), fulfillment.ApplyInput{
		OrderID:      c.Params("id"),
		TargetStatus: in.TargetStatus,
		Actor:        userID,
		MessengerID:  in.MessengerID,
		Notes:        in.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "pedido no encontrado"})
		case errors.Is(err, domain.ErrTransicionInvalida):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "ILLEGAL_TRANSITION", Message: err.Error()})
		case errors.Is(err, domain.ErrStockInsuficiente):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error()})
		case errors.Is(err, domain.ErrConflicto):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONCURRENT_MODIFICATION", Message: "el pedido fue modificado por otra operación; reintente"})
		case errors.Is(err, domain.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(fiber.Map{
		"applied": result.Applied,
		"order":   toOrderResponse(result.Order),
	})
}

// History godoc
// @Summary      Historial de estados de un pedido
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del pedido"
// @Success      200  {array}  dto.StatusHistoryDTO
// @Router       /api/orders/{id}/history [get]
func (h *OrderHandler) History(c *fiber.Ctx) error {
	list, err := h.uc.History(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "pedido no encontrado"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := make([]dto.StatusHistoryDTO, 0, len(list))
	for _, h := range list {
		out = append(out, dto.StatusHistoryDTO{
			FromStatus: h.FromStatus,
			ToStatus:   h.ToStatus,
			Actor:      h.Actor,
			Notes:      h.Notes,
			CreatedAt:  h.CreatedAt,
		})
	}
	return c.JSON(out)
}

// ── mapeo entity → DTO ────────────────────────────────────────────────────────

func toOrderResponse(o *entity.Order) dto.OrderResponse {
	items := make([]dto.OrderItemDTO, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, dto.OrderItemDTO{ProductID: it.ProductID, WarehouseID: it.WarehouseID, Quantity: it.Quantity})
	}
	routeDate := ""
	if !o.RouteDate.IsZero() {
		routeDate = o.RouteDate.Format("2006-01-02")
	}
	return dto.OrderResponse{
		ID:                  o.ID,
		CustomerName:        o.CustomerName,
		CustomerPhone:       o.CustomerPhone,
		CustomerAddress:     o.CustomerAddress,
		Province:            o.Province,
		Canton:              o.Canton,
		District:            o.District,
		TotalAmount:         o.TotalAmount,
		Items:               items,
		Status:              o.Status,
		AssignedMessengerID: o.AssignedMessengerID,
		FulfilledByID:       o.FulfilledByID,
		RouteAssignmentID:   o.RouteAssignmentID,
		Confirmed:           o.Confirmed,
		RescheduleCount:     o.RescheduleCount,
		RouteDate:           routeDate,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
}

// parseDate interpreta YYYY-MM-DD; vacío devuelve cero.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}
