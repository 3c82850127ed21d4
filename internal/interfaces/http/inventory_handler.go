package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Entregas-api/internal/application/dto"
	"github.com/jhoicas/Entregas-api/internal/application/ledger"
	"github.com/jhoicas/Entregas-api/internal/domain"
	"github.com/jhoicas/Entregas-api/internal/domain/entity"
)

// InventoryHandler maneja las peticiones HTTP del ledger de inventario (protegido).
type InventoryHandler struct {
	ledger *ledger.Ledger
}

// NewInventoryHandler construye el handler de inventario.
func NewInventoryHandler(l *ledger.Ledger) *InventoryHandler {
	return &InventoryHandler{ledger: l}
}

// GetAvailable godoc
// @Summary      Disponible de un ítem
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true  "Producto (UUID)"
// @Param        warehouse_id  query  string  true  "Bodega (UUID)"
// @Success      200  {object}  map[string]int64
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/available [get]
func (h *InventoryHandler) GetAvailable(c *fiber.Ctx) error {
	productID := c.Query("product_id")
	warehouseID := c.Query("warehouse_id")
	if productID == "" || warehouseID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id y warehouse_id son requeridos"})
	}
	available, err := h.ledger.GetAvailable(c.Context(), productID, warehouseID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "ítem no encontrado"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(fiber.Map{"available_stock": available})
}

// Adjust godoc
// @Summary      Ajuste manual de existencia
// @Description  Aplica un delta con signo sobre la existencia física. El motivo
//
//	es obligatorio; el ajuste queda en el ledger con el actor.
//
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustStockRequest  true  "product_id, warehouse_id, delta, reason"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/adjust [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	err := h.ledger.Adjust(c.Context(), in.ProductID, in.WarehouseID, in.Delta, in.Reason, userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrAjusteInvalido):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_ADJUSTMENT", Message: err.Error()})
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "ítem no encontrado"})
		case errors.Is(err, domain.ErrStockInsuficiente):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(fiber.Map{"message": "ajuste aplicado"})
}

// ListTransactions godoc
// @Summary      Historial del ledger de un ítem
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true   "Producto (UUID)"
// @Param        warehouse_id  query  string  true   "Bodega (UUID)"
// @Param        reference     query  string  false  "Filtrar por referencia de pedido"
// @Success      200  {array}  dto.InventoryTransactionDTO
// @Router       /api/inventory/transactions [get]
func (h *InventoryHandler) ListTransactions(c *fiber.Ctx) error {
	if ref := c.Query("reference"); ref != "" {
		list, err := h.ledger.ListTransactionsByReference(c.Context(), ref)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
		}
		return c.JSON(toTransactionDTOs(list))
	}

	productID := c.Query("product_id")
	warehouseID := c.Query("warehouse_id")
	if productID == "" || warehouseID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id y warehouse_id son requeridos"})
	}
	list, err := h.ledger.ListTransactions(c.Context(), productID, warehouseID, nil, nil,
		c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(toTransactionDTOs(list))
}

// LowStock godoc
// @Summary      Ítems bajo el umbral mínimo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.InventoryItemDTO
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	items, err := h.ledger.LowStock(c.Context(), companyID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := make([]dto.InventoryItemDTO, 0, len(items))
	for _, i := range items {
		out = append(out, dto.InventoryItemDTO{
			ProductID:      i.ProductID,
			WarehouseID:    i.WarehouseID,
			CurrentStock:   i.CurrentStock,
			ReservedStock:  i.ReservedStock,
			AvailableStock: i.AvailableStock(),
			MinimumStock:   i.MinimumStock,
			MaximumStock:   i.MaximumStock,
		})
	}
	return c.JSON(fiber.Map{"total": len(out), "items": out})
}

func toTransactionDTOs(list []*entity.InventoryTransaction) []dto.InventoryTransactionDTO {
	out := make([]dto.InventoryTransactionDTO, 0, len(list))
	for _, t := range list {
		out = append(out, dto.InventoryTransactionDTO{
			ID:            t.ID,
			ProductID:     t.ProductID,
			WarehouseID:   t.WarehouseID,
			Action:        t.Action,
			Quantity:      t.Quantity,
			PreviousStock: t.PreviousStock,
			NewStock:      t.NewStock,
			Reference:     t.Reference,
			Reason:        t.Reason,
			Actor:         t.Actor,
			CreatedAt:     t.CreatedAt,
		})
	}
	return out
}
