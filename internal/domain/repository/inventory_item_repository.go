package repository

import "github.com/jhoicas/Entregas-api/internal/domain/entity"

// InventoryItemRepository define el puerto para consultar/actualizar el stock
// por producto+bodega. Usado dentro de transacciones para garantizar
// consistencia; GetForUpdate serializa las mutaciones por ítem.
type InventoryItemRepository interface {
	Get(productID, warehouseID string) (*entity.InventoryItem, error)
	// GetForUpdate bloquea la fila para update (SELECT FOR UPDATE). Las
	// operaciones concurrentes sobre el mismo (producto, bodega) se excluyen
	// mutuamente; ítems distintos proceden en paralelo.
	GetForUpdate(productID, warehouseID string) (*entity.InventoryItem, error)
	Upsert(item *entity.InventoryItem) error
	// ListBelowMinimum ítems con disponible bajo el umbral mínimo configurado.
	ListBelowMinimum(companyID string) ([]*entity.InventoryItem, error)
}
