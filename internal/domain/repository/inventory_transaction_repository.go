package repository

import (
	"time"

	"github.com/jhoicas/Entregas-api/internal/domain/entity"
)

// InventoryTransactionRepository puerto del registro append-only del ledger.
// Solo inserta y consulta; nunca actualiza ni borra.
type InventoryTransactionRepository interface {
	Create(tx *entity.InventoryTransaction) error
	// FindByReference busca una transacción por clave de idempotencia
	// (referencia + acción + ítem). nil, nil si no existe.
	FindByReference(reference, action, productID, warehouseID string) (*entity.InventoryTransaction, error)
	// ListByItem historial de un ítem en orden cronológico ascendente
	// (apto para replay).
	ListByItem(productID, warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.InventoryTransaction, error)
	// ListByReference transacciones originadas por una misma referencia.
	ListByReference(reference string) ([]*entity.InventoryTransaction, error)
}
