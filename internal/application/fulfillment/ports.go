package fulfillment

import (
	"context"

	"github.com/jhoicas/Entregas-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD con los
// repositorios que una transición necesita: el cambio de estado del pedido,
// el efecto de inventario, el historial y los contadores de ruta se
// confirman juntos o no se confirma nada.
type TxRunner interface {
	RunFulfillment(ctx context.Context, fn func(
		orders repository.OrderRepository,
		items repository.InventoryItemRepository,
		txs repository.InventoryTransactionRepository,
		history repository.StatusHistoryRepository,
		routes repository.RouteAssignmentRepository,
	) error) error
}
