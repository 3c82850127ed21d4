package ledger

import (
	"context"

	"github.com/jhoicas/Entregas-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza la atomicidad del ledger: el stock
// y su transacción se persisten juntos o no se persiste nada.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		items repository.InventoryItemRepository,
		txs repository.InventoryTransactionRepository,
	) error) error
}
