package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/Entregas-api/internal/application/fulfillment"
	"github.com/jhoicas/Entregas-api/internal/application/ledger"
	"github.com/jhoicas/Entregas-api/internal/domain/repository"
)

// Ensure TxRunner implements ledger.TxRunner and fulfillment.TxRunner.
var _ ledger.TxRunner = (*TxRunner)(nil)
var _ fulfillment.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con los repos del ledger atados a la
// tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	items repository.InventoryItemRepository,
	txs repository.InventoryTransactionRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	itemRepo := NewInventoryItemRepository(tx)
	txRepo := NewInventoryTransactionRepository(tx)

	if err := fn(itemRepo, txRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunFulfillment inicia una transacción con los repos que una transición de
// pedido necesita: pedido, ledger, historial y contadores de ruta se
// confirman juntos.
func (r *TxRunner) RunFulfillment(ctx context.Context, fn func(
	orders repository.OrderRepository,
	items repository.InventoryItemRepository,
	txs repository.InventoryTransactionRepository,
	history repository.StatusHistoryRepository,
	routes repository.RouteAssignmentRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	orderRepo := NewOrderRepository(tx)
	itemRepo := NewInventoryItemRepository(tx)
	txRepo := NewInventoryTransactionRepository(tx)
	historyRepo := NewStatusHistoryRepository(tx)
	routeRepo := NewRouteAssignmentRepository(tx)

	if err := fn(orderRepo, itemRepo, txRepo, historyRepo, routeRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
