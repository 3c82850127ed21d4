package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Entregas-api/internal/domain"
	"github.com/jhoicas/Entregas-api/internal/domain/entity"
	"github.com/jhoicas/Entregas-api/internal/domain/repository"
)

var _ repository.InventoryTransactionRepository = (*InventoryTransactionRepo)(nil)

// InventoryTransactionRepo implementación del registro append-only del ledger
// sobre PostgreSQL (usable con pool o tx). Solo INSERT y SELECT.
type InventoryTransactionRepo struct {
	q Querier
}

// NewInventoryTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryTransactionRepository(q Querier) *InventoryTransactionRepo {
	return &InventoryTransactionRepo{q: q}
}

const txColumns = `id, product_id, warehouse_id, action, quantity, previous_stock, new_stock, reference, reason, actor, created_at`

// Create persiste una transacción del ledger.
func (r *InventoryTransactionRepo) Create(tx *entity.InventoryTransaction) error {
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	query := `
		INSERT INTO inventory_transactions (` + txColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(context.Background(), query,
		tx.ID, tx.ProductID, tx.WarehouseID, tx.Action, tx.Quantity,
		tx.PreviousStock, tx.NewStock, tx.Reference, tx.Reason, tx.Actor, tx.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: transacción %s/%s ya registrada",
				domain.ErrDuplicate, tx.Reference, tx.Action)
		}
		return fmt.Errorf("create inventory transaction: %w", err)
	}
	return nil
}

// FindByReference busca una transacción por clave de idempotencia
// (referencia + acción + ítem). nil, nil si no existe.
func (r *InventoryTransactionRepo) FindByReference(reference, action, productID, warehouseID string) (*entity.InventoryTransaction, error) {
	query := `
		SELECT ` + txColumns + `
		FROM inventory_transactions
		WHERE reference = $1 AND action = $2 AND product_id = $3 AND warehouse_id = $4
		LIMIT 1`
	var t entity.InventoryTransaction
	err := r.q.QueryRow(context.Background(), query, reference, action, productID, warehouseID).Scan(
		&t.ID, &t.ProductID, &t.WarehouseID, &t.Action, &t.Quantity,
		&t.PreviousStock, &t.NewStock, &t.Reference, &t.Reason, &t.Actor, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find transaction by reference: %w", err)
	}
	return &t, nil
}

// ListByItem historial de un ítem en orden cronológico ascendente (apto para replay).
func (r *InventoryTransactionRepo) ListByItem(productID, warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.InventoryTransaction, error) {
	query := `
		SELECT ` + txColumns + `
		FROM inventory_transactions WHERE product_id = $1 AND warehouse_id = $2`
	args := []any{productID, warehouseID}
	pos := 3
	if from != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at ASC, id ASC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	return r.list(query, args...)
}

// ListByReference transacciones originadas por una misma referencia, en orden de inserción.
func (r *InventoryTransactionRepo) ListByReference(reference string) ([]*entity.InventoryTransaction, error) {
	query := `
		SELECT ` + txColumns + `
		FROM inventory_transactions WHERE reference = $1
		ORDER BY created_at ASC, id ASC`
	return r.list(query, reference)
}

func (r *InventoryTransactionRepo) list(query string, args ...any) ([]*entity.InventoryTransaction, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryTransaction
	for rows.Next() {
		var t entity.InventoryTransaction
		if err := rows.Scan(&t.ID, &t.ProductID, &t.WarehouseID, &t.Action, &t.Quantity,
			&t.PreviousStock, &t.NewStock, &t.Reference, &t.Reason, &t.Actor, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}
