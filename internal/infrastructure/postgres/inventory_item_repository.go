package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Entregas-api/internal/domain/entity"
	"github.com/jhoicas/Entregas-api/internal/domain/repository"
)

var _ repository.InventoryItemRepository = (*InventoryItemRepo)(nil)

// InventoryItemRepo implementación de InventoryItemRepository sobre PostgreSQL (usable con pool o tx).
type InventoryItemRepo struct {
	q Querier
}

// NewInventoryItemRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewInventoryItemRepository(q Querier) *InventoryItemRepo {
	return &InventoryItemRepo{q: q}
}

const itemColumns = `product_id, warehouse_id, company_id, current_stock, reserved_stock, minimum_stock, maximum_stock, updated_at`

// Get obtiene el stock de un producto en una bodega. nil, nil si no existe.
func (r *InventoryItemRepo) Get(productID, warehouseID string) (*entity.InventoryItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM inventory_items WHERE product_id = $1 AND warehouse_id = $2`
	return r.scanOne(query, productID, warehouseID)
}

// GetForUpdate obtiene el stock y bloquea la fila para update (SELECT FOR UPDATE).
// Las operaciones concurrentes sobre el mismo (producto, bodega) se serializan aquí.
func (r *InventoryItemRepo) GetForUpdate(productID, warehouseID string) (*entity.InventoryItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM inventory_items WHERE product_id = $1 AND warehouse_id = $2
		FOR UPDATE`
	return r.scanOne(query, productID, warehouseID)
}

func (r *InventoryItemRepo) scanOne(query string, args ...any) (*entity.InventoryItem, error) {
	var i entity.InventoryItem
	err := r.q.QueryRow(context.Background(), query, args...).Scan(
		&i.ProductID, &i.WarehouseID, &i.CompanyID,
		&i.CurrentStock, &i.ReservedStock, &i.MinimumStock, &i.MaximumStock,
		&i.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory item: %w", err)
	}
	return &i, nil
}

// Upsert inserta o actualiza el stock de un producto en una bodega.
func (r *InventoryItemRepo) Upsert(item *entity.InventoryItem) error {
	query := `
		INSERT INTO inventory_items (product_id, warehouse_id, company_id, current_stock, reserved_stock, minimum_stock, maximum_stock, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (product_id, warehouse_id)
		DO UPDATE SET current_stock = EXCLUDED.current_stock,
		              reserved_stock = EXCLUDED.reserved_stock,
		              minimum_stock = EXCLUDED.minimum_stock,
		              maximum_stock = EXCLUDED.maximum_stock,
		              updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(context.Background(), query,
		item.ProductID, item.WarehouseID, item.CompanyID,
		item.CurrentStock, item.ReservedStock, item.MinimumStock, item.MaximumStock,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert inventory item: %w", err)
	}
	return nil
}

// ListBelowMinimum ítems con disponible (existencia − reservado) bajo su umbral mínimo.
func (r *InventoryItemRepo) ListBelowMinimum(companyID string) ([]*entity.InventoryItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM inventory_items
		WHERE company_id = $1
		  AND minimum_stock > 0
		  AND current_stock - reserved_stock < minimum_stock
		ORDER BY product_id, warehouse_id`
	rows, err := r.q.Query(context.Background(), query, companyID)
	if err != nil {
		return nil, fmt.Errorf("list below minimum: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryItem
	for rows.Next() {
		var i entity.InventoryItem
		if err := rows.Scan(&i.ProductID, &i.WarehouseID, &i.CompanyID,
			&i.CurrentStock, &i.ReservedStock, &i.MinimumStock, &i.MaximumStock,
			&i.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		list = append(list, &i)
	}
	return list, rows.Err()
}
