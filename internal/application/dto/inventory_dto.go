package dto

import "time"

// AdjustStockRequest body para POST /api/inventory/adjust.
type AdjustStockRequest struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	Delta       int64  `json:"delta"`  // con signo
	Reason      string `json:"reason"` // obligatorio
}

// InventoryItemDTO stock de un producto en una bodega.
type InventoryItemDTO struct {
	ProductID      string `json:"product_id"`
	WarehouseID    string `json:"warehouse_id"`
	CurrentStock   int64  `json:"current_stock"`
	ReservedStock  int64  `json:"reserved_stock"`
	AvailableStock int64  `json:"available_stock"`
	MinimumStock   int64  `json:"minimum_stock,omitempty"`
	MaximumStock   int64  `json:"maximum_stock,omitempty"`
}

// InventoryTransactionDTO registro del ledger.
type InventoryTransactionDTO struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	WarehouseID   string    `json:"warehouse_id"`
	Action        string    `json:"action"`
	Quantity      int64     `json:"quantity"`
	PreviousStock int64     `json:"previous_stock"`
	NewStock      int64     `json:"new_stock"`
	Reference     string    `json:"reference"`
	Reason        string    `json:"reason,omitempty"`
	Actor         string    `json:"actor"`
	CreatedAt     time.Time `json:"created_at"`
}
