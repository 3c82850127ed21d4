package entity

import "time"

// InventoryItem representa el stock de un producto en una bodega.
// Invariante: AvailableStock() >= 0 en todo momento; cada cambio de
// CurrentStock o ReservedStock va acompañado de una InventoryTransaction.
// Mutado exclusivamente por el ledger de inventario.
type InventoryItem struct {
	ProductID   string
	WarehouseID string
	CompanyID   string

	CurrentStock  int64 // existencia física
	ReservedStock int64 // apartado para pedidos confirmados/despachados

	// Umbrales de alerta, no límites duros.
	MinimumStock int64
	MaximumStock int64

	UpdatedAt time.Time
}

// AvailableStock existencia segura de prometer a pedidos nuevos.
func (i *InventoryItem) AvailableStock() int64 {
	return i.CurrentStock - i.ReservedStock
}

// BelowMinimum indica si el disponible cayó bajo el umbral configurado.
func (i *InventoryItem) BelowMinimum() bool {
	return i.MinimumStock > 0 && i.AvailableStock() < i.MinimumStock
}
