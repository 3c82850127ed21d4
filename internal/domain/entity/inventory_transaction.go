package entity

import "time"

// Acciones del ledger de inventario.
const (
	ActionReserve = "reserve" // aparta stock para un pedido (no toca existencia física)
	ActionRelease = "release" // cancela una reserva vigente
	ActionShip    = "ship"    // despacho a ruta, registro de auditoría sin delta
	ActionDeliver = "deliver" // entrega: descuenta existencia y libera la reserva
	ActionReturn  = "return"  // devolución post-entrega: repone existencia
	ActionAdjust  = "adjust"  // ajuste manual con motivo
)

// InventoryTransaction registro inmutable y append-only del ledger.
// Nunca se actualiza ni se borra; la existencia actual de un ítem es
// reconstruible reproduciendo su historial (ver Replay).
type InventoryTransaction struct {
	ID          string
	ProductID   string
	WarehouseID string
	Action      string

	// Quantity delta con signo. Para deliver/return/adjust aplica sobre
	// CurrentStock; para reserve/release aplica sobre ReservedStock;
	// para ship es cero.
	Quantity int64

	// Existencia física antes y después de la operación.
	PreviousStock int64
	NewStock      int64

	// Reference clave de idempotencia: "pedidoID#intento" cuando la origina
	// una transición, o un identificador propio en ajustes manuales.
	Reference string
	Reason    string // motivo en ajustes; vacío en el resto

	Actor     string
	CreatedAt time.Time
}

// affectsCurrentStock indica si la acción modifica la existencia física.
func affectsCurrentStock(action string) bool {
	return action == ActionDeliver || action == ActionReturn || action == ActionAdjust
}

// Replay reproduce el historial de transacciones de un ítem desde cero y
// devuelve la existencia física resultante. Debe coincidir exactamente con
// el CurrentStock materializado del ítem.
func Replay(txs []*InventoryTransaction) int64 {
	var stock int64
	for _, tx := range txs {
		if affectsCurrentStock(tx.Action) {
			stock += tx.Quantity
		}
	}
	return stock
}
