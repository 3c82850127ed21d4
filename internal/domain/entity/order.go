package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un pedido. El estado vive en una sola columna (enum como string),
// se calcula y persiste en el momento de la transición, nunca se deriva de
// campos laterales anulables.
const (
	OrderStatusPendiente  = "pendiente"
	OrderStatusConfirmado = "confirmado"
	OrderStatusEnRuta     = "en_ruta"
	OrderStatusEntregado  = "entregado"
	OrderStatusDevolucion = "devolucion"
	OrderStatusReagendado = "reagendado"
)

// OrderItem una línea de producto declarada en el pedido.
type OrderItem struct {
	ProductID   string
	WarehouseID string
	Quantity    int64
}

// Order representa un pedido de entrega. Nunca se elimina: los pedidos
// devueltos permanecen como registros terminales para auditoría.
// Solo el motor de transiciones y el asignador de rutas lo mutan.
type Order struct {
	ID        string
	CompanyID string

	CustomerName    string
	CustomerPhone   string
	CustomerAddress string

	// Zona geográfica (provincia / cantón / distrito).
	Province string
	Canton   string
	District string

	// ZoneKey clave de zona normalizada (routing.ZoneKeyOf), calculada al
	// crear el pedido y persistida. Agrupación, filtros y rollups usan esta
	// columna para que "Limón" y "limon" sean siempre la misma zona.
	ZoneKey string

	TotalAmount decimal.Decimal
	Items       []OrderItem

	Status              string
	AssignedMessengerID string // mensajero asignado por ruteo ("" = sin asignar)
	FulfilledByID       string // mensajero que concretó la entrega ("" hasta entregado)
	RouteAssignmentID   string // ruta a la que pertenece ("" = sin ruta)
	RoutePosition       int    // posición dentro de la ruta (orden estable)
	Confirmed           bool

	// RescheduleCount cuenta los reagendados; delimita el alcance de
	// idempotencia de cada intento de entrega (ver ledger).
	RescheduleCount int

	// Version para bloqueo optimista: un UPDATE con versión vieja no afecta
	// filas y se reporta como ErrConflicto.
	Version int64

	RouteDate time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsTerminal indica si el pedido está en un estado terminal
// (entregado o devolucion; reagendado puede reingresar a ruta).
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusEntregado || o.Status == OrderStatusDevolucion
}

// ValidStatus indica si s es uno de los seis estados definidos.
func ValidStatus(s string) bool {
	switch s {
	case OrderStatusPendiente, OrderStatusConfirmado, OrderStatusEnRuta,
		OrderStatusEntregado, OrderStatusDevolucion, OrderStatusReagendado:
		return true
	}
	return false
}
