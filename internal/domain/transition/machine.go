// Package transition define la máquina de estados de un pedido y el efecto
// de inventario que cada arista exige. Es lógica pura: validar aquí, aplicar
// en el motor de transiciones.
package transition

import "github.com/jhoicas/Entregas-api/internal/domain/entity"

// Effect efecto de inventario requerido por una arista.
type Effect int

const (
	EffectNone    Effect = iota
	EffectReserve        // apartar las cantidades solicitadas
	EffectShip           // registro de auditoría de despacho, sin delta
	EffectDeduct         // descontar las cantidades reservadas
	EffectRelease        // devolver la reserva al disponible
)

// edges aristas permitidas por la máquina. reagendado puede reingresar
// directo a ruta o pasar de nuevo por confirmado (re-despacho).
var edges = map[string][]string{
	entity.OrderStatusPendiente:  {entity.OrderStatusConfirmado, entity.OrderStatusEnRuta},
	entity.OrderStatusConfirmado: {entity.OrderStatusEnRuta},
	entity.OrderStatusEnRuta: {
		entity.OrderStatusEntregado,
		entity.OrderStatusDevolucion,
		entity.OrderStatusReagendado,
	},
	entity.OrderStatusReagendado: {entity.OrderStatusEnRuta, entity.OrderStatusConfirmado},
}

// CanTransition indica si from → to es una arista válida de la máquina.
func CanTransition(from, to string) bool {
	for _, next := range edges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// EffectFor devuelve el efecto de inventario de la arista from → to.
// Precondición: CanTransition(from, to).
func EffectFor(from, to string) Effect {
	switch {
	case from == entity.OrderStatusPendiente && to == entity.OrderStatusConfirmado:
		return EffectReserve
	case from == entity.OrderStatusPendiente && to == entity.OrderStatusEnRuta:
		// Despacho directo: reserva y despacha en la misma transición.
		return EffectReserve
	case from == entity.OrderStatusConfirmado && to == entity.OrderStatusEnRuta:
		return EffectShip
	case from == entity.OrderStatusEnRuta && to == entity.OrderStatusEntregado:
		return EffectDeduct
	case from == entity.OrderStatusEnRuta && to == entity.OrderStatusDevolucion:
		return EffectRelease
	case from == entity.OrderStatusEnRuta && to == entity.OrderStatusReagendado:
		return EffectRelease
	case from == entity.OrderStatusReagendado && to == entity.OrderStatusEnRuta:
		return EffectReserve
	case from == entity.OrderStatusReagendado && to == entity.OrderStatusConfirmado:
		return EffectReserve
	}
	return EffectNone
}

// Terminal indica si el estado no admite más transiciones del motor.
func Terminal(status string) bool {
	return status == entity.OrderStatusEntregado || status == entity.OrderStatusDevolucion
}
