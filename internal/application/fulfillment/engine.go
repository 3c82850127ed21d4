// Package fulfillment implementa el motor de transiciones de estado de
// pedidos. Valida la arista contra la máquina de estados, aplica el efecto de
// inventario en la misma transacción y mantiene historial y contadores de
// ruta. Si el efecto de inventario falla, la transición completa se rechaza y
// el pedido queda intacto.
package fulfillment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Entregas-api/internal/application/ledger"
	"github.com/jhoicas/Entregas-api/internal/domain"
	"github.com/jhoicas/Entregas-api/internal/domain/entity"
	"github.com/jhoicas/Entregas-api/internal/domain/repository"
	"github.com/jhoicas/Entregas-api/internal/domain/transition"
	"github.com/jhoicas/Entregas-api/pkg/logger"
)

// Engine motor de transiciones. Las llamadas para pedidos distintos pueden
// correr en paralelo; para el mismo pedido la versión optimista rechaza la
// segunda escritura con ErrConflicto y el caller reintenta con lectura fresca.
type Engine struct {
	txRunner TxRunner
	ledger   *ledger.Ledger
	log      *logger.Logger
}

// NewEngine construye el motor.
func NewEngine(txRunner TxRunner, ledger *ledger.Ledger, log *logger.Logger) *Engine {
	return &Engine{txRunner: txRunner, ledger: ledger, log: log}
}

// ApplyInput entrada de una transición de estado.
type ApplyInput struct {
	OrderID      string
	TargetStatus string
	Actor        string
	MessengerID  string // mensajero que ejecuta (despacho/entrega); opcional
	Notes        string
}

// Result resultado de una transición. Applied=false cuando la llamada fue un
// replay idempotente (el pedido ya estaba en el estado destino).
type Result struct {
	Order   *entity.Order
	Applied bool
}

// Apply valida y ejecuta la transición orderID → targetStatus.
//
// Reglas:
//   - la arista debe ser válida desde el estado actual (ErrTransicionInvalida);
//   - el efecto de inventario se aplica vía ledger dentro de la misma
//     transacción; cualquier fallo revierte todo;
//   - repetir la misma transición es un no-op (misma clave de idempotencia en
//     el ledger, pedido ya en destino);
//   - si el pedido pertenece a una ruta, sus contadores se actualizan aquí.
func (e *Engine) Apply(ctx context.Context, in ApplyInput) (*Result, error) {
	if in.OrderID == "" || in.Actor == "" {
		return nil, domain.ErrInvalidInput
	}
	if !entity.ValidStatus(in.TargetStatus) {
		return nil, fmt.Errorf("%w: estado %q no definido", domain.ErrInvalidInput, in.TargetStatus)
	}

	var result *Result
	err := e.txRunner.RunFulfillment(ctx, func(
		orders repository.OrderRepository,
		items repository.InventoryItemRepository,
		txs repository.InventoryTransactionRepository,
		history repository.StatusHistoryRepository,
		routes repository.RouteAssignmentRepository,
	) error {
		order, err := orders.GetByID(in.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("%w: pedido %s", domain.ErrNotFound, in.OrderID)
		}

		// Replay idempotente: ya está en el destino, nada que aplicar.
		if order.Status == in.TargetStatus {
			result = &Result{Order: order, Applied: false}
			return nil
		}

		from := order.Status
		if !transition.CanTransition(from, in.TargetStatus) {
			return fmt.Errorf("%w: %s → %s", domain.ErrTransicionInvalida, from, in.TargetStatus)
		}

		now := time.Now()
		if err := e.applyInventoryEffect(items, txs, order, from, in, now); err != nil {
			return err
		}

		order.Status = in.TargetStatus
		switch in.TargetStatus {
		case entity.OrderStatusConfirmado:
			order.Confirmed = true
			if in.MessengerID != "" {
				order.AssignedMessengerID = in.MessengerID
			}
		case entity.OrderStatusEnRuta:
			if in.MessengerID != "" {
				order.AssignedMessengerID = in.MessengerID
			}
		case entity.OrderStatusEntregado:
			order.FulfilledByID = e.fulfiller(order, in)
		case entity.OrderStatusReagendado:
			// Nuevo intento de entrega: nueva ventana de idempotencia.
			order.RescheduleCount++
		}
		order.UpdatedAt = now

		if err := orders.UpdateWithVersion(order); err != nil {
			return err
		}

		if err := history.Append(&entity.StatusHistory{
			ID:         uuid.New().String(),
			OrderID:    order.ID,
			FromStatus: from,
			ToStatus:   in.TargetStatus,
			Actor:      in.Actor,
			Notes:      in.Notes,
			CreatedAt:  now,
		}); err != nil {
			return err
		}

		if order.RouteAssignmentID != "" {
			if err := e.updateRouteCounters(routes, order, from, in.TargetStatus, now); err != nil {
				return err
			}
		}

		result = &Result{Order: order, Applied: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Applied && e.log != nil {
		e.log.Info().
			Str("order_id", in.OrderID).
			Str("to", in.TargetStatus).
			Str("actor", in.Actor).
			Msg("transición aplicada")
	}
	return result, nil
}

// applyInventoryEffect aplica sobre cada línea del pedido el efecto que la
// arista exige, con la clave de idempotencia del intento vigente.
func (e *Engine) applyInventoryEffect(
	items repository.InventoryItemRepository,
	txs repository.InventoryTransactionRepository,
	order *entity.Order,
	from string,
	in ApplyInput,
	now time.Time,
) error {
	ref := attemptRef(order)
	effect := transition.EffectFor(from, in.TargetStatus)

	for _, line := range order.Items {
		mov := ledger.MovementInput{
			ProductID:   line.ProductID,
			WarehouseID: line.WarehouseID,
			Quantity:    line.Quantity,
			Reference:   ref,
			Actor:       in.Actor,
		}
		switch effect {
		case transition.EffectReserve:
			if err := e.ledger.ReserveInTx(items, txs, mov, now); err != nil {
				return err
			}
			if in.TargetStatus == entity.OrderStatusEnRuta {
				if err := e.ledger.ShipInTx(items, txs, mov, now); err != nil {
					return err
				}
			}
		case transition.EffectShip:
			if err := e.ledger.ShipInTx(items, txs, mov, now); err != nil {
				return err
			}
		case transition.EffectDeduct:
			if err := e.ledger.DeductInTx(items, txs, mov, now); err != nil {
				return err
			}
		case transition.EffectRelease:
			if err := e.ledger.ReleaseInTx(items, txs, mov, now); err != nil {
				return err
			}
		}
	}
	return nil
}

// updateRouteCounters mantiene los contadores de desenlace de la ruta dueña
// del pedido y la marca completada cuando todos sus miembros tienen desenlace.
func (e *Engine) updateRouteCounters(routes repository.RouteAssignmentRepository, order *entity.Order, from, to string, now time.Time) error {
	a, err := routes.GetForUpdate(order.RouteAssignmentID)
	if err != nil {
		return err
	}
	if a == nil {
		if e.log != nil {
			e.log.Warn().Str("route_id", order.RouteAssignmentID).Str("order_id", order.ID).
				Msg("pedido apunta a una ruta inexistente")
		}
		return nil
	}

	switch to {
	case entity.OrderStatusEntregado:
		a.DeliveredCount++
	case entity.OrderStatusDevolucion:
		a.ReturnedCount++
	case entity.OrderStatusReagendado:
		a.RescheduledCount++
	case entity.OrderStatusEnRuta:
		if from == entity.OrderStatusReagendado {
			// Re-despacho dentro de la misma ruta: el pedido vuelve a estar activo
			// y una ruta ya cerrada por desenlaces reabre.
			a.RescheduledCount--
			if a.Status == entity.RouteStatusCompleted {
				a.Status = entity.RouteStatusInProgress
			}
		}
		if a.Status == entity.RouteStatusPending || a.Status == entity.RouteStatusAssigned {
			a.Status = entity.RouteStatusInProgress
		}
	case entity.OrderStatusConfirmado:
		if from == entity.OrderStatusReagendado {
			a.RescheduledCount--
			if a.Status == entity.RouteStatusCompleted {
				a.Status = entity.RouteStatusInProgress
			}
		}
	}

	if a.DeliveredCount+a.ReturnedCount+a.RescheduledCount >= a.OrderCount && a.OrderCount > 0 {
		a.Status = entity.RouteStatusCompleted
	}
	a.UpdatedAt = now
	return routes.Update(a)
}

// fulfiller mensajero que concretó la entrega: el indicado en la llamada, el
// asignado a la ruta, o en última instancia el actor.
func (e *Engine) fulfiller(order *entity.Order, in ApplyInput) string {
	if in.MessengerID != "" {
		return in.MessengerID
	}
	if order.AssignedMessengerID != "" {
		return order.AssignedMessengerID
	}
	return in.Actor
}

// attemptRef clave de idempotencia del intento de entrega vigente.
func attemptRef(order *entity.Order) string {
	return fmt.Sprintf("%s#%d", order.ID, order.RescheduleCount)
}
