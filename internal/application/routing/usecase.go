// Package routing implementa el ciclo de planificación de rutas: agrupa los
// pedidos pendientes por zona, los empaqueta en rutas de capacidad fija
// (lógica pura en internal/domain/routing), persiste las asignaciones y
// confirma los pedidos colocados a través del motor de transiciones.
package routing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Entregas-api/internal/application/fulfillment"
	"github.com/jhoicas/Entregas-api/internal/domain"
	"github.com/jhoicas/Entregas-api/internal/domain/entity"
	"github.com/jhoicas/Entregas-api/internal/domain/repository"
	domainrouting "github.com/jhoicas/Entregas-api/internal/domain/routing"
	"github.com/jhoicas/Entregas-api/pkg/logger"
)

// Planner caso de uso del ciclo de planificación. Corre una vez por fecha de
// ruta; re-ejecutarlo solo agrega asignaciones nuevas o completa las
// `pending`; nunca reabre ni mueve pedidos de rutas en curso o completadas.
type Planner struct {
	txRunner      fulfillment.TxRunner
	orderRepo     repository.OrderRepository
	messengerRepo repository.MessengerRepository
	routeRepo     repository.RouteAssignmentRepository
	engine        *fulfillment.Engine
	sheets        SheetGenerator
	capacity      int
	log           *logger.Logger
}

// NewPlanner construye el planificador. capacity <= 0 usa la capacidad por
// defecto (30 pedidos por mensajero).
func NewPlanner(
	txRunner fulfillment.TxRunner,
	orderRepo repository.OrderRepository,
	messengerRepo repository.MessengerRepository,
	routeRepo repository.RouteAssignmentRepository,
	engine *fulfillment.Engine,
	sheets SheetGenerator,
	capacity int,
	log *logger.Logger,
) *Planner {
	if capacity <= 0 {
		capacity = entity.DefaultRouteCapacity
	}
	return &Planner{
		txRunner:      txRunner,
		orderRepo:     orderRepo,
		messengerRepo: messengerRepo,
		routeRepo:     routeRepo,
		engine:        engine,
		sheets:        sheets,
		capacity:      capacity,
		log:           log,
	}
}

// PlanInput entrada de un ciclo de asignación.
type PlanInput struct {
	RouteDate time.Time
	CompanyID string
	Actor     string
}

// PlanResult resultado del ciclo: asignaciones tocadas y pedidos sin colocar
// con su motivo. Σ pedidos colocados + sin colocar == pedidos de entrada.
type PlanResult struct {
	Assignments []*entity.RouteAssignment
	Unassigned  []domainrouting.Unassigned
	InputCount  int
	PlacedCount int
	Confirmed   int
}

// AssignRoutes ejecuta un ciclo de planificación para la fecha indicada.
func (p *Planner) AssignRoutes(ctx context.Context, in PlanInput) (*PlanResult, error) {
	if in.Actor == "" {
		return nil, domain.ErrInvalidInput
	}

	pending, err := p.orderRepo.ListPendingUnassigned(in.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("pedidos pendientes: %w", err)
	}
	if len(pending) == 0 {
		return &PlanResult{}, nil
	}

	messengers, err := p.messengerRepo.ListActive(in.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("mensajeros activos: %w", err)
	}

	available, open, err := p.availability(messengers, in.RouteDate, in.CompanyID)
	if err != nil {
		return nil, err
	}

	groups := domainrouting.GroupByZone(pending)
	packed := domainrouting.PackRoutes(groups, available, open, p.capacity)

	if packed.PlacedCount()+len(packed.Unassigned) != len(pending) {
		// Guardia de la propiedad de conservación; no debería ocurrir.
		return nil, fmt.Errorf("empaquetado inconsistente: %d colocados + %d sin colocar != %d de entrada",
			packed.PlacedCount(), len(packed.Unassigned), len(pending))
	}

	touched, err := p.persist(ctx, packed, in)
	if err != nil {
		return nil, err
	}

	confirmed := p.confirmPlaced(ctx, packed, in.Actor)

	assignments := make([]*entity.RouteAssignment, 0, len(touched))
	for _, id := range touched {
		a, err := p.routeRepo.GetByID(id)
		if err != nil {
			return nil, err
		}
		if a != nil {
			assignments = append(assignments, a)
		}
	}

	if p.log != nil {
		p.log.Info().
			Int("input", len(pending)).
			Int("placed", packed.PlacedCount()).
			Int("unassigned", len(packed.Unassigned)).
			Int("confirmed", confirmed).
			Msg("ciclo de planificación ejecutado")
	}

	return &PlanResult{
		Assignments: assignments,
		Unassigned:  packed.Unassigned,
		InputCount:  len(pending),
		PlacedCount: packed.PlacedCount(),
		Confirmed:   confirmed,
	}, nil
}

// availability separa mensajeros disponibles y siembra las rutas `pending`
// existentes de la fecha como capacidad abierta. Mensajeros con ruta en curso
// o completada ese día quedan fuera del ciclo.
func (p *Planner) availability(messengers []*entity.Messenger, date time.Time, companyID string) ([]*entity.Messenger, []*domainrouting.OpenRoute, error) {
	existing, err := p.routeRepo.ListByDate(date, companyID)
	if err != nil {
		return nil, nil, fmt.Errorf("rutas existentes: %w", err)
	}

	closedBy := make(map[string]bool)
	var open []*domainrouting.OpenRoute
	for _, a := range existing {
		if a.Closed() {
			closedBy[a.MessengerID] = true
			continue
		}
		remaining := p.capacity - a.OrderCount
		if remaining < 0 {
			remaining = 0
		}
		open = append(open, &domainrouting.OpenRoute{
			AssignmentID: a.ID,
			MessengerID:  a.MessengerID,
			Zone:         a.Zone,
			Remaining:    remaining,
		})
	}

	var available []*entity.Messenger
	for _, m := range messengers {
		if !closedBy[m.ID] {
			available = append(available, m)
		}
	}
	return available, open, nil
}

// persist crea/actualiza las asignaciones y fija la membresía de los pedidos
// en una sola transacción. Devuelve los IDs de asignación tocados.
func (p *Planner) persist(ctx context.Context, packed domainrouting.PackResult, in PlanInput) ([]string, error) {
	var touched []string
	now := time.Now()

	err := p.txRunner.RunFulfillment(ctx, func(
		orders repository.OrderRepository,
		_ repository.InventoryItemRepository,
		_ repository.InventoryTransactionRepository,
		_ repository.StatusHistoryRepository,
		routes repository.RouteAssignmentRepository,
	) error {
		for _, r := range packed.Routes {
			if len(r.Orders) == 0 {
				continue // siembra que no recibió pedidos en este ciclo
			}

			var a *entity.RouteAssignment
			if r.AssignmentID == "" {
				a = &entity.RouteAssignment{
					ID:          uuid.New().String(),
					CompanyID:   in.CompanyID,
					MessengerID: r.MessengerID,
					RouteDate:   in.RouteDate,
					Zone:        r.Zone,
					Status:      entity.RouteStatusPending,
					CreatedAt:   now,
					UpdatedAt:   now,
				}
				if err := routes.Create(a); err != nil {
					return err
				}
				r.AssignmentID = a.ID
			} else {
				var err error
				a, err = routes.GetForUpdate(r.AssignmentID)
				if err != nil {
					return err
				}
				if a == nil {
					return fmt.Errorf("%w: asignación %s", domain.ErrNotFound, r.AssignmentID)
				}
				if a.Closed() {
					return fmt.Errorf("%w: la ruta %s ya está en curso", domain.ErrConflicto, a.ID)
				}
			}

			base := a.OrderCount
			for i, o := range r.Orders {
				if err := orders.AssignToRoute(o.ID, a.ID, r.MessengerID, base+i); err != nil {
					return err
				}
				o.RouteAssignmentID = a.ID
				o.AssignedMessengerID = r.MessengerID
			}
			a.OrderCount += len(r.Orders)
			a.UpdatedAt = now
			if err := routes.Update(a); err != nil {
				return err
			}
			touched = append(touched, a.ID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("persistir asignaciones: %w", err)
	}
	return touched, nil
}

// confirmPlaced transiciona cada pedido colocado a `confirmado` (reserva su
// inventario). Un fallo no revierte la membresía: el pedido queda `pendiente`
// dentro de su ruta. El planificador nunca vuelve a tomar pedidos ya ruteados
// (solo considera los sin ruta asignada), así que la recuperación es la
// transición manual a `confirmado`.
func (p *Planner) confirmPlaced(ctx context.Context, packed domainrouting.PackResult, actor string) int {
	confirmed := 0
	for _, r := range packed.Routes {
		for _, o := range r.Orders {
			_, err := p.engine.Apply(ctx, fulfillment.ApplyInput{
				OrderID:      o.ID,
				TargetStatus: entity.OrderStatusConfirmado,
				Actor:        actor,
				MessengerID:  r.MessengerID,
			})
			if err != nil {
				if p.log != nil {
					p.log.Warn().Err(err).
						Str("order_id", o.ID).
						Str("route_id", r.AssignmentID).
						Msg("pedido colocado pero sin confirmar")
				}
				continue
			}
			confirmed++
		}
	}
	return confirmed
}

// MarkAssigned marca una ruta `pending` como `assigned` una vez revisada por
// el operador (todos sus pedidos confirmados).
func (p *Planner) MarkAssigned(ctx context.Context, routeID string) error {
	a, err := p.routeRepo.GetByID(routeID)
	if err != nil {
		return err
	}
	if a == nil {
		return fmt.Errorf("%w: asignación %s", domain.ErrNotFound, routeID)
	}
	if a.Status != entity.RouteStatusPending {
		return fmt.Errorf("%w: la ruta está %s", domain.ErrConflicto, a.Status)
	}
	a.Status = entity.RouteStatusAssigned
	a.UpdatedAt = time.Now()
	return p.routeRepo.Update(a)
}

// RouteSheet genera la hoja de ruta (PDF) de una asignación.
func (p *Planner) RouteSheet(ctx context.Context, routeID string) ([]byte, error) {
	a, err := p.routeRepo.GetByID(routeID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("%w: asignación %s", domain.ErrNotFound, routeID)
	}
	m, err := p.messengerRepo.GetByID(a.MessengerID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%w: mensajero %s", domain.ErrNotFound, a.MessengerID)
	}
	orders, err := p.orderRepo.ListByRoute(routeID)
	if err != nil {
		return nil, err
	}
	return p.sheets.GenerateRouteSheet(ctx, a, m, orders)
}
