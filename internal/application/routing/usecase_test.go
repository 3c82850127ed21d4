package routing_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Entregas-api/internal/application/fulfillment"
	"github.com/jhoicas/Entregas-api/internal/application/ledger"
	approuting "github.com/jhoicas/Entregas-api/internal/application/routing"
	"github.com/jhoicas/Entregas-api/internal/domain"
	"github.com/jhoicas/Entregas-api/internal/domain/entity"
	"github.com/jhoicas/Entregas-api/internal/domain/repository"
	domainrouting "github.com/jhoicas/Entregas-api/internal/domain/routing"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
// ──────────────────────────────────────────────────────────────────────────────

type memOrders struct {
	byID map[string]*entity.Order
}

func (m *memOrders) Create(order *entity.Order) error {
	cp := *order
	m.byID[order.ID] = &cp
	return nil
}

func (m *memOrders) GetByID(id string) (*entity.Order, error) {
	order, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *order
	return &cp, nil
}

func (m *memOrders) UpdateWithVersion(order *entity.Order) error {
	stored, ok := m.byID[order.ID]
	if !ok || stored.Version != order.Version {
		return fmt.Errorf("%w: pedido %s", domain.ErrConflicto, order.ID)
	}
	order.Version++
	cp := *order
	m.byID[order.ID] = &cp
	return nil
}

func (m *memOrders) List(filter repository.OrderFilter) ([]*entity.Order, error) {
	return nil, nil
}

func (m *memOrders) ListPendingUnassigned(companyID string) ([]*entity.Order, error) {
	var out []*entity.Order
	for _, o := range m.byID {
		if o.CompanyID == companyID && o.Status == entity.OrderStatusPendiente && o.RouteAssignmentID == "" {
			cp := *o
			out = append(out, &cp)
		}
	}
	// Orden de creación estable, como la consulta real.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].ID < out[i].ID {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (m *memOrders) ListByRoute(routeID string) ([]*entity.Order, error) {
	var out []*entity.Order
	for _, o := range m.byID {
		if o.RouteAssignmentID == routeID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memOrders) AssignToRoute(orderID, routeID, messengerID string, position int) error {
	stored, ok := m.byID[orderID]
	if !ok {
		return fmt.Errorf("%w: pedido %s", domain.ErrNotFound, orderID)
	}
	stored.RouteAssignmentID = routeID
	stored.AssignedMessengerID = messengerID
	stored.RoutePosition = position
	return nil
}

type memItems struct {
	byKey map[string]*entity.InventoryItem
}

func (m *memItems) Get(productID, warehouseID string) (*entity.InventoryItem, error) {
	item, ok := m.byKey[productID+"/"+warehouseID]
	if !ok {
		return nil, nil
	}
	cp := *item
	return &cp, nil
}

func (m *memItems) GetForUpdate(productID, warehouseID string) (*entity.InventoryItem, error) {
	return m.Get(productID, warehouseID)
}

func (m *memItems) Upsert(item *entity.InventoryItem) error {
	cp := *item
	m.byKey[item.ProductID+"/"+item.WarehouseID] = &cp
	return nil
}

func (m *memItems) ListBelowMinimum(companyID string) ([]*entity.InventoryItem, error) {
	return nil, nil
}

type memTxs struct {
	list []*entity.InventoryTransaction
}

func (m *memTxs) Create(tx *entity.InventoryTransaction) error {
	cp := *tx
	m.list = append(m.list, &cp)
	return nil
}

func (m *memTxs) FindByReference(reference, action, productID, warehouseID string) (*entity.InventoryTransaction, error) {
	for _, tx := range m.list {
		if tx.Reference == reference && tx.Action == action &&
			tx.ProductID == productID && tx.WarehouseID == warehouseID {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memTxs) ListByItem(productID, warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.InventoryTransaction, error) {
	return nil, nil
}

func (m *memTxs) ListByReference(reference string) ([]*entity.InventoryTransaction, error) {
	var out []*entity.InventoryTransaction
	for _, tx := range m.list {
		if tx.Reference == reference {
			cp := *tx
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memHistory struct {
	list []*entity.StatusHistory
}

func (m *memHistory) Append(h *entity.StatusHistory) error {
	cp := *h
	m.list = append(m.list, &cp)
	return nil
}

func (m *memHistory) ListByOrder(orderID string) ([]*entity.StatusHistory, error) {
	return nil, nil
}

type memRoutes struct {
	byID map[string]*entity.RouteAssignment
}

func (m *memRoutes) Create(a *entity.RouteAssignment) error {
	cp := *a
	m.byID[a.ID] = &cp
	return nil
}

func (m *memRoutes) GetByID(id string) (*entity.RouteAssignment, error) {
	a, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *memRoutes) GetForUpdate(id string) (*entity.RouteAssignment, error) {
	return m.GetByID(id)
}

func (m *memRoutes) Update(a *entity.RouteAssignment) error {
	cp := *a
	m.byID[a.ID] = &cp
	return nil
}

func (m *memRoutes) ListByDate(routeDate time.Time, companyID string) ([]*entity.RouteAssignment, error) {
	var out []*entity.RouteAssignment
	for _, a := range m.byID {
		if a.CompanyID == companyID && a.RouteDate.Equal(routeDate) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memMessengers struct {
	list []*entity.Messenger
}

func (m *memMessengers) Create(msg *entity.Messenger) error { return nil }

func (m *memMessengers) GetByID(id string) (*entity.Messenger, error) {
	for _, msg := range m.list {
		if msg.ID == id {
			return msg, nil
		}
	}
	return nil, nil
}

func (m *memMessengers) Update(msg *entity.Messenger) error { return nil }

func (m *memMessengers) ListActive(companyID string) ([]*entity.Messenger, error) {
	var out []*entity.Messenger
	for _, msg := range m.list {
		if msg.CompanyID == companyID && msg.Active {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memMessengers) List(companyID string, limit, offset int) ([]*entity.Messenger, error) {
	return m.list, nil
}

type memRunner struct {
	orders  *memOrders
	items   *memItems
	txs     *memTxs
	history *memHistory
	routes  *memRoutes
}

func (r *memRunner) Run(ctx context.Context, fn func(
	items repository.InventoryItemRepository,
	txs repository.InventoryTransactionRepository,
) error) error {
	return fn(r.items, r.txs)
}

func (r *memRunner) RunFulfillment(ctx context.Context, fn func(
	orders repository.OrderRepository,
	items repository.InventoryItemRepository,
	txs repository.InventoryTransactionRepository,
	history repository.StatusHistoryRepository,
	routes repository.RouteAssignmentRepository,
) error) error {
	return fn(r.orders, r.items, r.txs, r.history, r.routes)
}

type stubSheets struct{}

func (stubSheets) GenerateRouteSheet(ctx context.Context, a *entity.RouteAssignment, m *entity.Messenger, orders []*entity.Order) ([]byte, error) {
	return []byte("%PDF-stub"), nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Armado
// ──────────────────────────────────────────────────────────────────────────────

var routeDate = time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

type planWorld struct {
	planner    *approuting.Planner
	orders     *memOrders
	items      *memItems
	routes     *memRoutes
	messengers *memMessengers
}

func newPlanWorld(capacity int) *planWorld {
	w := &planWorld{
		orders:     &memOrders{byID: make(map[string]*entity.Order)},
		items:      &memItems{byKey: make(map[string]*entity.InventoryItem)},
		routes:     &memRoutes{byID: make(map[string]*entity.RouteAssignment)},
		messengers: &memMessengers{},
	}
	runner := &memRunner{
		orders: w.orders, items: w.items, txs: &memTxs{},
		history: &memHistory{}, routes: w.routes,
	}
	led := ledger.New(runner, w.items, runner.txs, nil)
	engine := fulfillment.NewEngine(runner, led, nil)
	w.planner = approuting.NewPlanner(runner, w.orders, w.messengers, w.routes, engine, stubSheets{}, capacity, nil)
	return w
}

func (w *planWorld) seedStock(current int64) {
	w.items.byKey["prod-1/bod-1"] = &entity.InventoryItem{
		ProductID: "prod-1", WarehouseID: "bod-1", CompanyID: "emp-1", CurrentStock: current,
	}
}

func (w *planWorld) seedPending(zone string, n int) {
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%s-%03d", zone, i)
		w.orders.byID[id] = &entity.Order{
			ID:           id,
			CompanyID:    "emp-1",
			CustomerName: "Cliente " + id,
			District:     zone,
			TotalAmount:  decimal.NewFromInt(1000),
			Items:        []entity.OrderItem{{ProductID: "prod-1", WarehouseID: "bod-1", Quantity: 1}},
			Status:       entity.OrderStatusPendiente,
			RouteDate:    routeDate,
		}
	}
}

func (w *planWorld) seedMessenger(id string, zones ...string) {
	w.messengers.list = append(w.messengers.list, &entity.Messenger{
		ID: id, CompanyID: "emp-1", Name: "Mensajero " + id, Zones: zones, Active: true,
	})
}

func (w *planWorld) plan(t *testing.T) *approuting.PlanResult {
	t.Helper()
	result, err := w.planner.AssignRoutes(context.Background(), approuting.PlanInput{
		RouteDate: routeDate,
		CompanyID: "emp-1",
		Actor:     "operador-1",
	})
	require.NoError(t, err)
	return result
}

// ──────────────────────────────────────────────────────────────────────────────
// AssignRoutes
// ──────────────────────────────────────────────────────────────────────────────

// Ciclo feliz: los pendientes de una zona caen en una ruta nueva, quedan
// confirmados y el inventario reservado.
func TestAssignRoutes_CicloCompleto(t *testing.T) {
	w := newPlanWorld(30)
	w.seedStock(100)
	w.seedPending("pavas", 5)
	w.seedMessenger("m1", "pavas")

	result := w.plan(t)

	assert.Equal(t, 5, result.InputCount)
	assert.Equal(t, 5, result.PlacedCount)
	assert.Equal(t, 5, result.Confirmed)
	assert.Empty(t, result.Unassigned)
	require.Len(t, result.Assignments, 1)

	a := result.Assignments[0]
	assert.Equal(t, "m1", a.MessengerID)
	assert.Equal(t, "pavas", a.Zone)
	assert.Equal(t, entity.RouteStatusPending, a.Status)
	assert.Equal(t, 5, a.OrderCount)

	for _, o := range w.orders.byID {
		assert.Equal(t, entity.OrderStatusConfirmado, o.Status)
		assert.Equal(t, a.ID, o.RouteAssignmentID)
		assert.Equal(t, "m1", o.AssignedMessengerID)
	}

	item, _ := w.items.Get("prod-1", "bod-1")
	assert.Equal(t, int64(5), item.ReservedStock, "cada pedido confirmado reserva su línea")
}

// Sin pendientes el ciclo es un no-op limpio.
func TestAssignRoutes_SinPendientes(t *testing.T) {
	w := newPlanWorld(30)
	w.seedMessenger("m1")

	result := w.plan(t)

	assert.Zero(t, result.InputCount)
	assert.Empty(t, result.Assignments)
	assert.Empty(t, result.Unassigned)
}

// Los pedidos de zonas sin cobertura se reportan, nunca truncan el ciclo.
func TestAssignRoutes_ZonaSinCobertura(t *testing.T) {
	w := newPlanWorld(30)
	w.seedStock(100)
	w.seedPending("limon", 3)
	w.seedPending("pavas", 2)
	w.seedMessenger("m1", "pavas")

	result := w.plan(t)

	assert.Equal(t, 5, result.InputCount)
	assert.Equal(t, 2, result.PlacedCount)
	require.Len(t, result.Unassigned, 3)
	for _, u := range result.Unassigned {
		assert.Equal(t, domainrouting.ReasonZoneUncovered, u.Reason)
		stored, _ := w.orders.GetByID(u.Order.ID)
		assert.Empty(t, stored.RouteAssignmentID, "un pedido sin colocar no queda amarrado a ruta")
		assert.Equal(t, entity.OrderStatusPendiente, stored.Status)
	}
}

// Si la confirmación falla (sin stock), la membresía de ruta se conserva y el
// pedido queda pendiente dentro de su ruta; lo recupera la transición manual
// a confirmado, no un ciclo posterior del planificador.
func TestAssignRoutes_ConfirmacionFallidaConservaMembresia(t *testing.T) {
	w := newPlanWorld(30)
	w.seedStock(0)
	w.seedPending("pavas", 2)
	w.seedMessenger("m1", "pavas")

	result := w.plan(t)

	assert.Equal(t, 2, result.PlacedCount)
	assert.Zero(t, result.Confirmed, "sin stock no se confirma ninguno")
	require.Len(t, result.Assignments, 1)

	for _, o := range w.orders.byID {
		assert.Equal(t, entity.OrderStatusPendiente, o.Status)
		assert.NotEmpty(t, o.RouteAssignmentID, "el pedido queda en la ruta aunque no confirme")
	}
}

// Un pedido ruteado pero sin confirmar no vuelve a entrar al planificador: el
// ciclo solo toma pedidos sin ruta, así que reponer stock no lo confirma solo;
// lo recupera la transición manual.
func TestAssignRoutes_NoRetomaPedidosYaRuteados(t *testing.T) {
	w := newPlanWorld(30)
	w.seedStock(0)
	w.seedPending("pavas", 2)
	w.seedMessenger("m1", "pavas")

	first := w.plan(t)
	assert.Equal(t, 2, first.PlacedCount)
	assert.Zero(t, first.Confirmed)

	w.seedStock(100)
	second := w.plan(t)

	assert.Zero(t, second.InputCount, "los ruteados-pendientes no son insumo del ciclo")
	assert.Zero(t, second.Confirmed)
	for _, o := range w.orders.byID {
		assert.Equal(t, entity.OrderStatusPendiente, o.Status)
		assert.NotEmpty(t, o.RouteAssignmentID, "conserva la membresía del primer ciclo")
	}
}

// Re-ejecutar el ciclo con una ruta pending existente agrega a esa ruta en
// lugar de abrir otra.
func TestAssignRoutes_ReutilizaRutaPending(t *testing.T) {
	w := newPlanWorld(30)
	w.seedStock(100)
	w.seedMessenger("m1", "pavas")
	w.routes.byID["ruta-previa"] = &entity.RouteAssignment{
		ID:          "ruta-previa",
		CompanyID:   "emp-1",
		MessengerID: "m1",
		RouteDate:   routeDate,
		Zone:        "pavas",
		Status:      entity.RouteStatusPending,
		OrderCount:  2,
	}
	w.seedPending("pavas", 3)

	result := w.plan(t)

	require.Len(t, result.Assignments, 1)
	assert.Equal(t, "ruta-previa", result.Assignments[0].ID)
	assert.Equal(t, 5, result.Assignments[0].OrderCount)

	// Las posiciones nuevas continúan después de las existentes.
	positions := make(map[int]bool)
	for _, o := range w.orders.byID {
		positions[o.RoutePosition] = true
	}
	assert.True(t, positions[2] && positions[3] && positions[4])
}

// Un mensajero con ruta en curso ese día queda fuera del ciclo.
func TestAssignRoutes_MensajeroEnRutaQuedaFuera(t *testing.T) {
	w := newPlanWorld(30)
	w.seedStock(100)
	w.seedMessenger("m1", "pavas")
	w.routes.byID["ruta-en-curso"] = &entity.RouteAssignment{
		ID:          "ruta-en-curso",
		CompanyID:   "emp-1",
		MessengerID: "m1",
		RouteDate:   routeDate,
		Zone:        "pavas",
		Status:      entity.RouteStatusInProgress,
		OrderCount:  10,
	}
	w.seedPending("pavas", 2)

	result := w.plan(t)

	assert.Zero(t, result.PlacedCount)
	require.Len(t, result.Unassigned, 2)
	route, _ := w.routes.GetByID("ruta-en-curso")
	assert.Equal(t, 10, route.OrderCount, "una ruta en curso nunca recibe pedidos nuevos")
}

func TestAssignRoutes_SinActor(t *testing.T) {
	w := newPlanWorld(30)

	_, err := w.planner.AssignRoutes(context.Background(), approuting.PlanInput{
		RouteDate: routeDate, CompanyID: "emp-1",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// MarkAssigned y hoja de ruta
// ──────────────────────────────────────────────────────────────────────────────

func TestMarkAssigned(t *testing.T) {
	w := newPlanWorld(30)
	w.routes.byID["ruta-1"] = &entity.RouteAssignment{
		ID: "ruta-1", CompanyID: "emp-1", Status: entity.RouteStatusPending,
	}

	require.NoError(t, w.planner.MarkAssigned(context.Background(), "ruta-1"))
	route, _ := w.routes.GetByID("ruta-1")
	assert.Equal(t, entity.RouteStatusAssigned, route.Status)

	err := w.planner.MarkAssigned(context.Background(), "ruta-1")
	assert.ErrorIs(t, err, domain.ErrConflicto, "solo una ruta pending puede marcarse")

	err = w.planner.MarkAssigned(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRouteSheet(t *testing.T) {
	w := newPlanWorld(30)
	w.seedMessenger("m1", "pavas")
	w.routes.byID["ruta-1"] = &entity.RouteAssignment{
		ID: "ruta-1", CompanyID: "emp-1", MessengerID: "m1",
		RouteDate: routeDate, Zone: "pavas", Status: entity.RouteStatusAssigned,
	}

	pdf, err := w.planner.RouteSheet(context.Background(), "ruta-1")
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)

	_, err = w.planner.RouteSheet(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
