package fulfillment_test

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
	"github.com/jhoicas/Entregas-api/internal/domain"
	"github.com/jhoicas/Entregas-api/internal/domain/entity"
	"github.com/jhoicas/Entregas-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
// ──────────────────────────────────────────────────────────────────────────────

type fakeOrders struct {
	byID map[string]*entity.Order
	// conflictOnce fuerza un ErrConflicto en el próximo UpdateWithVersion,
	// emulando una escritura concurrente que ganó la carrera.
	conflictOnce bool
}

func (f *fakeOrders) Create(order *entity.Order) error {
	cp := *order
	f.byID[order.ID] = &cp
	return nil
}

func (f *fakeOrders) GetByID(id string) (*entity.Order, error) {
	order, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *order
	return &cp, nil
}

func (f *fakeOrders) UpdateWithVersion(order *entity.Order) error {
	if f.conflictOnce {
		f.conflictOnce = false
		return fmt.Errorf("%w: pedido %s", domain.ErrConflicto, order.ID)
	}
	stored, ok := f.byID[order.ID]
	if !ok || stored.Version != order.Version {
		return fmt.Errorf("%w: pedido %s", domain.ErrConflicto, order.ID)
	}
	order.Version++
	cp := *order
	f.byID[order.ID] = &cp
	return nil
}

func (f *fakeOrders) List(filter repository.OrderFilter) ([]*entity.Order, error) {
	return nil, nil
}

func (f *fakeOrders) ListPendingUnassigned(companyID string) ([]*entity.Order, error) {
	return nil, nil
}

func (f *fakeOrders) ListByRoute(routeAssignmentID string) ([]*entity.Order, error) {
	return nil, nil
}

func (f *fakeOrders) AssignToRoute(orderID, routeID, messengerID string, position int) error {
	return nil
}

type fakeItems struct {
	byKey map[string]*entity.InventoryItem
}

func (f *fakeItems) key(productID, warehouseID string) string {
	return productID + "/" + warehouseID
}

func (f *fakeItems) Get(productID, warehouseID string) (*entity.InventoryItem, error) {
	item, ok := f.byKey[f.key(productID, warehouseID)]
	if !ok {
		return nil, nil
	}
	cp := *item
	return &cp, nil
}

func (f *fakeItems) GetForUpdate(productID, warehouseID string) (*entity.InventoryItem, error) {
	return f.Get(productID, warehouseID)
}

func (f *fakeItems) Upsert(item *entity.InventoryItem) error {
	cp := *item
	f.byKey[f.key(item.ProductID, item.WarehouseID)] = &cp
	return nil
}

func (f *fakeItems) ListBelowMinimum(companyID string) ([]*entity.InventoryItem, error) {
	return nil, nil
}

type fakeTxs struct {
	list []*entity.InventoryTransaction
}

func (f *fakeTxs) Create(tx *entity.InventoryTransaction) error {
	cp := *tx
	f.list = append(f.list, &cp)
	return nil
}

func (f *fakeTxs) FindByReference(reference, action, productID, warehouseID string) (*entity.InventoryTransaction, error) {
	for _, tx := range f.list {
		if tx.Reference == reference && tx.Action == action &&
			tx.ProductID == productID && tx.WarehouseID == warehouseID {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeTxs) ListByItem(productID, warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.InventoryTransaction, error) {
	return nil, nil
}

func (f *fakeTxs) ListByReference(reference string) ([]*entity.InventoryTransaction, error) {
	var out []*entity.InventoryTransaction
	for _, tx := range f.list {
		if tx.Reference == reference {
			cp := *tx
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeTxs) byAction(action string) []*entity.InventoryTransaction {
	var out []*entity.InventoryTransaction
	for _, tx := range f.list {
		if tx.Action == action {
			out = append(out, tx)
		}
	}
	return out
}

type fakeHistory struct {
	list []*entity.StatusHistory
}

func (f *fakeHistory) Append(h *entity.StatusHistory) error {
	cp := *h
	f.list = append(f.list, &cp)
	return nil
}

func (f *fakeHistory) ListByOrder(orderID string) ([]*entity.StatusHistory, error) {
	var out []*entity.StatusHistory
	for _, h := range f.list {
		if h.OrderID == orderID {
			out = append(out, h)
		}
	}
	return out, nil
}

type fakeRoutes struct {
	byID map[string]*entity.RouteAssignment
}

func (f *fakeRoutes) Create(a *entity.RouteAssignment) error {
	cp := *a
	f.byID[a.ID] = &cp
	return nil
}

func (f *fakeRoutes) GetByID(id string) (*entity.RouteAssignment, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (f *fakeRoutes) GetForUpdate(id string) (*entity.RouteAssignment, error) {
	return f.GetByID(id)
}

func (f *fakeRoutes) Update(a *entity.RouteAssignment) error {
	cp := *a
	f.byID[a.ID] = &cp
	return nil
}

func (f *fakeRoutes) ListByDate(routeDate time.Time, companyID string) ([]*entity.RouteAssignment, error) {
	return nil, nil
}

// fakeRunner implementa los dos contratos transaccionales sobre los mismos
// repos en memoria, igual que el TxRunner real sobre una conexión.
type fakeRunner struct {
	orders  *fakeOrders
	items   *fakeItems
	txs     *fakeTxs
	history *fakeHistory
	routes  *fakeRoutes
}

func (r *fakeRunner) Run(ctx context.Context, fn func(
	items repository.InventoryItemRepository,
	txs repository.InventoryTransactionRepository,
) error) error {
	return fn(r.items, r.txs)
}

func (r *fakeRunner) RunFulfillment(ctx context.Context, fn func(
	orders repository.OrderRepository,
	items repository.InventoryItemRepository,
	txs repository.InventoryTransactionRepository,
	history repository.StatusHistoryRepository,
	routes repository.RouteAssignmentRepository,
) error) error {
	return fn(r.orders, r.items, r.txs, r.history, r.routes)
}

// ──────────────────────────────────────────────────────────────────────────────
// Armado
// ──────────────────────────────────────────────────────────────────────────────

type world struct {
	engine  *fulfillment.Engine
	orders  *fakeOrders
	items   *fakeItems
	txs     *fakeTxs
	history *fakeHistory
	routes  *fakeRoutes
}

func newWorld() *world {
	w := &world{
		orders:  &fakeOrders{byID: make(map[string]*entity.Order)},
		items:   &fakeItems{byKey: make(map[string]*entity.InventoryItem)},
		txs:     &fakeTxs{},
		history: &fakeHistory{},
		routes:  &fakeRoutes{byID: make(map[string]*entity.RouteAssignment)},
	}
	runner := &fakeRunner{orders: w.orders, items: w.items, txs: w.txs, history: w.history, routes: w.routes}
	led := ledger.New(runner, w.items, w.txs, nil)
	w.engine = fulfillment.NewEngine(runner, led, nil)
	return w
}

func (w *world) seedItem(productID string, current int64) {
	w.items.byKey[productID+"/bod-1"] = &entity.InventoryItem{
		ProductID:    productID,
		WarehouseID:  "bod-1",
		CompanyID:    "emp-1",
		CurrentStock: current,
	}
}

func (w *world) seedOrder(id string, quantity int64) *entity.Order {
	order := &entity.Order{
		ID:           id,
		CompanyID:    "emp-1",
		CustomerName: "Cliente " + id,
		District:     "pavas",
		TotalAmount:  decimal.NewFromInt(5000),
		Items:        []entity.OrderItem{{ProductID: "prod-1", WarehouseID: "bod-1", Quantity: quantity}},
		Status:       entity.OrderStatusPendiente,
		CreatedAt:    time.Now(),
	}
	cp := *order
	w.orders.byID[id] = &cp
	return order
}

func (w *world) apply(t *testing.T, orderID, target string) *fulfillment.Result {
	t.Helper()
	res, err := w.engine.Apply(context.Background(), fulfillment.ApplyInput{
		OrderID:      orderID,
		TargetStatus: target,
		Actor:        "tester",
	})
	require.NoError(t, err, "transición a %s debe aplicar", target)
	return res
}

func (w *world) item(t *testing.T) *entity.InventoryItem {
	t.Helper()
	item, err := w.items.Get("prod-1", "bod-1")
	require.NoError(t, err)
	require.NotNil(t, item)
	return item
}

func (w *world) order(t *testing.T, id string) *entity.Order {
	t.Helper()
	order, err := w.orders.GetByID(id)
	require.NoError(t, err)
	require.NotNil(t, order)
	return order
}

// ──────────────────────────────────────────────────────────────────────────────
// Ciclo de vida
// ──────────────────────────────────────────────────────────────────────────────

// Ciclo feliz completo: cada transición aplica su efecto de inventario y deja
// historial.
func TestApply_CicloCompletoHastaEntrega(t *testing.T) {
	w := newWorld()
	w.seedItem("prod-1", 10)
	w.seedOrder("ped-1", 4)

	res := w.apply(t, "ped-1", entity.OrderStatusConfirmado)
	assert.True(t, res.Applied)
	assert.True(t, res.Order.Confirmed)
	item := w.item(t)
	assert.Equal(t, int64(10), item.CurrentStock)
	assert.Equal(t, int64(4), item.ReservedStock, "confirmar reserva el stock")

	w.apply(t, "ped-1", entity.OrderStatusEnRuta)
	require.Len(t, w.txs.byAction(entity.ActionShip), 1, "el despacho queda auditado sin delta")

	res = w.apply(t, "ped-1", entity.OrderStatusEntregado)
	assert.Equal(t, "tester", res.Order.FulfilledByID)
	item = w.item(t)
	assert.Equal(t, int64(6), item.CurrentStock, "la entrega descuenta existencia")
	assert.Equal(t, int64(0), item.ReservedStock, "la entrega consume la reserva")

	history, err := w.history.ListByOrder("ped-1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, entity.OrderStatusPendiente, history[0].FromStatus)
	assert.Equal(t, entity.OrderStatusEntregado, history[2].ToStatus)
}

// Un salto directo pendiente → entregado no es una arista y se rechaza sin
// tocar el pedido ni el inventario.
func TestApply_SaltoDirectoAEntregadoRechazado(t *testing.T) {
	w := newWorld()
	w.seedItem("prod-1", 10)
	w.seedOrder("ped-2", 4)

	_, err := w.engine.Apply(context.Background(), fulfillment.ApplyInput{
		OrderID:      "ped-2",
		TargetStatus: entity.OrderStatusEntregado,
		Actor:        "tester",
	})
	require.ErrorIs(t, err, domain.ErrTransicionInvalida)

	assert.Equal(t, entity.OrderStatusPendiente, w.order(t, "ped-2").Status)
	assert.Empty(t, w.txs.list, "una transición rechazada no escribe en el ledger")
	assert.Empty(t, w.history.list)
}

// Repetir la transición al estado en que ya está el pedido es un replay: no
// aplica, no duplica efectos.
func TestApply_ReplayMismoEstadoEsNoOp(t *testing.T) {
	w := newWorld()
	w.seedItem("prod-1", 10)
	w.seedOrder("ped-3", 4)

	w.apply(t, "ped-3", entity.OrderStatusConfirmado)
	res := w.apply(t, "ped-3", entity.OrderStatusConfirmado)

	assert.False(t, res.Applied)
	assert.Equal(t, int64(4), w.item(t).ReservedStock, "el replay no vuelve a reservar")
	history, _ := w.history.ListByOrder("ped-3")
	assert.Len(t, history, 1)
}

// Sin stock disponible la confirmación se rechaza completa: el pedido sigue
// pendiente.
func TestApply_StockInsuficienteBloqueaConfirmacion(t *testing.T) {
	w := newWorld()
	w.seedItem("prod-1", 3)
	w.seedOrder("ped-4", 5)

	_, err := w.engine.Apply(context.Background(), fulfillment.ApplyInput{
		OrderID:      "ped-4",
		TargetStatus: entity.OrderStatusConfirmado,
		Actor:        "tester",
	})
	require.ErrorIs(t, err, domain.ErrStockInsuficiente)
	assert.Equal(t, entity.OrderStatusPendiente, w.order(t, "ped-4").Status)
}

// ──────────────────────────────────────────────────────────────────────────────
// Devolución y reagendado
// ──────────────────────────────────────────────────────────────────────────────

// Devolución en ruta: libera la reserva, la existencia física no cambia y el
// stock queda disponible de inmediato.
func TestApply_DevolucionLiberaReserva(t *testing.T) {
	w := newWorld()
	w.seedItem("prod-1", 10)
	w.seedOrder("ped-5", 4)

	w.apply(t, "ped-5", entity.OrderStatusConfirmado)
	w.apply(t, "ped-5", entity.OrderStatusEnRuta)
	w.apply(t, "ped-5", entity.OrderStatusDevolucion)

	item := w.item(t)
	assert.Equal(t, int64(10), item.CurrentStock, "la devolución en ruta no toca existencia")
	assert.Equal(t, int64(0), item.ReservedStock)
	assert.Equal(t, int64(10), item.AvailableStock())
	assert.True(t, w.order(t, "ped-5").IsTerminal())
}

// El reagendado libera la reserva y el re-despacho re-reserva con una clave de
// intento nueva, de modo que la idempotencia del intento anterior no lo bloquea.
func TestApply_ReagendadoAbreNuevoIntento(t *testing.T) {
	w := newWorld()
	w.seedItem("prod-1", 10)
	w.seedOrder("ped-6", 4)

	w.apply(t, "ped-6", entity.OrderStatusConfirmado)
	w.apply(t, "ped-6", entity.OrderStatusEnRuta)
	w.apply(t, "ped-6", entity.OrderStatusReagendado)

	order := w.order(t, "ped-6")
	assert.Equal(t, 1, order.RescheduleCount)
	assert.Equal(t, int64(0), w.item(t).ReservedStock, "reagendar libera la reserva del intento")

	w.apply(t, "ped-6", entity.OrderStatusEnRuta)
	assert.Equal(t, int64(4), w.item(t).ReservedStock, "el re-despacho vuelve a reservar")

	reserves := w.txs.byAction(entity.ActionReserve)
	require.Len(t, reserves, 2)
	assert.NotEqual(t, reserves[0].Reference, reserves[1].Reference,
		"cada intento de entrega usa su propia clave de idempotencia")
	assert.Equal(t, "ped-6#0", reserves[0].Reference)
	assert.Equal(t, "ped-6#1", reserves[1].Reference)
}

// ──────────────────────────────────────────────────────────────────────────────
// Contadores de ruta
// ──────────────────────────────────────────────────────────────────────────────

// Las transiciones de pedidos miembros mantienen los contadores de la ruta y
// la completan cuando todos tienen desenlace.
func TestApply_ActualizaContadoresDeRuta(t *testing.T) {
	w := newWorld()
	w.seedItem("prod-1", 20)
	w.routes.byID["ruta-1"] = &entity.RouteAssignment{
		ID:          "ruta-1",
		CompanyID:   "emp-1",
		MessengerID: "m1",
		Status:      entity.RouteStatusAssigned,
		OrderCount:  2,
	}
	for _, id := range []string{"ped-7", "ped-8"} {
		order := w.seedOrder(id, 2)
		order.RouteAssignmentID = "ruta-1"
		cp := *order
		w.orders.byID[id] = &cp
		w.apply(t, id, entity.OrderStatusConfirmado)
		w.apply(t, id, entity.OrderStatusEnRuta)
	}

	route, _ := w.routes.GetByID("ruta-1")
	assert.Equal(t, entity.RouteStatusInProgress, route.Status, "el primer despacho pone la ruta en curso")

	w.apply(t, "ped-7", entity.OrderStatusEntregado)
	route, _ = w.routes.GetByID("ruta-1")
	assert.Equal(t, 1, route.DeliveredCount)
	assert.Equal(t, 1, route.PendingCount())
	assert.NotEqual(t, entity.RouteStatusCompleted, route.Status)

	w.apply(t, "ped-8", entity.OrderStatusDevolucion)
	route, _ = w.routes.GetByID("ruta-1")
	assert.Equal(t, 1, route.ReturnedCount)
	assert.Equal(t, 0, route.PendingCount())
	assert.Equal(t, entity.RouteStatusCompleted, route.Status,
		"con todos los desenlaces la ruta se completa")
}

// Un reagendado dentro de la ruta suma al contador; su re-despacho lo resta.
func TestApply_ReagendadoEnRutaNoCompletaPrematuro(t *testing.T) {
	w := newWorld()
	w.seedItem("prod-1", 20)
	w.routes.byID["ruta-2"] = &entity.RouteAssignment{
		ID:         "ruta-2",
		CompanyID:  "emp-1",
		Status:     entity.RouteStatusAssigned,
		OrderCount: 1,
	}
	order := w.seedOrder("ped-9", 2)
	order.RouteAssignmentID = "ruta-2"
	cp := *order
	w.orders.byID["ped-9"] = &cp

	w.apply(t, "ped-9", entity.OrderStatusConfirmado)
	w.apply(t, "ped-9", entity.OrderStatusEnRuta)
	w.apply(t, "ped-9", entity.OrderStatusReagendado)

	route, _ := w.routes.GetByID("ruta-2")
	assert.Equal(t, 1, route.RescheduledCount)
	assert.Equal(t, entity.RouteStatusCompleted, route.Status,
		"un reagendado cuenta como desenlace del día")

	w.apply(t, "ped-9", entity.OrderStatusEnRuta)
	route, _ = w.routes.GetByID("ruta-2")
	assert.Equal(t, 0, route.RescheduledCount, "el re-despacho reabre el pedido en la ruta")
	assert.Equal(t, entity.RouteStatusInProgress, route.Status,
		"la ruta vuelve a estar en curso mientras el intento siga vivo")

	w.apply(t, "ped-9", entity.OrderStatusEntregado)
	route, _ = w.routes.GetByID("ruta-2")
	assert.Equal(t, 1, route.DeliveredCount)
	assert.Equal(t, entity.RouteStatusCompleted, route.Status,
		"el desenlace del nuevo intento la completa otra vez")
}

// ──────────────────────────────────────────────────────────────────────────────
// Errores
// ──────────────────────────────────────────────────────────────────────────────

func TestApply_EntradaInvalida(t *testing.T) {
	w := newWorld()

	_, err := w.engine.Apply(context.Background(), fulfillment.ApplyInput{
		OrderID: "", TargetStatus: entity.OrderStatusConfirmado, Actor: "tester",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = w.engine.Apply(context.Background(), fulfillment.ApplyInput{
		OrderID: "x", TargetStatus: "cancelado", Actor: "tester",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestApply_PedidoInexistente(t *testing.T) {
	w := newWorld()

	_, err := w.engine.Apply(context.Background(), fulfillment.ApplyInput{
		OrderID:      "no-existe",
		TargetStatus: entity.OrderStatusConfirmado,
		Actor:        "tester",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Una escritura concurrente que ganó la carrera se reporta como conflicto; el
// caller reintenta con lectura fresca.
func TestApply_ConflictoDeVersion(t *testing.T) {
	w := newWorld()
	w.seedItem("prod-1", 10)
	w.seedOrder("ped-10", 4)
	w.orders.conflictOnce = true

	_, err := w.engine.Apply(context.Background(), fulfillment.ApplyInput{
		OrderID:      "ped-10",
		TargetStatus: entity.OrderStatusConfirmado,
		Actor:        "tester",
	})
	assert.ErrorIs(t, err, domain.ErrConflicto)
}
