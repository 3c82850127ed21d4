package stats_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Entregas-api/internal/application/stats"
	"github.com/jhoicas/Entregas-api/internal/domain"
	"github.com/jhoicas/Entregas-api/internal/domain/entity"
	"github.com/jhoicas/Entregas-api/internal/domain/repository"
	"github.com/jhoicas/Entregas-api/internal/domain/routing"
)

// ──────────────────────────────────────────────────────────────────────────────
// Stubs
// ──────────────────────────────────────────────────────────────────────────────

type stubStats struct {
	messengers []repository.MessengerDailyRow
	zones      []repository.ZoneDailyRow
	err        error
}

func (s *stubStats) GetMessengerDaily(ctx context.Context, companyID string, from, to time.Time) ([]repository.MessengerDailyRow, error) {
	return s.messengers, s.err
}

func (s *stubStats) GetZoneDaily(ctx context.Context, companyID string, from, to time.Time) ([]repository.ZoneDailyRow, error) {
	return s.zones, s.err
}

type stubRoutes struct {
	route *entity.RouteAssignment
}

func (s *stubRoutes) Create(a *entity.RouteAssignment) error { return nil }

func (s *stubRoutes) GetByID(id string) (*entity.RouteAssignment, error) {
	if s.route != nil && s.route.ID == id {
		return s.route, nil
	}
	return nil, nil
}

func (s *stubRoutes) GetForUpdate(id string) (*entity.RouteAssignment, error) {
	return s.GetByID(id)
}

func (s *stubRoutes) Update(a *entity.RouteAssignment) error { return nil }

func (s *stubRoutes) ListByDate(routeDate time.Time, companyID string) ([]*entity.RouteAssignment, error) {
	return nil, nil
}

type stubOrders struct {
	byRoute map[string][]*entity.Order
}

func (s *stubOrders) Create(order *entity.Order) error            { return nil }
func (s *stubOrders) GetByID(id string) (*entity.Order, error)    { return nil, nil }
func (s *stubOrders) UpdateWithVersion(order *entity.Order) error { return nil }

func (s *stubOrders) List(f repository.OrderFilter) ([]*entity.Order, error) {
	return nil, nil
}

func (s *stubOrders) ListPendingUnassigned(companyID string) ([]*entity.Order, error) {
	return nil, nil
}
func (s *stubOrders) ListByRoute(routeID string) ([]*entity.Order, error) {
	return s.byRoute[routeID], nil
}
func (s *stubOrders) AssignToRoute(orderID, routeID, messengerID string, position int) error {
	return nil
}

func orderInStatus(status string, amount int64) *entity.Order {
	return &entity.Order{Status: status, TotalAmount: decimal.NewFromInt(amount)}
}

// ──────────────────────────────────────────────────────────────────────────────
// Resúmenes diarios
// ──────────────────────────────────────────────────────────────────────────────

func TestMessengerDailySummary_CalculaPendientesYEfectividad(t *testing.T) {
	agg := stats.NewAggregator(&stubStats{
		messengers: []repository.MessengerDailyRow{
			{
				MessengerID:    "m1",
				MessengerName:  "Carlos",
				Assigned:       10,
				Delivered:      7,
				Returned:       1,
				Rescheduled:    1,
				TotalCollected: decimal.NewFromFloat(35000.505),
			},
		},
	}, &stubRoutes{}, &stubOrders{})

	rows, err := agg.MessengerDailySummary(context.Background(), "emp-1", time.Now())
	require.NoError(t, err)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, "m1", r.MessengerID)
	assert.Equal(t, 1, r.Pending, "pendientes = asignados menos desenlaces")
	assert.True(t, r.Effectiveness.Equal(decimal.NewFromInt(70)), "7/10 = 70%%, got %s", r.Effectiveness)
	assert.True(t, r.TotalCollected.Equal(decimal.NewFromFloat(35000.51)), "el monto se redondea a 2 decimales")
}

func TestMessengerDailySummary_EfectividadRedondeada(t *testing.T) {
	agg := stats.NewAggregator(&stubStats{
		messengers: []repository.MessengerDailyRow{
			{MessengerID: "m1", MessengerName: "Ana", Assigned: 3, Delivered: 1, TotalCollected: decimal.Zero},
		},
	}, &stubRoutes{}, &stubOrders{})

	rows, err := agg.MessengerDailySummary(context.Background(), "emp-1", time.Now())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Effectiveness.Equal(decimal.NewFromFloat(33.33)),
		"1/3 → 33.33, got %s", rows[0].Effectiveness)
}

// Con ID ausente (datos históricos solo con nombre) la identidad sintetizada
// es determinista: el mismo nombre produce siempre el mismo placeholder.
func TestMessengerDailySummary_IdentidadPlaceholderDeterminista(t *testing.T) {
	row := repository.MessengerDailyRow{
		MessengerName:  "  Juan Pérez ",
		Assigned:       2,
		Delivered:      2,
		TotalCollected: decimal.Zero,
	}
	agg := stats.NewAggregator(&stubStats{
		messengers: []repository.MessengerDailyRow{row},
	}, &stubRoutes{}, &stubOrders{})

	first, err := agg.MessengerDailySummary(context.Background(), "emp-1", time.Now())
	require.NoError(t, err)
	require.Len(t, first, 1)

	assert.Equal(t, "Juan Pérez", first[0].MessengerName, "el nombre se recorta")
	assert.Regexp(t, `^mensajero-[0-9a-f]{8}$`, first[0].MessengerID,
		"el placeholder se deriva del nombre con un hash corto")

	for run := 0; run < 5; run++ {
		again, err := agg.MessengerDailySummary(context.Background(), "emp-1", time.Now())
		require.NoError(t, err)
		assert.Equal(t, first[0].MessengerID, again[0].MessengerID,
			"mismo nombre, mismo placeholder, siempre")
	}
}

func TestMessengerDailySummary_SinIDNiNombre(t *testing.T) {
	agg := stats.NewAggregator(&stubStats{
		messengers: []repository.MessengerDailyRow{
			{Assigned: 1, TotalCollected: decimal.Zero},
		},
	}, &stubRoutes{}, &stubOrders{})

	rows, err := agg.MessengerDailySummary(context.Background(), "emp-1", time.Now())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "mensajero-desconocido", rows[0].MessengerID)
	assert.Equal(t, "Mensajero desconocido", rows[0].MessengerName)
}

func TestZoneDailySummary(t *testing.T) {
	agg := stats.NewAggregator(&stubStats{
		zones: []repository.ZoneDailyRow{
			{Zone: "pavas", Total: 4, Delivered: 2, Returned: 1, Rescheduled: 1, TotalAmount: decimal.NewFromInt(8000)},
			{Zone: "escazu", Total: 2, Delivered: 2, TotalAmount: decimal.NewFromInt(3000)},
		},
	}, &stubRoutes{}, &stubOrders{})

	rows, err := agg.ZoneDailySummary(context.Background(), "emp-1", time.Now())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Salen ordenadas por clave de zona.
	assert.Equal(t, "escazu", rows[0].Zone)
	assert.True(t, rows[0].Effectiveness.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "pavas", rows[1].Zone)
	assert.True(t, rows[1].Effectiveness.Equal(decimal.NewFromInt(50)))
}

// Filas históricas con la zona digitada con tildes se fusionan con las filas
// ya normalizadas: la clave del rollup es la misma que usa el agrupador de
// rutas, así que "Limón" y "limon" son una sola zona.
func TestZoneDailySummary_FusionaClavesAcentuadas(t *testing.T) {
	agg := stats.NewAggregator(&stubStats{
		zones: []repository.ZoneDailyRow{
			{Zone: "Limón", Total: 2, Delivered: 1, Returned: 1, TotalAmount: decimal.NewFromInt(1000)},
			{Zone: "limon", Total: 1, Delivered: 1, TotalAmount: decimal.NewFromInt(500)},
		},
	}, &stubRoutes{}, &stubOrders{})

	rows, err := agg.ZoneDailySummary(context.Background(), "emp-1", time.Now())
	require.NoError(t, err)
	require.Len(t, rows, 1, "ambas digitaciones caen en la misma fila")

	r := rows[0]
	assert.Equal(t, routing.NormalizeZone("Limón"), r.Zone)
	assert.Equal(t, 3, r.Total)
	assert.Equal(t, 2, r.Delivered)
	assert.Equal(t, 1, r.Returned)
	assert.True(t, r.TotalAmount.Equal(decimal.NewFromInt(1500)))
	assert.True(t, r.Effectiveness.Equal(decimal.NewFromFloat(66.67)),
		"la efectividad se recalcula sobre la fila fusionada, got %s", r.Effectiveness)
}

// Una zona vacía tras normalizar cae en el bucket sin_zona.
func TestZoneDailySummary_SinZona(t *testing.T) {
	agg := stats.NewAggregator(&stubStats{
		zones: []repository.ZoneDailyRow{
			{Zone: "  ", Total: 1, TotalAmount: decimal.Zero},
		},
	}, &stubRoutes{}, &stubOrders{})

	rows, err := agg.ZoneDailySummary(context.Background(), "emp-1", time.Now())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "sin_zona", rows[0].Zone)
}

func TestDailyOverview_CombinaMensajerosYZonas(t *testing.T) {
	agg := stats.NewAggregator(&stubStats{
		messengers: []repository.MessengerDailyRow{
			{MessengerID: "m1", MessengerName: "Carlos", Assigned: 1, Delivered: 1, TotalCollected: decimal.Zero},
		},
		zones: []repository.ZoneDailyRow{
			{Zone: "tibas", Total: 1, Delivered: 1, TotalAmount: decimal.Zero},
		},
	}, &stubRoutes{}, &stubOrders{})

	date := time.Date(2026, 8, 27, 15, 0, 0, 0, time.UTC)
	overview, err := agg.DailyOverview(context.Background(), "emp-1", date)
	require.NoError(t, err)

	assert.Equal(t, "2026-08-27", overview.Date)
	assert.Len(t, overview.Messengers, 1)
	assert.Len(t, overview.Zones, 1)
}

func TestDailyOverview_PropagaError(t *testing.T) {
	boom := errors.New("bd caída")
	agg := stats.NewAggregator(&stubStats{err: boom}, &stubRoutes{}, &stubOrders{})

	_, err := agg.DailyOverview(context.Background(), "emp-1", time.Now())
	assert.ErrorIs(t, err, boom)
}

// ──────────────────────────────────────────────────────────────────────────────
// Estadísticas de ruta
// ──────────────────────────────────────────────────────────────────────────────

// Las estadísticas de ruta se recomputan desde los pedidos miembros, no desde
// los contadores materializados de la asignación.
func TestRouteStats_RecomputaDesdePedidos(t *testing.T) {
	route := &entity.RouteAssignment{
		ID:          "ruta-1",
		MessengerID: "m1",
		Zone:        "pavas",
		RouteDate:   time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC),
		Status:      entity.RouteStatusInProgress,
		// Contadores desincronizados a propósito: no deben usarse.
		OrderCount:     99,
		DeliveredCount: 99,
	}
	orders := &stubOrders{byRoute: map[string][]*entity.Order{
		"ruta-1": {
			orderInStatus(entity.OrderStatusEntregado, 1000),
			orderInStatus(entity.OrderStatusEntregado, 2000),
			orderInStatus(entity.OrderStatusDevolucion, 500),
			orderInStatus(entity.OrderStatusReagendado, 700),
			orderInStatus(entity.OrderStatusEnRuta, 300),
		},
	}}
	agg := stats.NewAggregator(&stubStats{}, &stubRoutes{route: route}, orders)

	got, err := agg.RouteStats(context.Background(), "ruta-1")
	require.NoError(t, err)

	assert.Equal(t, 5, got.OrderCount)
	assert.Equal(t, 2, got.Delivered)
	assert.Equal(t, 1, got.Returned)
	assert.Equal(t, 1, got.Rescheduled)
	assert.Equal(t, 1, got.Pending)
	assert.Equal(t, "2026-08-27", got.RouteDate)
	assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(4500)))
	assert.True(t, got.Effectiveness.Equal(decimal.NewFromInt(40)), "2/5 = 40%%")
}

func TestRouteStats_RutaInexistente(t *testing.T) {
	agg := stats.NewAggregator(&stubStats{}, &stubRoutes{}, &stubOrders{})

	_, err := agg.RouteStats(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
