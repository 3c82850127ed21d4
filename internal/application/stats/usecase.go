// Package stats implementa el agregador de estadísticas: rollups read-only
// por mensajero, por zona y por ruta sobre el estado de pedidos y el ledger.
// Sin efectos ni caché propio; lo que imponga el caller.
package stats

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Entregas-api/internal/application/dto"
	"github.com/jhoicas/Entregas-api/internal/domain"
	"github.com/jhoicas/Entregas-api/internal/domain/entity"
	"github.com/jhoicas/Entregas-api/internal/domain/repository"
	domainrouting "github.com/jhoicas/Entregas-api/internal/domain/routing"
)

// Aggregator agregador de estadísticas de operación.
type Aggregator struct {
	statsRepo repository.StatsRepository
	routeRepo repository.RouteAssignmentRepository
	orderRepo repository.OrderRepository
}

// NewAggregator construye el agregador.
func NewAggregator(statsRepo repository.StatsRepository, routeRepo repository.RouteAssignmentRepository, orderRepo repository.OrderRepository) *Aggregator {
	return &Aggregator{statsRepo: statsRepo, routeRepo: routeRepo, orderRepo: orderRepo}
}

var hundred = decimal.NewFromInt(100)

// dayRange rango [00:00, 23:59:59.999…] del día indicado.
func dayRange(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return start, start.Add(24*time.Hour - time.Nanosecond)
}

// MessengerDailySummary rollup por mensajero para una fecha. Tolera nombres
// faltantes sintetizando una identidad estable derivada del nombre, en lugar
// de fallar.
func (a *Aggregator) MessengerDailySummary(ctx context.Context, companyID string, date time.Time) ([]dto.MessengerDailySummaryDTO, error) {
	from, to := dayRange(date)
	rows, err := a.statsRepo.GetMessengerDaily(ctx, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("resumen por mensajero: %w", err)
	}

	out := make([]dto.MessengerDailySummaryDTO, 0, len(rows))
	for _, r := range rows {
		id, name := identity(r.MessengerID, r.MessengerName)
		out = append(out, dto.MessengerDailySummaryDTO{
			MessengerID:    id,
			MessengerName:  name,
			Assigned:       r.Assigned,
			Delivered:      r.Delivered,
			Returned:       r.Returned,
			Rescheduled:    r.Rescheduled,
			Pending:        r.Assigned - r.Delivered - r.Returned - r.Rescheduled,
			TotalCollected: r.TotalCollected.Round(2),
			Effectiveness:  effectiveness(r.Delivered, r.Assigned),
		})
	}
	return out, nil
}

// ZoneDailySummary rollup por zona para una fecha.
func (a *Aggregator) ZoneDailySummary(ctx context.Context, companyID string, date time.Time) ([]dto.ZoneDailySummaryDTO, error) {
	from, to := dayRange(date)
	rows, err := a.statsRepo.GetZoneDaily(ctx, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("resumen por zona: %w", err)
	}

	// Las filas pueden venir con claves ya normalizadas o con digitación
	// histórica cruda ("Limón" vs "limon"). Se fusionan bajo la misma clave
	// que usa el agrupador de rutas para que una zona operativa sea siempre
	// una sola fila.
	out := make([]dto.ZoneDailySummaryDTO, 0, len(rows))
	index := make(map[string]int, len(rows))
	for _, r := range rows {
		zone := domainrouting.NormalizeZone(r.Zone)
		if zone == "" {
			zone = "sin_zona"
		}
		i, ok := index[zone]
		if !ok {
			i = len(out)
			index[zone] = i
			out = append(out, dto.ZoneDailySummaryDTO{Zone: zone, TotalAmount: decimal.Zero})
		}
		out[i].Total += r.Total
		out[i].Delivered += r.Delivered
		out[i].Returned += r.Returned
		out[i].Rescheduled += r.Rescheduled
		out[i].TotalAmount = out[i].TotalAmount.Add(r.TotalAmount)
	}
	for i := range out {
		out[i].TotalAmount = out[i].TotalAmount.Round(2)
		out[i].Effectiveness = effectiveness(out[i].Delivered, out[i].Total)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Zone < out[j].Zone })
	return out, nil
}

// DailyOverview resumen del día: mensajeros y zonas en paralelo.
func (a *Aggregator) DailyOverview(ctx context.Context, companyID string, date time.Time) (*dto.DailyOverviewDTO, error) {
	type messengersResult struct {
		rows []dto.MessengerDailySummaryDTO
		err  error
	}
	type zonesResult struct {
		rows []dto.ZoneDailySummaryDTO
		err  error
	}

	mCh := make(chan messengersResult, 1)
	zCh := make(chan zonesResult, 1)

	go func() {
		rows, err := a.MessengerDailySummary(ctx, companyID, date)
		mCh <- messengersResult{rows, err}
	}()
	go func() {
		rows, err := a.ZoneDailySummary(ctx, companyID, date)
		zCh <- zonesResult{rows, err}
	}()

	m := <-mCh
	z := <-zCh
	if m.err != nil {
		return nil, m.err
	}
	if z.err != nil {
		return nil, z.err
	}

	return &dto.DailyOverviewDTO{
		Date:       date.Format("2006-01-02"),
		Messengers: m.rows,
		Zones:      z.rows,
	}, nil
}

// RouteStats estadísticas de una ruta recomputadas desde sus pedidos
// (read-only, no confía en los contadores materializados).
func (a *Aggregator) RouteStats(ctx context.Context, routeID string) (*dto.RouteStatsDTO, error) {
	route, err := a.routeRepo.GetByID(routeID)
	if err != nil {
		return nil, err
	}
	if route == nil {
		return nil, fmt.Errorf("%w: asignación %s", domain.ErrNotFound, routeID)
	}
	orders, err := a.orderRepo.ListByRoute(routeID)
	if err != nil {
		return nil, err
	}

	stats := &dto.RouteStatsDTO{
		RouteID:     route.ID,
		MessengerID: route.MessengerID,
		Zone:        route.Zone,
		RouteDate:   route.RouteDate.Format("2006-01-02"),
		Status:      route.Status,
		OrderCount:  len(orders),
		TotalAmount: decimal.Zero,
	}
	for _, o := range orders {
		stats.TotalAmount = stats.TotalAmount.Add(o.TotalAmount)
		switch o.Status {
		case entity.OrderStatusEntregado:
			stats.Delivered++
		case entity.OrderStatusDevolucion:
			stats.Returned++
		case entity.OrderStatusReagendado:
			stats.Rescheduled++
		default:
			stats.Pending++
		}
	}
	stats.TotalAmount = stats.TotalAmount.Round(2)
	stats.Effectiveness = effectiveness(stats.Delivered, stats.OrderCount)
	return stats, nil
}

// effectiveness % de entregados sobre el total, redondeado a 2 decimales.
func effectiveness(delivered, total int) decimal.Decimal {
	if total <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(delivered)).
		Div(decimal.NewFromInt(int64(total))).
		Mul(hundred).Round(2)
}

// identity identidad estable de un mensajero en los rollups. Si el ID falta
// (datos históricos con solo nombre digitado), se deriva determinísticamente
// del nombre; mismos nombres producen siempre el mismo placeholder.
func identity(id, name string) (string, string) {
	name = strings.TrimSpace(name)
	if id != "" {
		if name == "" {
			name = "mensajero " + shortHash(id)
		}
		return id, name
	}
	if name == "" {
		return "mensajero-desconocido", "Mensajero desconocido"
	}
	return "mensajero-" + shortHash(strings.ToLower(name)), name
}

func shortHash(s string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return fmt.Sprintf("%08x", h.Sum32())
}
