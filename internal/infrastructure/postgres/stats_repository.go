package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/Entregas-api/internal/domain/repository"
)

var _ repository.StatsRepository = (*StatsRepo)(nil)

// StatsRepo consultas de solo lectura para los rollups de entregas.
// Los agregados se calculan en SQL; Go solo deriva porcentajes y presenta.
type StatsRepo struct {
	pool *pgxpool.Pool
}

// NewStatsRepository construye el adaptador de estadísticas.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepo {
	return &StatsRepo{pool: pool}
}

// GetMessengerDaily agrupa desenlaces y recaudo por mensajero en un rango de fechas.
// Solo cuenta pedidos con mensajero asignado; el recaudo suma montos de entregados.
func (r *StatsRepo) GetMessengerDaily(
	ctx context.Context,
	companyID string,
	from, to time.Time,
) ([]repository.MessengerDailyRow, error) {
	const query = `
	SELECT
	    m.id                                                             AS messenger_id,
	    m.name                                                           AS messenger_name,
	    COUNT(o.id)                                                      AS assigned,
	    COUNT(*) FILTER (WHERE o.status = 'entregado')                   AS delivered,
	    COUNT(*) FILTER (WHERE o.status = 'devolucion')                  AS returned,
	    COUNT(*) FILTER (WHERE o.status = 'reagendado')                  AS rescheduled,
	    COALESCE(SUM(o.total_amount) FILTER (WHERE o.status = 'entregado'), 0) AS total_collected
	FROM messengers m
	JOIN orders o ON o.assigned_messenger_id = m.id
	WHERE o.company_id = $1
	  AND o.route_date >= $2 AND o.route_date < $3
	GROUP BY m.id, m.name
	ORDER BY m.name ASC, m.id ASC`

	rows, err := r.pool.Query(ctx, query, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get messenger daily: %w", err)
	}
	defer rows.Close()

	var results []repository.MessengerDailyRow
	for rows.Next() {
		var row repository.MessengerDailyRow
		if err := rows.Scan(&row.MessengerID, &row.MessengerName,
			&row.Assigned, &row.Delivered, &row.Returned, &row.Rescheduled,
			&row.TotalCollected); err != nil {
			return nil, fmt.Errorf("scan messenger daily: %w", err)
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// GetZoneDaily agrupa desenlaces y montos por zona en un rango de fechas.
// Agrupa por la zone_key persistida (routing.ZoneKeyOf en el ingreso), la
// misma clave que usa el agrupador de rutas; filas históricas sin clave se
// resuelven con la misma precedencia distrito > cantón > provincia y el
// agregador las re-normaliza y fusiona en Go.
func (r *StatsRepo) GetZoneDaily(
	ctx context.Context,
	companyID string,
	from, to time.Time,
) ([]repository.ZoneDailyRow, error) {
	const query = `
	SELECT
	    COALESCE(NULLIF(o.zone_key, ''),
	             NULLIF(lower(trim(o.district)), ''),
	             NULLIF(lower(trim(o.canton)), ''),
	             NULLIF(lower(trim(o.province)), ''),
	             'sin_zona')                                             AS zone,
	    COUNT(o.id)                                                      AS total,
	    COUNT(*) FILTER (WHERE o.status = 'entregado')                   AS delivered,
	    COUNT(*) FILTER (WHERE o.status = 'devolucion')                  AS returned,
	    COUNT(*) FILTER (WHERE o.status = 'reagendado')                  AS rescheduled,
	    COALESCE(SUM(o.total_amount), 0)                                 AS total_amount
	FROM orders o
	WHERE o.company_id = $1
	  AND o.route_date >= $2 AND o.route_date < $3
	GROUP BY 1
	ORDER BY 1 ASC`

	rows, err := r.pool.Query(ctx, query, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get zone daily: %w", err)
	}
	defer rows.Close()

	var results []repository.ZoneDailyRow
	for rows.Next() {
		var row repository.ZoneDailyRow
		if err := rows.Scan(&row.Zone, &row.Total, &row.Delivered,
			&row.Returned, &row.Rescheduled, &row.TotalAmount); err != nil {
			return nil, fmt.Errorf("scan zone daily: %w", err)
		}
		results = append(results, row)
	}
	return results, rows.Err()
}
