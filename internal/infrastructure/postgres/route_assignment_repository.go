package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Entregas-api/internal/domain/entity"
	"github.com/jhoicas/Entregas-api/internal/domain/repository"
)

var _ repository.RouteAssignmentRepository = (*RouteAssignmentRepo)(nil)

// RouteAssignmentRepo implementación de RouteAssignmentRepository sobre PostgreSQL (usable con pool o tx).
type RouteAssignmentRepo struct {
	q Querier
}

// NewRouteAssignmentRepository construye el adaptador de rutas. Pasar pool o tx (Querier).
func NewRouteAssignmentRepository(q Querier) *RouteAssignmentRepo {
	return &RouteAssignmentRepo{q: q}
}

const routeColumns = `id, company_id, messenger_id, route_date, zone, status,
		order_count, delivered_count, returned_count, rescheduled_count, created_at, updated_at`

// Create persiste una asignación de ruta.
func (r *RouteAssignmentRepo) Create(a *entity.RouteAssignment) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	query := `
		INSERT INTO route_assignments (` + routeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(context.Background(), query,
		a.ID, a.CompanyID, a.MessengerID, a.RouteDate, a.Zone, a.Status,
		a.OrderCount, a.DeliveredCount, a.ReturnedCount, a.RescheduledCount,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert route assignment: %w", err)
	}
	return nil
}

// GetByID obtiene una asignación por ID. nil, nil si no existe.
func (r *RouteAssignmentRepo) GetByID(id string) (*entity.RouteAssignment, error) {
	query := `SELECT ` + routeColumns + ` FROM route_assignments WHERE id = $1`
	return r.scanOne(query, id)
}

// GetForUpdate obtiene la asignación y bloquea la fila: los contadores se
// actualizan dentro de la misma transacción que la transición del pedido.
func (r *RouteAssignmentRepo) GetForUpdate(id string) (*entity.RouteAssignment, error) {
	query := `SELECT ` + routeColumns + ` FROM route_assignments WHERE id = $1 FOR UPDATE`
	return r.scanOne(query, id)
}

func (r *RouteAssignmentRepo) scanOne(query string, args ...any) (*entity.RouteAssignment, error) {
	var a entity.RouteAssignment
	err := r.q.QueryRow(context.Background(), query, args...).Scan(
		&a.ID, &a.CompanyID, &a.MessengerID, &a.RouteDate, &a.Zone, &a.Status,
		&a.OrderCount, &a.DeliveredCount, &a.ReturnedCount, &a.RescheduledCount,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get route assignment: %w", err)
	}
	return &a, nil
}

// Update persiste estado y contadores de una asignación.
func (r *RouteAssignmentRepo) Update(a *entity.RouteAssignment) error {
	query := `
		UPDATE route_assignments SET
			zone = $2, status = $3, order_count = $4, delivered_count = $5,
			returned_count = $6, rescheduled_count = $7, updated_at = $8
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		a.ID, a.Zone, a.Status, a.OrderCount, a.DeliveredCount,
		a.ReturnedCount, a.RescheduledCount, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update route assignment: %w", err)
	}
	return nil
}

// ListByDate asignaciones de una fecha de ruta, en orden estable.
func (r *RouteAssignmentRepo) ListByDate(routeDate time.Time, companyID string) ([]*entity.RouteAssignment, error) {
	query := `
		SELECT ` + routeColumns + `
		FROM route_assignments
		WHERE company_id = $1 AND route_date = $2
		ORDER BY created_at ASC, id ASC`
	rows, err := r.q.Query(context.Background(), query, companyID, routeDate)
	if err != nil {
		return nil, fmt.Errorf("list route assignments: %w", err)
	}
	defer rows.Close()
	var list []*entity.RouteAssignment
	for rows.Next() {
		var a entity.RouteAssignment
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.MessengerID, &a.RouteDate, &a.Zone, &a.Status,
			&a.OrderCount, &a.DeliveredCount, &a.ReturnedCount, &a.RescheduledCount,
			&a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan route assignment: %w", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}
