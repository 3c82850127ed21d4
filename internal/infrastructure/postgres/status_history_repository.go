package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jhoicas/Entregas-api/internal/domain/entity"
	"github.com/jhoicas/Entregas-api/internal/domain/repository"
)

var _ repository.StatusHistoryRepository = (*StatusHistoryRepo)(nil)

// StatusHistoryRepo historial append-only de estados de pedido sobre PostgreSQL.
type StatusHistoryRepo struct {
	q Querier
}

// NewStatusHistoryRepository construye el adaptador del historial. Pasar pool o tx (Querier).
func NewStatusHistoryRepository(q Querier) *StatusHistoryRepo {
	return &StatusHistoryRepo{q: q}
}

// Append agrega una entrada al historial de un pedido.
func (r *StatusHistoryRepo) Append(h *entity.StatusHistory) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	query := `
		INSERT INTO order_status_history (id, order_id, from_status, to_status, actor, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		h.ID, h.OrderID, h.FromStatus, h.ToStatus, h.Actor, h.Notes, h.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append status history: %w", err)
	}
	return nil
}

// ListByOrder historial de un pedido en orden cronológico ascendente.
func (r *StatusHistoryRepo) ListByOrder(orderID string) ([]*entity.StatusHistory, error) {
	query := `
		SELECT id, order_id, from_status, to_status, actor, notes, created_at
		FROM order_status_history WHERE order_id = $1
		ORDER BY created_at ASC, id ASC`
	rows, err := r.q.Query(context.Background(), query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list status history: %w", err)
	}
	defer rows.Close()
	var list []*entity.StatusHistory
	for rows.Next() {
		var h entity.StatusHistory
		if err := rows.Scan(&h.ID, &h.OrderID, &h.FromStatus, &h.ToStatus, &h.Actor, &h.Notes, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status history: %w", err)
		}
		list = append(list, &h)
	}
	return list, rows.Err()
}
