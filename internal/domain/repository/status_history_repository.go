package repository

import "github.com/jhoicas/Entregas-api/internal/domain/entity"

// StatusHistoryRepository puerto append-only del historial de estados.
type StatusHistoryRepository interface {
	Append(h *entity.StatusHistory) error
	ListByOrder(orderID string) ([]*entity.StatusHistory, error)
}
