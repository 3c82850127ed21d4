package repository

import (
	"time"

	"github.com/jhoicas/Entregas-api/internal/domain/entity"
)

// RouteAssignmentRepository puerto de persistencia de asignaciones de ruta.
type RouteAssignmentRepository interface {
	Create(a *entity.RouteAssignment) error
	GetByID(id string) (*entity.RouteAssignment, error)
	// GetForUpdate bloquea la fila: los contadores se actualizan dentro de la
	// misma transacción que la transición del pedido miembro.
	GetForUpdate(id string) (*entity.RouteAssignment, error)
	Update(a *entity.RouteAssignment) error
	ListByDate(routeDate time.Time, companyID string) ([]*entity.RouteAssignment, error)
}
