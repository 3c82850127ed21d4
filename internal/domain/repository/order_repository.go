package repository

import (
	"time"

	"github.com/jhoicas/Entregas-api/internal/domain/entity"
)

// OrderFilter filtros de listado de pedidos.
type OrderFilter struct {
	CompanyID string
	Status    string
	Zone      string // clave normalizada; cruza distrito/cantón/provincia
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// OrderRepository define el puerto de persistencia para pedidos. Es el único
// escritor del estado del pedido; los casos de uso lo reciben atado a una
// transacción cuando la operación lo exige.
type OrderRepository interface {
	Create(order *entity.Order) error
	GetByID(id string) (*entity.Order, error)
	// UpdateWithVersion persiste el pedido solo si Version coincide con la
	// fila; incrementa Version. Devuelve domain.ErrConflicto si no afecta filas.
	UpdateWithVersion(order *entity.Order) error
	List(filter OrderFilter) ([]*entity.Order, error)
	// ListPendingUnassigned pedidos en `pendiente` sin ruta, con sus líneas,
	// en orden de creación (entrada estable del agrupador de zonas).
	ListPendingUnassigned(companyID string) ([]*entity.Order, error)
	// ListByRoute pedidos de una ruta en su posición estable.
	ListByRoute(routeAssignmentID string) ([]*entity.Order, error)
	// AssignToRoute fija ruta, mensajero y posición de un pedido.
	AssignToRoute(orderID, routeID, messengerID string, position int) error
}
