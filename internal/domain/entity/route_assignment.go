package entity

import "time"

// Estados de una asignación de ruta.
const (
	RouteStatusPending    = "pending"     // creada, pedidos aún sin confirmar
	RouteStatusAssigned   = "assigned"    // pedidos confirmados y reservados
	RouteStatusInProgress = "in_progress" // el mensajero salió a ruta
	RouteStatusCompleted  = "completed"   // todos los pedidos con desenlace
)

// DefaultRouteCapacity pedidos por mensajero por fecha de ruta.
const DefaultRouteCapacity = 30

// RouteAssignment conjunto de pedidos acotado por capacidad, despachado a un
// mensajero para una fecha de ruta. Identidad: (mensajero, fecha).
// La membresía la muta solo el asignador de rutas; los contadores solo el
// motor de transiciones.
type RouteAssignment struct {
	ID          string
	CompanyID   string
	MessengerID string
	RouteDate   time.Time
	Zone        string // clave de zona dominante de la ruta

	Status string

	OrderCount       int
	DeliveredCount   int
	ReturnedCount    int
	RescheduledCount int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PendingCount pedidos de la ruta aún sin desenlace.
func (a *RouteAssignment) PendingCount() int {
	return a.OrderCount - a.DeliveredCount - a.ReturnedCount - a.RescheduledCount
}

// Closed indica si ya no acepta pedidos nuevos ni reubicaciones.
func (a *RouteAssignment) Closed() bool {
	return a.Status == RouteStatusInProgress || a.Status == RouteStatusCompleted
}
