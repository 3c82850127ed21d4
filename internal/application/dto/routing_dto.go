package dto

import "github.com/shopspring/decimal"

// AssignRoutesRequest body para POST /api/routes/assign.
type AssignRoutesRequest struct {
	RouteDate string `json:"route_date"` // YYYY-MM-DD; vacío = hoy
}

// RouteAssignmentDTO asignación de ruta.
type RouteAssignmentDTO struct {
	ID               string `json:"id"`
	MessengerID      string `json:"messenger_id"`
	RouteDate        string `json:"route_date"`
	Zone             string `json:"zone"`
	Status           string `json:"status"`
	OrderCount       int    `json:"order_count"`
	DeliveredCount   int    `json:"delivered_count"`
	ReturnedCount    int    `json:"returned_count"`
	RescheduledCount int    `json:"rescheduled_count"`
	PendingCount     int    `json:"pending_count"`
}

// UnassignedOrderDTO pedido sin colocar y su motivo, para intervención manual.
type UnassignedOrderDTO struct {
	OrderID      string `json:"order_id"`
	CustomerName string `json:"customer_name"`
	Zone         string `json:"zone"`
	Reason       string `json:"reason"` // no_agent_available | zone_uncovered
}

// AssignRoutesResponse resultado de un ciclo de planificación.
type AssignRoutesResponse struct {
	InputCount  int                  `json:"input_count"`
	PlacedCount int                  `json:"placed_count"`
	Confirmed   int                  `json:"confirmed"`
	Assignments []RouteAssignmentDTO `json:"assignments"`
	Unassigned  []UnassignedOrderDTO `json:"unassigned"`
}

// MessengerRequest body para POST /api/messengers.
type MessengerRequest struct {
	Name   string   `json:"name"`
	Phone  string   `json:"phone,omitempty"`
	Zones  []string `json:"zones,omitempty"` // vacío = cubre cualquier zona
	Active *bool    `json:"active,omitempty"`
}

// MessengerDTO mensajero del directorio.
type MessengerDTO struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Phone  string   `json:"phone,omitempty"`
	Zones  []string `json:"zones,omitempty"`
	Active bool     `json:"active"`
}

// RouteStatsDTO estadísticas de una ruta.
type RouteStatsDTO struct {
	RouteID       string          `json:"route_id"`
	MessengerID   string          `json:"messenger_id"`
	Zone          string          `json:"zone"`
	RouteDate     string          `json:"route_date"`
	Status        string          `json:"status"`
	OrderCount    int             `json:"order_count"`
	Delivered     int             `json:"delivered"`
	Returned      int             `json:"returned"`
	Rescheduled   int             `json:"rescheduled"`
	Pending       int             `json:"pending"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Effectiveness decimal.Decimal `json:"effectiveness"` // % entregados
}
