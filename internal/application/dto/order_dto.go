package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItemDTO línea de producto de un pedido.
type OrderItemDTO struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	Quantity    int64  `json:"quantity"`
}

// CreateOrderRequest body para POST /api/orders.
type CreateOrderRequest struct {
	CustomerName    string          `json:"customer_name"`
	CustomerPhone   string          `json:"customer_phone,omitempty"`
	CustomerAddress string          `json:"customer_address,omitempty"`
	Province        string          `json:"province,omitempty"`
	Canton          string          `json:"canton,omitempty"`
	District        string          `json:"district,omitempty"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	RouteDate       string          `json:"route_date,omitempty"` // YYYY-MM-DD
	Items           []OrderItemDTO  `json:"items"`
}

// TransitionRequest body para POST /api/orders/:id/transition.
type TransitionRequest struct {
	TargetStatus string `json:"target_status"`
	MessengerID  string `json:"messenger_id,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// OrderResponse representación pública de un pedido.
type OrderResponse struct {
	ID                  string          `json:"id"`
	CustomerName        string          `json:"customer_name"`
	CustomerPhone       string          `json:"customer_phone,omitempty"`
	CustomerAddress     string          `json:"customer_address,omitempty"`
	Province            string          `json:"province,omitempty"`
	Canton              string          `json:"canton,omitempty"`
	District            string          `json:"district,omitempty"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
	Items               []OrderItemDTO  `json:"items"`
	Status              string          `json:"status"`
	AssignedMessengerID string          `json:"assigned_messenger_id,omitempty"`
	FulfilledByID       string          `json:"fulfilled_by_id,omitempty"`
	RouteAssignmentID   string          `json:"route_assignment_id,omitempty"`
	Confirmed           bool            `json:"confirmed"`
	RescheduleCount     int             `json:"reschedule_count"`
	RouteDate           string          `json:"route_date,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// StatusHistoryDTO una entrada del historial de estados.
type StatusHistoryDTO struct {
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status"`
	Actor      string    `json:"actor"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
