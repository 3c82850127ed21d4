package entity

import "time"

// StatusHistory entrada append-only del historial de estados de un pedido.
type StatusHistory struct {
	ID         string
	OrderID    string
	FromStatus string
	ToStatus   string
	Actor      string
	Notes      string
	CreatedAt  time.Time
}
