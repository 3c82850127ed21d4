package dto

import "github.com/shopspring/decimal"

// MessengerDailySummaryDTO rollup diario por mensajero.
type MessengerDailySummaryDTO struct {
	MessengerID    string          `json:"messenger_id"`
	MessengerName  string          `json:"messenger_name"`
	Assigned       int             `json:"assigned"`
	Delivered      int             `json:"delivered"`
	Returned       int             `json:"returned"`
	Rescheduled    int             `json:"rescheduled"`
	Pending        int             `json:"pending"`
	TotalCollected decimal.Decimal `json:"total_collected"`
	Effectiveness  decimal.Decimal `json:"effectiveness"` // % entregados sobre asignados
}

// ZoneDailySummaryDTO rollup diario por zona.
type ZoneDailySummaryDTO struct {
	Zone          string          `json:"zone"`
	Total         int             `json:"total"`
	Delivered     int             `json:"delivered"`
	Returned      int             `json:"returned"`
	Rescheduled   int             `json:"rescheduled"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Effectiveness decimal.Decimal `json:"effectiveness"`
}

// DailyOverviewDTO resumen del día para el tablero.
type DailyOverviewDTO struct {
	Date       string                     `json:"date"`
	Messengers []MessengerDailySummaryDTO `json:"messengers"`
	Zones      []ZoneDailySummaryDTO      `json:"zones"`
}
