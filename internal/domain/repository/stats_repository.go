package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// MessengerDailyRow agregado crudo por mensajero para un rango de fechas.
type MessengerDailyRow struct {
	MessengerID    string
	MessengerName  string
	Assigned       int
	Delivered      int
	Returned       int
	Rescheduled    int
	TotalCollected decimal.Decimal // suma de montos de pedidos entregados
}

// ZoneDailyRow agregado crudo por zona para un rango de fechas.
type ZoneDailyRow struct {
	Zone        string
	Total       int
	Delivered   int
	Returned    int
	Rescheduled int
	TotalAmount decimal.Decimal
}

// StatsRepository consultas read-only de agregación para el agregador de
// estadísticas. No muta nada.
type StatsRepository interface {
	GetMessengerDaily(ctx context.Context, companyID string, from, to time.Time) ([]MessengerDailyRow, error)
	GetZoneDaily(ctx context.Context, companyID string, from, to time.Time) ([]ZoneDailyRow, error)
}
