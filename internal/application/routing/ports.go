package routing

import (
	"context"

	"github.com/jhoicas/Entregas-api/internal/domain/entity"
)

// SheetGenerator genera la hoja de ruta imprimible de una asignación.
type SheetGenerator interface {
	GenerateRouteSheet(ctx context.Context, a *entity.RouteAssignment, m *entity.Messenger, orders []*entity.Order) ([]byte, error)
}
