// Package orders implementa el ingreso y consulta de pedidos. Los pedidos
// nacen en `pendiente`; de ahí en adelante solo el motor de transiciones y el
// planificador de rutas los mutan.
package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Entregas-api/internal/domain"
	"github.com/jhoicas/Entregas-api/internal/domain/entity"
	"github.com/jhoicas/Entregas-api/internal/domain/repository"
	domainrouting "github.com/jhoicas/Entregas-api/internal/domain/routing"
	"github.com/jhoicas/Entregas-api/pkg/logger"
)

// UseCase casos de uso de ingreso y consulta de pedidos.
type UseCase struct {
	orderRepo   repository.OrderRepository
	historyRepo repository.StatusHistoryRepository
	log         *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(orderRepo repository.OrderRepository, historyRepo repository.StatusHistoryRepository, log *logger.Logger) *UseCase {
	return &UseCase{orderRepo: orderRepo, historyRepo: historyRepo, log: log}
}

// CreateInput entrada para registrar un pedido nuevo.
type CreateInput struct {
	CompanyID       string
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	Province        string
	Canton          string
	District        string
	TotalAmount     decimal.Decimal
	RouteDate       time.Time
	Items           []entity.OrderItem
	Actor           string
}

func (in CreateInput) validate() error {
	if strings.TrimSpace(in.CustomerName) == "" {
		return fmt.Errorf("%w: falta el nombre del cliente", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.Province) == "" && strings.TrimSpace(in.Canton) == "" && strings.TrimSpace(in.District) == "" {
		return fmt.Errorf("%w: falta la zona del pedido", domain.ErrInvalidInput)
	}
	if len(in.Items) == 0 {
		return fmt.Errorf("%w: el pedido no tiene líneas", domain.ErrInvalidInput)
	}
	for _, it := range in.Items {
		if it.ProductID == "" || it.WarehouseID == "" || it.Quantity <= 0 {
			return fmt.Errorf("%w: línea de producto inválida", domain.ErrInvalidInput)
		}
	}
	if in.TotalAmount.IsNegative() {
		return fmt.Errorf("%w: monto total negativo", domain.ErrInvalidInput)
	}
	return nil
}

// Create registra un pedido en `pendiente` y deja la primera entrada de
// historial.
func (uc *UseCase) Create(ctx context.Context, in CreateInput) (*entity.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	order := &entity.Order{
		ID:              uuid.New().String(),
		CompanyID:       in.CompanyID,
		CustomerName:    strings.TrimSpace(in.CustomerName),
		CustomerPhone:   strings.TrimSpace(in.CustomerPhone),
		CustomerAddress: strings.TrimSpace(in.CustomerAddress),
		Province:        strings.TrimSpace(in.Province),
		Canton:          strings.TrimSpace(in.Canton),
		District:        strings.TrimSpace(in.District),
		TotalAmount:     in.TotalAmount,
		Items:           in.Items,
		Status:          entity.OrderStatusPendiente,
		RouteDate:       in.RouteDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	order.ZoneKey = domainrouting.ZoneKeyOf(order)
	if err := uc.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("crear pedido: %w", err)
	}
	if err := uc.historyRepo.Append(&entity.StatusHistory{
		ID:        uuid.New().String(),
		OrderID:   order.ID,
		ToStatus:  entity.OrderStatusPendiente,
		Actor:     in.Actor,
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}
	return order, nil
}

// Get devuelve un pedido por ID.
func (uc *UseCase) Get(ctx context.Context, id string) (*entity.Order, error) {
	order, err := uc.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: pedido %s", domain.ErrNotFound, id)
	}
	return order, nil
}

// List lista pedidos con filtros simples de igualdad/rango.
func (uc *UseCase) List(ctx context.Context, filter repository.OrderFilter) ([]*entity.Order, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return uc.orderRepo.List(filter)
}

// History historial de estados de un pedido, en orden cronológico.
func (uc *UseCase) History(ctx context.Context, orderID string) ([]*entity.StatusHistory, error) {
	return uc.historyRepo.ListByOrder(orderID)
}
