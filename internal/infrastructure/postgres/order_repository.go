package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Entregas-api/internal/domain"
	"github.com/jhoicas/Entregas-api/internal/domain/entity"
	"github.com/jhoicas/Entregas-api/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo implementación de OrderRepository sobre PostgreSQL (usable con pool o tx).
// Las líneas del pedido viven en order_items y se cargan junto al pedido.
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador de pedidos. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

const orderColumns = `id, company_id, customer_name, customer_phone, customer_address,
		province, canton, district, zone_key, total_amount, status,
		assigned_messenger_id, fulfilled_by_id, route_assignment_id, route_position,
		confirmed, reschedule_count, version, route_date, created_at, updated_at`

// Create persiste un pedido nuevo con sus líneas.
func (r *OrderRepo) Create(order *entity.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`
	_, err := r.q.Exec(context.Background(), query,
		order.ID, order.CompanyID, order.CustomerName, order.CustomerPhone, order.CustomerAddress,
		order.Province, order.Canton, order.District, order.ZoneKey, order.TotalAmount, order.Status,
		nullable(order.AssignedMessengerID), nullable(order.FulfilledByID), nullable(order.RouteAssignmentID), order.RoutePosition,
		order.Confirmed, order.RescheduleCount, order.Version, order.RouteDate, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert order: %w", err)
	}
	for i, item := range order.Items {
		_, err := r.q.Exec(context.Background(), `
			INSERT INTO order_items (order_id, line_no, product_id, warehouse_id, quantity)
			VALUES ($1, $2, $3, $4, $5)`,
			order.ID, i, item.ProductID, item.WarehouseID, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

// GetByID obtiene un pedido con sus líneas. nil, nil si no existe.
func (r *OrderRepo) GetByID(id string) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	order, err := r.scanOne(query, id)
	if err != nil || order == nil {
		return order, err
	}
	if err := r.loadItems([]*entity.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateWithVersion persiste el pedido solo si la versión coincide con la
// fila (bloqueo optimista). Incrementa Version en memoria si tuvo éxito;
// devuelve domain.ErrConflicto si otra transacción ganó la carrera.
func (r *OrderRepo) UpdateWithVersion(order *entity.Order) error {
	query := `
		UPDATE orders SET
			status = $3, assigned_messenger_id = $4, fulfilled_by_id = $5,
			route_assignment_id = $6, route_position = $7, confirmed = $8,
			reschedule_count = $9, route_date = $10, updated_at = $11,
			version = version + 1
		WHERE id = $1 AND version = $2`
	tag, err := r.q.Exec(context.Background(), query,
		order.ID, order.Version,
		order.Status, nullable(order.AssignedMessengerID), nullable(order.FulfilledByID),
		nullable(order.RouteAssignmentID), order.RoutePosition, order.Confirmed,
		order.RescheduleCount, order.RouteDate, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: pedido %s versión %d", domain.ErrConflicto, order.ID, order.Version)
	}
	order.Version++
	return nil
}

// List lista pedidos según filtro, más recientes primero.
func (r *OrderRepo) List(filter repository.OrderFilter) ([]*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE company_id = $1`
	args := []any{filter.CompanyID}
	pos := 2
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", pos)
		args = append(args, filter.Status)
		pos++
	}
	if filter.Zone != "" {
		// zone_key ya viene normalizada al escribir (routing.ZoneKeyOf), así
		// que el filtro encuentra también las filas digitadas con tildes.
		query += fmt.Sprintf(" AND zone_key = $%d", pos)
		args = append(args, filter.Zone)
		pos++
	}
	if filter.From != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *filter.From)
		pos++
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", pos)
		args = append(args, *filter.To)
		pos++
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, filter.Offset)

	orders, err := r.scanMany(query, args...)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ListPendingUnassigned pedidos en `pendiente` sin ruta, con sus líneas, en
// orden de creación. Es la entrada estable del agrupador de zonas.
func (r *OrderRepo) ListPendingUnassigned(companyID string) ([]*entity.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE company_id = $1 AND status = $2 AND route_assignment_id IS NULL
		ORDER BY created_at ASC, id ASC`
	orders, err := r.scanMany(query, companyID, entity.OrderStatusPendiente)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ListByRoute pedidos de una ruta en su posición estable.
func (r *OrderRepo) ListByRoute(routeAssignmentID string) ([]*entity.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders WHERE route_assignment_id = $1
		ORDER BY route_position ASC, id ASC`
	orders, err := r.scanMany(query, routeAssignmentID)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// AssignToRoute fija ruta, mensajero y posición de un pedido.
func (r *OrderRepo) AssignToRoute(orderID, routeID, messengerID string, position int) error {
	query := `
		UPDATE orders SET route_assignment_id = $2, assigned_messenger_id = $3,
			route_position = $4, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, orderID, routeID, messengerID, position)
	if err != nil {
		return fmt.Errorf("assign order to route: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: pedido %s", domain.ErrNotFound, orderID)
	}
	return nil
}

// ── Scan helpers ──────────────────────────────────────────────────────────────

func (r *OrderRepo) scanOne(query string, args ...any) (*entity.Order, error) {
	row := r.q.QueryRow(context.Background(), query, args...)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

func (r *OrderRepo) scanMany(query string, args ...any) ([]*entity.Order, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	var list []*entity.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		list = append(list, order)
	}
	return list, rows.Err()
}

func scanOrder(row pgx.Row) (*entity.Order, error) {
	var o entity.Order
	var messengerID, fulfilledByID, routeID *string
	err := row.Scan(
		&o.ID, &o.CompanyID, &o.CustomerName, &o.CustomerPhone, &o.CustomerAddress,
		&o.Province, &o.Canton, &o.District, &o.ZoneKey, &o.TotalAmount, &o.Status,
		&messengerID, &fulfilledByID, &routeID, &o.RoutePosition,
		&o.Confirmed, &o.RescheduleCount, &o.Version, &o.RouteDate, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if messengerID != nil {
		o.AssignedMessengerID = *messengerID
	}
	if fulfilledByID != nil {
		o.FulfilledByID = *fulfilledByID
	}
	if routeID != nil {
		o.RouteAssignmentID = *routeID
	}
	return &o, nil
}

// loadItems carga las líneas de los pedidos dados en una sola consulta.
func (r *OrderRepo) loadItems(orders []*entity.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	byID := make(map[string]*entity.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
	}
	rows, err := r.q.Query(context.Background(), `
		SELECT order_id, product_id, warehouse_id, quantity
		FROM order_items WHERE order_id = ANY($1)
		ORDER BY order_id, line_no`, ids)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var orderID string
		var item entity.OrderItem
		if err := rows.Scan(&orderID, &item.ProductID, &item.WarehouseID, &item.Quantity); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}

// nullable convierte "" en NULL para columnas de referencia opcionales.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
