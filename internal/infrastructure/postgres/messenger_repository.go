package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Entregas-api/internal/domain/entity"
	"github.com/jhoicas/Entregas-api/internal/domain/repository"
)

var _ repository.MessengerRepository = (*MessengerRepo)(nil)

// MessengerRepo implementación de MessengerRepository sobre PostgreSQL.
// Las zonas de cobertura se guardan como text[] ya normalizadas.
type MessengerRepo struct {
	q Querier
}

// NewMessengerRepository construye el adaptador del directorio de mensajeros.
func NewMessengerRepository(q Querier) *MessengerRepo {
	return &MessengerRepo{q: q}
}

const messengerColumns = `id, company_id, name, phone, zones, active, created_at, updated_at`

// Create persiste un mensajero nuevo.
func (r *MessengerRepo) Create(m *entity.Messenger) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO messengers (` + messengerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		m.ID, m.CompanyID, m.Name, m.Phone, m.Zones, m.Active, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert messenger: %w", err)
	}
	return nil
}

// GetByID obtiene un mensajero por ID. nil, nil si no existe.
func (r *MessengerRepo) GetByID(id string) (*entity.Messenger, error) {
	query := `SELECT ` + messengerColumns + ` FROM messengers WHERE id = $1`
	var m entity.Messenger
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&m.ID, &m.CompanyID, &m.Name, &m.Phone, &m.Zones, &m.Active, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get messenger: %w", err)
	}
	return &m, nil
}

// Update persiste los cambios de un mensajero.
func (r *MessengerRepo) Update(m *entity.Messenger) error {
	query := `
		UPDATE messengers SET name = $2, phone = $3, zones = $4, active = $5, updated_at = $6
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		m.ID, m.Name, m.Phone, m.Zones, m.Active, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update messenger: %w", err)
	}
	return nil
}

// ListActive mensajeros activos de la empresa, en orden estable por nombre.
func (r *MessengerRepo) ListActive(companyID string) ([]*entity.Messenger, error) {
	query := `
		SELECT ` + messengerColumns + `
		FROM messengers WHERE company_id = $1 AND active = true
		ORDER BY name ASC, id ASC`
	return r.list(query, companyID)
}

// List mensajeros de la empresa con paginación.
func (r *MessengerRepo) List(companyID string, limit, offset int) ([]*entity.Messenger, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT ` + messengerColumns + `
		FROM messengers WHERE company_id = $1
		ORDER BY name ASC, id ASC LIMIT $2 OFFSET $3`
	return r.list(query, companyID, limit, offset)
}

func (r *MessengerRepo) list(query string, args ...any) ([]*entity.Messenger, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messengers: %w", err)
	}
	defer rows.Close()
	var list []*entity.Messenger
	for rows.Next() {
		var m entity.Messenger
		if err := rows.Scan(&m.ID, &m.CompanyID, &m.Name, &m.Phone, &m.Zones, &m.Active, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan messenger: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
