package repository

import "github.com/jhoicas/Entregas-api/internal/domain/entity"

// MessengerRepository puerto del directorio de mensajeros y su cobertura.
type MessengerRepository interface {
	Create(m *entity.Messenger) error
	GetByID(id string) (*entity.Messenger, error)
	Update(m *entity.Messenger) error
	// ListActive mensajeros activos de la empresa, en orden estable por nombre.
	ListActive(companyID string) ([]*entity.Messenger, error)
	List(companyID string, limit, offset int) ([]*entity.Messenger, error)
}
