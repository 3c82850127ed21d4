package entity

import "time"

// Messenger mensajero de entrega con su cobertura de zonas.
// El directorio de mensajeros alimenta el ruteo: un pedido solo puede
// asignarse a un mensajero cuya cobertura incluya la zona del pedido.
type Messenger struct {
	ID        string
	CompanyID string
	Name      string
	Phone     string

	// Zones claves de zona normalizadas que cubre (distrito, cantón o
	// provincia). Vacío = cubre cualquier zona.
	Zones []string

	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Covers indica si el mensajero cubre la zona indicada (clave normalizada).
func (m *Messenger) Covers(zoneKey string) bool {
	if len(m.Zones) == 0 {
		return true
	}
	for _, z := range m.Zones {
		if z == zoneKey {
			return true
		}
	}
	return false
}
