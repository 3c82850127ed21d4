package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin     = "admin"
	RoleOperador  = "operador"  // opera el tablero: ruteo, ajustes de inventario
	RoleMensajero = "mensajero" // reporta desenlaces de entrega desde la calle
)

// User representa un operador del sistema (pertenece a una Company).
// Su ID es el actor que se registra en toda operación mutante para auditoría.
type User struct {
	ID           string
	CompanyID    string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string // admin, operador, mensajero
	Status       string // active, inactive, suspended
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
