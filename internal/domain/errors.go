package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")

	// ErrStockInsuficiente la reserva o el descuento violaría el invariante
	// de stock no negativo; se rechaza y se informa el disponible actual.
	ErrStockInsuficiente = errors.New("stock insuficiente")

	// ErrTransicionInvalida el cambio de estado solicitado no es una arista
	// válida desde el estado actual del pedido.
	ErrTransicionInvalida = errors.New("transición de estado inválida")

	// ErrAjusteInvalido release/restore excede la reserva o el descuento
	// vigente; indica un bug aguas arriba y se registra como advertencia.
	ErrAjusteInvalido = errors.New("ajuste de inventario inválido")

	// ErrConflicto el pedido o ítem fue mutado entre lectura y escritura;
	// el caller debe releer y reintentar (el motor no reintenta solo).
	ErrConflicto = errors.New("modificación concurrente, reintente con lectura fresca")
)
