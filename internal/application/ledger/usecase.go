// Package ledger implementa el libro mayor de inventario: la única vía para
// reservar, liberar, descontar, reponer y ajustar stock. Cada mutación es una
// operación atómica (bloqueo de fila + registro append-only en la misma
// transacción) e idempotente por clave (referencia, acción, ítem).
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Entregas-api/internal/domain"
	"github.com/jhoicas/Entregas-api/internal/domain/entity"
	"github.com/jhoicas/Entregas-api/internal/domain/repository"
	"github.com/jhoicas/Entregas-api/pkg/logger"
)

// Ledger caso de uso del inventario. itemRepo y txRepo atados al pool se usan
// solo para lecturas; toda mutación pasa por el TxRunner.
type Ledger struct {
	txRunner TxRunner
	itemRepo repository.InventoryItemRepository
	txRepo   repository.InventoryTransactionRepository
	log      *logger.Logger
}

// New construye el ledger.
func New(txRunner TxRunner, itemRepo repository.InventoryItemRepository, txRepo repository.InventoryTransactionRepository, log *logger.Logger) *Ledger {
	return &Ledger{txRunner: txRunner, itemRepo: itemRepo, txRepo: txRepo, log: log}
}

// MovementInput entrada común de las operaciones ligadas a un pedido.
// Reference es la clave de idempotencia ("pedidoID#intento").
type MovementInput struct {
	ProductID   string
	WarehouseID string
	Quantity    int64
	Reference   string
	Actor       string
}

func (in MovementInput) validate() error {
	if in.ProductID == "" || in.WarehouseID == "" || in.Reference == "" || in.Quantity <= 0 {
		return domain.ErrInvalidInput
	}
	return nil
}

// ── Operaciones públicas (cada una en su propia transacción) ──────────────────

// Reserve aparta stock para un pedido. Falla con ErrStockInsuficiente si
// dejaría el disponible negativo.
func (l *Ledger) Reserve(ctx context.Context, in MovementInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	return l.txRunner.Run(ctx, func(items repository.InventoryItemRepository, txs repository.InventoryTransactionRepository) error {
		return l.ReserveInTx(items, txs, in, time.Now())
	})
}

// Release cancela una reserva vigente y devuelve las unidades al disponible.
func (l *Ledger) Release(ctx context.Context, in MovementInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	return l.txRunner.Run(ctx, func(items repository.InventoryItemRepository, txs repository.InventoryTransactionRepository) error {
		return l.ReleaseInTx(items, txs, in, time.Now())
	})
}

// Deduct descuenta de la existencia física las unidades reservadas (entrega).
func (l *Ledger) Deduct(ctx context.Context, in MovementInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	return l.txRunner.Run(ctx, func(items repository.InventoryItemRepository, txs repository.InventoryTransactionRepository) error {
		return l.DeductInTx(items, txs, in, time.Now())
	})
}

// Restore repone existencia física tras un descuento previo (devolución
// post-entrega a bodega).
func (l *Ledger) Restore(ctx context.Context, in MovementInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	return l.txRunner.Run(ctx, func(items repository.InventoryItemRepository, txs repository.InventoryTransactionRepository) error {
		return l.RestoreInTx(items, txs, in, time.Now())
	})
}

// Adjust aplica un delta manual con motivo (conteo físico, merma, corrección).
func (l *Ledger) Adjust(ctx context.Context, productID, warehouseID string, delta int64, reason, actor string) error {
	if productID == "" || warehouseID == "" || delta == 0 || reason == "" {
		return domain.ErrInvalidInput
	}
	return l.txRunner.Run(ctx, func(items repository.InventoryItemRepository, txs repository.InventoryTransactionRepository) error {
		return l.AdjustInTx(items, txs, productID, warehouseID, delta, reason, actor, time.Now())
	})
}

// GetAvailable disponible actual de un ítem (existencia − reservado).
func (l *Ledger) GetAvailable(ctx context.Context, productID, warehouseID string) (int64, error) {
	item, err := l.itemRepo.Get(productID, warehouseID)
	if err != nil {
		return 0, err
	}
	if item == nil {
		return 0, fmt.Errorf("%w: ítem %s/%s", domain.ErrNotFound, productID, warehouseID)
	}
	return item.AvailableStock(), nil
}

// ListTransactions historial del ledger por ítem (read-only).
func (l *Ledger) ListTransactions(ctx context.Context, productID, warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.InventoryTransaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return l.txRepo.ListByItem(productID, warehouseID, from, to, limit, offset)
}

// ListTransactionsByReference historial originado por un pedido.
func (l *Ledger) ListTransactionsByReference(ctx context.Context, reference string) ([]*entity.InventoryTransaction, error) {
	return l.txRepo.ListByReference(reference)
}

// LowStock ítems con disponible bajo su umbral mínimo.
func (l *Ledger) LowStock(ctx context.Context, companyID string) ([]*entity.InventoryItem, error) {
	return l.itemRepo.ListBelowMinimum(companyID)
}

// ── Variantes InTx (reutilizables dentro de la transacción del caller) ────────
// El motor de transiciones las invoca con sus propios repos transaccionales
// para que el cambio de estado del pedido y el efecto de inventario se
// confirmen juntos o se reviertan juntos.

// ReserveInTx aparta stock dentro de la transacción del caller.
func (l *Ledger) ReserveInTx(items repository.InventoryItemRepository, txs repository.InventoryTransactionRepository, in MovementInput, now time.Time) error {
	dup, err := l.isDuplicate(txs, in.Reference, entity.ActionReserve, in.ProductID, in.WarehouseID)
	if err != nil || dup {
		return err
	}
	item, err := l.lockItem(items, in.ProductID, in.WarehouseID)
	if err != nil {
		return err
	}
	if item.AvailableStock() < in.Quantity {
		return fmt.Errorf("%w: disponibles %d, solicitados %d",
			domain.ErrStockInsuficiente, item.AvailableStock(), in.Quantity)
	}
	item.ReservedStock += in.Quantity
	item.UpdatedAt = now
	if err := items.Upsert(item); err != nil {
		return err
	}
	return txs.Create(l.newTransaction(item, entity.ActionReserve, in.Quantity, item.CurrentStock, item.CurrentStock, in.Reference, "", in.Actor, now))
}

// ReleaseInTx cancela una reserva dentro de la transacción del caller.
func (l *Ledger) ReleaseInTx(items repository.InventoryItemRepository, txs repository.InventoryTransactionRepository, in MovementInput, now time.Time) error {
	dup, err := l.isDuplicate(txs, in.Reference, entity.ActionRelease, in.ProductID, in.WarehouseID)
	if err != nil || dup {
		return err
	}
	outstanding, err := l.outstandingReserved(txs, in.Reference, in.ProductID, in.WarehouseID)
	if err != nil {
		return err
	}
	if in.Quantity > outstanding {
		l.warnAdjustment("release", in, outstanding)
		return fmt.Errorf("%w: release de %d con reserva vigente de %d",
			domain.ErrAjusteInvalido, in.Quantity, outstanding)
	}
	item, err := l.lockItem(items, in.ProductID, in.WarehouseID)
	if err != nil {
		return err
	}
	if item.ReservedStock < in.Quantity {
		l.warnAdjustment("release", in, item.ReservedStock)
		return fmt.Errorf("%w: reservado del ítem %d, release de %d",
			domain.ErrAjusteInvalido, item.ReservedStock, in.Quantity)
	}
	item.ReservedStock -= in.Quantity
	item.UpdatedAt = now
	if err := items.Upsert(item); err != nil {
		return err
	}
	return txs.Create(l.newTransaction(item, entity.ActionRelease, -in.Quantity, item.CurrentStock, item.CurrentStock, in.Reference, "", in.Actor, now))
}

// DeductInTx descuenta existencia reservada dentro de la transacción del caller.
func (l *Ledger) DeductInTx(items repository.InventoryItemRepository, txs repository.InventoryTransactionRepository, in MovementInput, now time.Time) error {
	dup, err := l.isDuplicate(txs, in.Reference, entity.ActionDeliver, in.ProductID, in.WarehouseID)
	if err != nil || dup {
		return err
	}
	outstanding, err := l.outstandingReserved(txs, in.Reference, in.ProductID, in.WarehouseID)
	if err != nil {
		return err
	}
	if outstanding < in.Quantity {
		l.warnAdjustment("deduct", in, outstanding)
		return fmt.Errorf("%w: descuento de %d sin reserva vigente (%d)",
			domain.ErrAjusteInvalido, in.Quantity, outstanding)
	}
	item, err := l.lockItem(items, in.ProductID, in.WarehouseID)
	if err != nil {
		return err
	}
	if item.CurrentStock < in.Quantity {
		return fmt.Errorf("%w: existencia %d, descuento %d",
			domain.ErrStockInsuficiente, item.CurrentStock, in.Quantity)
	}
	prev := item.CurrentStock
	item.CurrentStock -= in.Quantity
	item.ReservedStock -= in.Quantity
	item.UpdatedAt = now
	if err := items.Upsert(item); err != nil {
		return err
	}
	return txs.Create(l.newTransaction(item, entity.ActionDeliver, -in.Quantity, prev, item.CurrentStock, in.Reference, "", in.Actor, now))
}

// RestoreInTx repone existencia tras un descuento previo, dentro de la
// transacción del caller.
func (l *Ledger) RestoreInTx(items repository.InventoryItemRepository, txs repository.InventoryTransactionRepository, in MovementInput, now time.Time) error {
	dup, err := l.isDuplicate(txs, in.Reference, entity.ActionReturn, in.ProductID, in.WarehouseID)
	if err != nil || dup {
		return err
	}
	deducted, err := l.outstandingDeducted(txs, in.Reference, in.ProductID, in.WarehouseID)
	if err != nil {
		return err
	}
	if in.Quantity > deducted {
		l.warnAdjustment("restore", in, deducted)
		return fmt.Errorf("%w: reposición de %d con descuento vigente de %d",
			domain.ErrAjusteInvalido, in.Quantity, deducted)
	}
	item, err := l.lockItem(items, in.ProductID, in.WarehouseID)
	if err != nil {
		return err
	}
	prev := item.CurrentStock
	item.CurrentStock += in.Quantity
	item.UpdatedAt = now
	if err := items.Upsert(item); err != nil {
		return err
	}
	return txs.Create(l.newTransaction(item, entity.ActionReturn, in.Quantity, prev, item.CurrentStock, in.Reference, "", in.Actor, now))
}

// ShipInTx registra el despacho a ruta como transacción de auditoría sin
// delta. Exige reserva vigente.
func (l *Ledger) ShipInTx(items repository.InventoryItemRepository, txs repository.InventoryTransactionRepository, in MovementInput, now time.Time) error {
	dup, err := l.isDuplicate(txs, in.Reference, entity.ActionShip, in.ProductID, in.WarehouseID)
	if err != nil || dup {
		return err
	}
	outstanding, err := l.outstandingReserved(txs, in.Reference, in.ProductID, in.WarehouseID)
	if err != nil {
		return err
	}
	if outstanding < in.Quantity {
		l.warnAdjustment("ship", in, outstanding)
		return fmt.Errorf("%w: despacho de %d sin reserva vigente (%d)",
			domain.ErrAjusteInvalido, in.Quantity, outstanding)
	}
	item, err := l.lockItem(items, in.ProductID, in.WarehouseID)
	if err != nil {
		return err
	}
	return txs.Create(l.newTransaction(item, entity.ActionShip, 0, item.CurrentStock, item.CurrentStock, in.Reference, "", in.Actor, now))
}

// AdjustInTx aplica un delta manual dentro de la transacción del caller.
func (l *Ledger) AdjustInTx(items repository.InventoryItemRepository, txs repository.InventoryTransactionRepository, productID, warehouseID string, delta int64, reason, actor string, now time.Time) error {
	item, err := l.lockItem(items, productID, warehouseID)
	if err != nil {
		return err
	}
	prev := item.CurrentStock
	next := prev + delta
	if next < 0 || next-item.ReservedStock < 0 {
		return fmt.Errorf("%w: existencia %d, reservado %d, delta %d",
			domain.ErrStockInsuficiente, prev, item.ReservedStock, delta)
	}
	item.CurrentStock = next
	item.UpdatedAt = now
	if err := items.Upsert(item); err != nil {
		return err
	}
	return txs.Create(l.newTransaction(item, entity.ActionAdjust, delta, prev, next, uuid.New().String(), reason, actor, now))
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// isDuplicate detecta una colisión de idempotencia: ya existe una transacción
// con la misma (referencia, acción, ítem). No es un error: se resuelve con
// no-op y se deja rastro a nivel debug.
func (l *Ledger) isDuplicate(txs repository.InventoryTransactionRepository, reference, action, productID, warehouseID string) (bool, error) {
	existing, err := txs.FindByReference(reference, action, productID, warehouseID)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}
	if l.log != nil {
		l.log.Debug().
			Str("reference", reference).
			Str("action", action).
			Str("product_id", productID).
			Msg("transacción duplicada, no-op")
	}
	return true, nil
}

func (l *Ledger) lockItem(items repository.InventoryItemRepository, productID, warehouseID string) (*entity.InventoryItem, error) {
	item, err := items.GetForUpdate(productID, warehouseID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: ítem %s/%s", domain.ErrNotFound, productID, warehouseID)
	}
	return item, nil
}

// outstandingReserved unidades reservadas vigentes de una referencia sobre un
// ítem: reservas menos releases menos descuentos.
func (l *Ledger) outstandingReserved(txs repository.InventoryTransactionRepository, reference, productID, warehouseID string) (int64, error) {
	list, err := txs.ListByReference(reference)
	if err != nil {
		return 0, err
	}
	var outstanding int64
	for _, tx := range list {
		if tx.ProductID != productID || tx.WarehouseID != warehouseID {
			continue
		}
		switch tx.Action {
		case entity.ActionReserve, entity.ActionRelease, entity.ActionDeliver:
			outstanding += tx.Quantity
		}
	}
	return outstanding, nil
}

// outstandingDeducted unidades descontadas de una referencia aún no repuestas.
func (l *Ledger) outstandingDeducted(txs repository.InventoryTransactionRepository, reference, productID, warehouseID string) (int64, error) {
	list, err := txs.ListByReference(reference)
	if err != nil {
		return 0, err
	}
	var deducted int64
	for _, tx := range list {
		if tx.ProductID != productID || tx.WarehouseID != warehouseID {
			continue
		}
		switch tx.Action {
		case entity.ActionDeliver:
			deducted += -tx.Quantity
		case entity.ActionReturn:
			deducted -= tx.Quantity
		}
	}
	return deducted, nil
}

func (l *Ledger) newTransaction(item *entity.InventoryItem, action string, quantity, prev, next int64, reference, reason, actor string, now time.Time) *entity.InventoryTransaction {
	return &entity.InventoryTransaction{
		ID:            uuid.New().String(),
		ProductID:     item.ProductID,
		WarehouseID:   item.WarehouseID,
		Action:        action,
		Quantity:      quantity,
		PreviousStock: prev,
		NewStock:      next,
		Reference:     reference,
		Reason:        reason,
		Actor:         actor,
		CreatedAt:     now,
	}
}

func (l *Ledger) warnAdjustment(op string, in MovementInput, outstanding int64) {
	if l.log == nil {
		return
	}
	l.log.Warn().
		Str("op", op).
		Str("reference", in.Reference).
		Str("product_id", in.ProductID).
		Int64("quantity", in.Quantity).
		Int64("outstanding", outstanding).
		Msg("ajuste inválido: indica un bug aguas arriba")
}
