package ledger

import (
	"context"
	"time"

	"github.com/meridian/banking-ledger/domain"
)

// =============================================================================
// READ-ONLY QUERIES - No balance side effects
// =============================================================================

// Movement returns a single movement by ID.
func (e *Engine) Movement(ctx context.Context, id domain.MovementID) (domain.Movement, error) {
	return e.store.GetMovement(ctx, id)
}

// Movements returns every movement in the ledger.
func (e *Engine) Movements(ctx context.Context) ([]domain.Movement, error) {
	return e.store.ListMovements(ctx)
}

// MovementsByAccount returns an account's movements in application order.
func (e *Engine) MovementsByAccount(ctx context.Context, accountID domain.AccountID) ([]domain.Movement, error) {
	return e.store.ListMovementsByAccount(ctx, accountID)
}

// MovementsInRange returns movements dated within [from, to].
func (e *Engine) MovementsInRange(ctx context.Context, from, to time.Time) ([]domain.Movement, error) {
	return e.store.ListMovementsInRange(ctx, from, to)
}

// MovementsByAccountInRange returns one account's movements within [from, to].
func (e *Engine) MovementsByAccountInRange(ctx context.Context, accountID domain.AccountID, from, to time.Time) ([]domain.Movement, error) {
	return e.store.ListMovementsByAccountInRange(ctx, accountID, from, to)
}

// MovementsByType returns movements carrying the given type label. The
// label is informational; use Debits/Credits for sign-based filtering.
func (e *Engine) MovementsByType(ctx context.Context, typeLabel string) ([]domain.Movement, error) {
	return e.store.ListMovementsByType(ctx, typeLabel)
}

// Debits returns an account's movements with amount < 0, newest first.
func (e *Engine) Debits(ctx context.Context, accountID domain.AccountID) ([]domain.Movement, error) {
	return e.store.ListDebitsByAccount(ctx, accountID)
}

// Credits returns an account's movements with amount > 0, newest first.
func (e *Engine) Credits(ctx context.Context, accountID domain.AccountID) ([]domain.Movement, error) {
	return e.store.ListCreditsByAccount(ctx, accountID)
}

// LastMovement returns the most recent movement on an account. Fails with
// NotFound when the account has none.
func (e *Engine) LastMovement(ctx context.Context, accountID domain.AccountID) (domain.Movement, error) {
	return e.store.LastMovementByAccount(ctx, accountID)
}

// Search matches free text against movement descriptions and type labels.
func (e *Engine) Search(ctx context.Context, query string) ([]domain.Movement, error) {
	return e.store.SearchMovements(ctx, query)
}

// CountByAccount returns the number of movements attached to an account.
func (e *Engine) CountByAccount(ctx context.Context, accountID domain.AccountID) (int64, error) {
	return e.store.CountMovementsByAccount(ctx, accountID)
}
