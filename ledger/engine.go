/*
Package ledger implements the Movement Engine, the only component permitted
to change an account's current balance.

PURPOSE:
  Applies and reverses movements against account balances as atomic units,
  enforcing the non-negative-balance invariant. Everything else in the
  system reads balances; only this package writes them (account creation
  aside, which seeds current balance from initial balance).

CRITICAL INVARIANTS:
  1. currentBalance == initialBalance + sum of all attached movement amounts
  2. A debit only applies when currentBalance + amount >= 0
  3. Movements are created only against active accounts
  4. The pair (insert movement, update balance) commits atomically, as does
     (update balance, delete movement) on reversal

CONCURRENCY:
  Two concurrent applies against one account must not both pass the
  insufficient-balance check on a balance neither has committed. The engine
  serializes balance-affecting operations per account with a keyed lock and
  runs the read-modify-write inside one store transaction. Operations on
  different accounts proceed fully concurrently.

KNOWN GAP (deliberate):
  Reverse does not recompute the ResultingBalance snapshots of movements
  created after the reversed one, so those snapshots drift from the
  corrected running balance. Callers of historical movement lists depend on
  snapshots matching the original sequence; only the account's current
  balance is kept correct. Do not "fix" this without changing that contract.

SEE ALSO:
  - queries.go: Read-only movement lookups, no balance side effects
  - domain/store.go: The transactional store contract this engine requires
*/
package ledger

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/meridian/banking-ledger/domain"
)

// Engine is the Movement Engine. It owns the balance-mutation path
// exclusively and talks to the store directly, never to the registries.
type Engine struct {
	store domain.TxStore
	clock domain.Clock

	mu    sync.Mutex
	locks map[domain.AccountID]*sync.Mutex
}

// New creates a Movement Engine on top of a transactional store.
func New(store domain.TxStore, clock domain.Clock) *Engine {
	return &Engine{
		store: store,
		clock: clock,
		locks: make(map[domain.AccountID]*sync.Mutex),
	}
}

// accountLock returns the mutex serializing balance writes for one account.
// Locks are never released from the map; the account space is small and
// bounded by the bank's own data.
func (e *Engine) accountLock(id domain.AccountID) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, ok := e.locks[id]
	if !ok {
		l = &sync.Mutex{}
		e.locks[id] = l
	}
	return l
}

// Apply records a movement against an account and moves its balance in the
// same transaction.
//
// Fails with NotFound when the account does not exist, InactiveAccount when
// it is deactivated, and InsufficientBalance when a debit would drive the
// balance below zero. On failure neither the movement log nor the balance
// changes.
func (e *Engine) Apply(ctx context.Context, accountID domain.AccountID, amount decimal.Decimal, description, typeLabel string) (domain.Movement, error) {
	lock := e.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	var created domain.Movement
	err := e.store.WithTx(ctx, func(s domain.Store) error {
		account, err := s.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		if !account.Status.Active() {
			return &domain.InactiveAccountError{AccountID: accountID}
		}

		projected := account.CurrentBalance.Add(amount)
		if amount.IsNegative() && projected.IsNegative() {
			return &domain.InsufficientBalanceError{
				AccountID: accountID,
				Current:   account.CurrentBalance,
				Requested: amount,
			}
		}

		now := e.clock.Now()
		created = domain.Movement{
			AccountID:        accountID,
			OccurredAt:       now,
			Type:             typeLabel,
			Amount:           amount,
			ResultingBalance: projected,
			Description:      description,
			CreatedAt:        now,
		}
		if err := s.InsertMovement(ctx, &created); err != nil {
			return err
		}

		account.CurrentBalance = projected
		account.UpdatedAt = now
		return s.SaveAccount(ctx, &account)
	})
	if err != nil {
		return domain.Movement{}, err
	}
	return created, nil
}

// Reverse undoes a movement's balance effect and removes its record, both
// in one transaction. Fails with NotFound when the movement does not exist.
//
// Snapshots of movements applied after the reversed one are left as they
// were recorded; see the package comment.
func (e *Engine) Reverse(ctx context.Context, movementID domain.MovementID) error {
	// Resolve the owning account outside the keyed lock; the re-read inside
	// the transaction guards against the movement disappearing in between.
	movement, err := e.store.GetMovement(ctx, movementID)
	if err != nil {
		return err
	}

	lock := e.accountLock(movement.AccountID)
	lock.Lock()
	defer lock.Unlock()

	return e.store.WithTx(ctx, func(s domain.Store) error {
		m, err := s.GetMovement(ctx, movementID)
		if err != nil {
			return err
		}
		account, err := s.GetAccount(ctx, m.AccountID)
		if err != nil {
			return err
		}

		account.CurrentBalance = account.CurrentBalance.Sub(m.Amount)
		account.UpdatedAt = e.clock.Now()
		if err := s.SaveAccount(ctx, &account); err != nil {
			return err
		}
		return s.DeleteMovement(ctx, m.ID)
	})
}

// UpdateDescription changes a movement's description. Amount, timestamp and
// resulting balance are immutable after creation. Fails with NotFound when
// the movement does not exist.
func (e *Engine) UpdateDescription(ctx context.Context, movementID domain.MovementID, description string) (domain.Movement, error) {
	if _, err := e.store.GetMovement(ctx, movementID); err != nil {
		return domain.Movement{}, err
	}
	if err := e.store.UpdateMovementDescription(ctx, movementID, description); err != nil {
		return domain.Movement{}, err
	}
	return e.store.GetMovement(ctx, movementID)
}
