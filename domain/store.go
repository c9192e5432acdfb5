/*
store.go - Persistence contracts for clients, accounts and movements

PURPOSE:
  Defines the interface between the domain logic and the database. This is
  the sole place where data crosses a durability boundary. Different
  implementations back it with SQLite or in-memory maps.

KEY INTERFACES:
  ClientStore:   Client records plus uniqueness probes (code, identification)
  AccountStore:  Account records plus number uniqueness and predicate lookups
  MovementStore: Movement records plus date/type/sign/text lookups
  Store:         The union the registries and the Movement Engine consume
  TxStore:       Store plus an atomic multi-write transaction scope

WRITE CONVENTIONS:
  Save* performs insert-or-update: a zero ID inserts and assigns the new ID
  on the passed pointer; a non-zero ID updates in place. InsertMovement and
  DeleteMovement are separate because movements are created and physically
  removed only through the Movement Engine, never updated wholesale.

ATOMICITY:
  WithTx executes fn against a transactional view of the store. The pair
  (insert movement, update account balance) in apply, and (update balance,
  delete movement) in reverse, MUST run inside one WithTx scope: both writes
  commit together or not at all.

NOT FOUND:
  Get* and Last* return an error unwrapping to ErrNotFound when the record does
  not exist. They never return a zero value with a nil error.

IMPLEMENTATIONS:
  - store/sqlite: production path (mattn/go-sqlite3, WAL)
  - store/memory: tests and dev
*/
package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CLIENT STORE
// =============================================================================

type ClientStore interface {
	GetClient(ctx context.Context, id ClientID) (Client, error)
	GetClientByCode(ctx context.Context, code string) (Client, error)
	GetClientByIdentification(ctx context.Context, identification string) (Client, error)

	// SaveClient inserts when c.ID is zero (assigning the new ID on c) and
	// updates otherwise. Unique collisions surface as DuplicateKeyError.
	SaveClient(ctx context.Context, c *Client) error

	ListClients(ctx context.Context) ([]Client, error)
	ListClientsByStatus(ctx context.Context, status Status) ([]Client, error)

	// SearchClients matches the query case-insensitively against name,
	// code and identification.
	SearchClients(ctx context.Context, query string) ([]Client, error)

	ClientCodeExists(ctx context.Context, code string) (bool, error)
	IdentificationExists(ctx context.Context, identification string) (bool, error)
	CountClientsByStatus(ctx context.Context, status Status) (int64, error)
}

// =============================================================================
// ACCOUNT STORE
// =============================================================================

type AccountStore interface {
	GetAccount(ctx context.Context, id AccountID) (Account, error)
	GetAccountByNumber(ctx context.Context, number string) (Account, error)

	// SaveAccount follows the same insert-or-update convention as SaveClient.
	SaveAccount(ctx context.Context, a *Account) error

	ListAccounts(ctx context.Context) ([]Account, error)
	ListAccountsByStatus(ctx context.Context, status Status) ([]Account, error)
	ListAccountsByClient(ctx context.Context, clientID ClientID) ([]Account, error)
	ListAccountsByClientAndStatus(ctx context.Context, clientID ClientID, status Status) ([]Account, error)
	ListAccountsByType(ctx context.Context, accountType AccountType) ([]Account, error)
	ListAccountsWithMinBalance(ctx context.Context, minimum decimal.Decimal) ([]Account, error)

	// SearchAccounts matches the query case-insensitively against number
	// and type.
	SearchAccounts(ctx context.Context, query string) ([]Account, error)

	AccountNumberExists(ctx context.Context, number string) (bool, error)
	CountAccountsByClient(ctx context.Context, clientID ClientID) (int64, error)
	CountAccountsByStatus(ctx context.Context, status Status) (int64, error)
}

// =============================================================================
// MOVEMENT STORE
// =============================================================================

type MovementStore interface {
	GetMovement(ctx context.Context, id MovementID) (Movement, error)

	// InsertMovement persists a new movement, assigning the new ID on m.
	InsertMovement(ctx context.Context, m *Movement) error

	// UpdateMovementDescription changes the description only. Amount,
	// timestamps and resulting balance are immutable after creation.
	UpdateMovementDescription(ctx context.Context, id MovementID, description string) error

	// DeleteMovement physically removes the record. Only the Movement
	// Engine calls this, inside the same transaction that reverses the
	// balance effect.
	DeleteMovement(ctx context.Context, id MovementID) error

	ListMovements(ctx context.Context) ([]Movement, error)
	ListMovementsByAccount(ctx context.Context, accountID AccountID) ([]Movement, error)
	ListMovementsInRange(ctx context.Context, from, to time.Time) ([]Movement, error)
	ListMovementsByAccountInRange(ctx context.Context, accountID AccountID, from, to time.Time) ([]Movement, error)
	ListMovementsByType(ctx context.Context, typeLabel string) ([]Movement, error)

	// ListDebitsByAccount returns movements with amount < 0, newest first.
	ListDebitsByAccount(ctx context.Context, accountID AccountID) ([]Movement, error)
	// ListCreditsByAccount returns movements with amount > 0, newest first.
	ListCreditsByAccount(ctx context.Context, accountID AccountID) ([]Movement, error)

	// LastMovementByAccount returns the most recent movement, or an error
	// unwrapping to ErrNotFound when the account has none.
	LastMovementByAccount(ctx context.Context, accountID AccountID) (Movement, error)

	// SearchMovements matches the query case-insensitively against
	// description and type label.
	SearchMovements(ctx context.Context, query string) ([]Movement, error)

	CountMovementsByAccount(ctx context.Context, accountID AccountID) (int64, error)
}

// =============================================================================
// AGGREGATE AND TRANSACTIONAL STORE
// =============================================================================

// Store is the full persistence surface the registries and the Movement
// Engine depend on.
type Store interface {
	ClientStore
	AccountStore
	MovementStore
}

// TxStore adds an atomic multi-write scope spanning account and movement
// writes.
type TxStore interface {
	Store

	// WithTx executes fn against a transactional view. If fn returns an
	// error the transaction rolls back and nothing fn wrote survives.
	WithTx(ctx context.Context, fn func(Store) error) error
}
