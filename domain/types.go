/*
Package domain provides the core types and contracts of the banking ledger.

PURPOSE:
  This package defines the entities the service manages (Client, Account,
  Movement), the status state machine shared by clients and accounts, and
  the persistence contracts the rest of the system depends on. It has no
  knowledge of SQL, HTTP, or any concrete store.

KEY CONCEPTS IN THIS FILE (types.go):
  - Client: A bank customer. Composed of Person identity fields plus the
    banking-specific code, credential and status.
  - Account: A ledger account owned by a client. Carries both the initial
    balance and the current balance the Movement Engine maintains.
  - Movement: A single signed balance change. Positive amount = credit,
    negative amount = debit. The sign is authoritative; the type label is
    informational only.
  - Status: Explicit two-state machine (Active/Inactive) instead of an
    ad hoc boolean flag.

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for every monetary amount.
  2. One-directional references: accounts point at clients by ClientID,
     movements at accounts by AccountID. No cyclic object graphs.
  3. Snapshots: Movement.ResultingBalance is recorded once at creation
     and never recomputed.

SEE ALSO:
  - errors.go: Error taxonomy returned by core operations
  - store.go: Persistence contracts
  - ledger/: The Movement Engine, sole mutator of account balances
*/
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ClientID int64
type AccountID int64
type MovementID int64

// =============================================================================
// STATUS - Two-state machine shared by Client and Account
// =============================================================================

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Active() bool { return s == StatusActive }

// Toggled returns the opposite state.
func (s Status) Toggled() Status {
	if s == StatusActive {
		return StatusInactive
	}
	return StatusActive
}

// StatusFrom maps a stored boolean flag to a Status.
func StatusFrom(active bool) Status {
	if active {
		return StatusActive
	}
	return StatusInactive
}

// =============================================================================
// CLIENT - A bank customer
// =============================================================================

// Person holds the identity fields of a client. Kept as an embedded value
// rather than a separate stored entity: persistence maps client and person
// to one logical record.
type Person struct {
	Name           string
	Gender         string
	Age            int
	Identification string // national ID; unique when set, may be empty
	Address        string
	Phone          string
}

// Client is a bank customer. Accounts reference it by ClientID; the client
// record itself never embeds its accounts.
type Client struct {
	ID ClientID
	Person

	Code     string // client code, unique and required
	Password string // stored credential; hashing/verification is not this service's concern

	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// =============================================================================
// ACCOUNT - A ledger account owned by a client
// =============================================================================

type AccountType string

const (
	AccountSavings  AccountType = "SAVINGS"
	AccountChecking AccountType = "CHECKING"
)

func (t AccountType) Valid() bool {
	return t == AccountSavings || t == AccountChecking
}

// Account pairs a client-facing account number with the two balances the
// ledger tracks: the initial balance set at creation and the current
// balance maintained exclusively by the Movement Engine.
type Account struct {
	ID       AccountID
	ClientID ClientID

	Number         string // unique
	Type           AccountType
	InitialBalance decimal.Decimal
	CurrentBalance decimal.Decimal

	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// =============================================================================
// MOVEMENT - A single signed balance change
// =============================================================================

// Movement is one entry of an account's history. Amount sign classifies it:
// positive is a credit, negative a debit. ResultingBalance is the account
// balance immediately after the movement was applied, recorded once at
// creation time. It is a snapshot, not a live value.
type Movement struct {
	ID        MovementID
	AccountID AccountID

	OccurredAt       time.Time
	Type             string // free-form label (e.g. "DEPOSIT"); informational only
	Amount           decimal.Decimal
	ResultingBalance decimal.Decimal
	Description      string

	CreatedAt time.Time
}

func (m Movement) IsDebit() bool  { return m.Amount.IsNegative() }
func (m Movement) IsCredit() bool { return m.Amount.IsPositive() }

// MustDecimal parses s into a decimal, returning zero on malformed input.
// Intended for literals in tests and seed data.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
