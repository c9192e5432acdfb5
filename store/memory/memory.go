// Package memory provides an in-memory Store implementation for tests and
// development. It mirrors the sqlite store's semantics, including the
// insert-or-update Save convention and WithTx rollback.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian/banking-ledger/domain"
)

// Store keeps all records in maps guarded by one RWMutex. WithTx snapshots
// the maps and restores them when the callback fails, which gives the same
// all-or-nothing behavior as a database transaction.
type Store struct {
	mu sync.RWMutex

	clients   map[domain.ClientID]domain.Client
	accounts  map[domain.AccountID]domain.Account
	movements map[domain.MovementID]domain.Movement

	nextClientID   domain.ClientID
	nextAccountID  domain.AccountID
	nextMovementID domain.MovementID
}

func New() *Store {
	return &Store{
		clients:        make(map[domain.ClientID]domain.Client),
		accounts:       make(map[domain.AccountID]domain.Account),
		movements:      make(map[domain.MovementID]domain.Movement),
		nextClientID:   1,
		nextAccountID:  1,
		nextMovementID: 1,
	}
}

var _ domain.TxStore = (*Store)(nil)

// =============================================================================
// CLIENT STORE
// =============================================================================

func (s *Store) GetClient(ctx context.Context, id domain.ClientID) (domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getClientLocked(id)
}

func (s *Store) getClientLocked(id domain.ClientID) (domain.Client, error) {
	c, ok := s.clients[id]
	if !ok {
		return domain.Client{}, &domain.NotFoundError{Kind: "client", Key: id}
	}
	return c, nil
}

func (s *Store) GetClientByCode(ctx context.Context, code string) (domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.clients {
		if c.Code == code {
			return c, nil
		}
	}
	return domain.Client{}, &domain.NotFoundError{Kind: "client", Key: code}
}

func (s *Store) GetClientByIdentification(ctx context.Context, identification string) (domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.clients {
		if c.Identification != "" && c.Identification == identification {
			return c, nil
		}
	}
	return domain.Client{}, &domain.NotFoundError{Kind: "client", Key: identification}
}

func (s *Store) SaveClient(ctx context.Context, c *domain.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveClientLocked(c)
}

func (s *Store) saveClientLocked(c *domain.Client) error {
	for _, other := range s.clients {
		if other.ID == c.ID {
			continue
		}
		if other.Code == c.Code {
			return &domain.DuplicateKeyError{Field: "code", Value: c.Code}
		}
		if c.Identification != "" && other.Identification == c.Identification {
			return &domain.DuplicateKeyError{Field: "identification", Value: c.Identification}
		}
	}

	if c.ID == 0 {
		c.ID = s.nextClientID
		s.nextClientID++
	} else if _, ok := s.clients[c.ID]; !ok {
		return &domain.NotFoundError{Kind: "client", Key: c.ID}
	}
	s.clients[c.ID] = *c
	return nil
}

func (s *Store) ListClients(ctx context.Context) ([]domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listClientsLocked(func(domain.Client) bool { return true }), nil
}

func (s *Store) ListClientsByStatus(ctx context.Context, status domain.Status) ([]domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listClientsLocked(func(c domain.Client) bool { return c.Status == status }), nil
}

func (s *Store) SearchClients(ctx context.Context, query string) ([]domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	return s.listClientsLocked(func(c domain.Client) bool {
		return strings.Contains(strings.ToLower(c.Name), q) ||
			strings.Contains(strings.ToLower(c.Code), q) ||
			strings.Contains(strings.ToLower(c.Identification), q)
	}), nil
}

func (s *Store) listClientsLocked(keep func(domain.Client) bool) []domain.Client {
	var out []domain.Client
	for _, c := range s.clients {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) ClientCodeExists(ctx context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.clients {
		if c.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) IdentificationExists(ctx context.Context, identification string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.clients {
		if c.Identification != "" && c.Identification == identification {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CountClientsByStatus(ctx context.Context, status domain.Status) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, c := range s.clients {
		if c.Status == status {
			n++
		}
	}
	return n, nil
}

// =============================================================================
// ACCOUNT STORE
// =============================================================================

func (s *Store) GetAccount(ctx context.Context, id domain.AccountID) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getAccountLocked(id)
}

func (s *Store) getAccountLocked(id domain.AccountID) (domain.Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return domain.Account{}, &domain.NotFoundError{Kind: "account", Key: id}
	}
	return a, nil
}

func (s *Store) GetAccountByNumber(ctx context.Context, number string) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.accounts {
		if a.Number == number {
			return a, nil
		}
	}
	return domain.Account{}, &domain.NotFoundError{Kind: "account", Key: number}
}

func (s *Store) SaveAccount(ctx context.Context, a *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveAccountLocked(a)
}

func (s *Store) saveAccountLocked(a *domain.Account) error {
	for _, other := range s.accounts {
		if other.ID != a.ID && other.Number == a.Number {
			return &domain.DuplicateKeyError{Field: "number", Value: a.Number}
		}
	}

	if a.ID == 0 {
		a.ID = s.nextAccountID
		s.nextAccountID++
	} else if _, ok := s.accounts[a.ID]; !ok {
		return &domain.NotFoundError{Kind: "account", Key: a.ID}
	}
	s.accounts[a.ID] = *a
	return nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listAccountsLocked(func(domain.Account) bool { return true }), nil
}

func (s *Store) ListAccountsByStatus(ctx context.Context, status domain.Status) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listAccountsLocked(func(a domain.Account) bool { return a.Status == status }), nil
}

func (s *Store) ListAccountsByClient(ctx context.Context, clientID domain.ClientID) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listAccountsLocked(func(a domain.Account) bool { return a.ClientID == clientID }), nil
}

func (s *Store) ListAccountsByClientAndStatus(ctx context.Context, clientID domain.ClientID, status domain.Status) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listAccountsLocked(func(a domain.Account) bool {
		return a.ClientID == clientID && a.Status == status
	}), nil
}

func (s *Store) ListAccountsByType(ctx context.Context, accountType domain.AccountType) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listAccountsLocked(func(a domain.Account) bool { return a.Type == accountType }), nil
}

func (s *Store) ListAccountsWithMinBalance(ctx context.Context, minimum decimal.Decimal) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listAccountsLocked(func(a domain.Account) bool {
		return a.CurrentBalance.GreaterThan(minimum)
	}), nil
}

func (s *Store) SearchAccounts(ctx context.Context, query string) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	return s.listAccountsLocked(func(a domain.Account) bool {
		return strings.Contains(strings.ToLower(a.Number), q) ||
			strings.Contains(strings.ToLower(string(a.Type)), q)
	}), nil
}

func (s *Store) listAccountsLocked(keep func(domain.Account) bool) []domain.Account {
	var out []domain.Account
	for _, a := range s.accounts {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) AccountNumberExists(ctx context.Context, number string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.accounts {
		if a.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CountAccountsByClient(ctx context.Context, clientID domain.ClientID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, a := range s.accounts {
		if a.ClientID == clientID {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountAccountsByStatus(ctx context.Context, status domain.Status) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, a := range s.accounts {
		if a.Status == status {
			n++
		}
	}
	return n, nil
}

// =============================================================================
// MOVEMENT STORE
// =============================================================================

func (s *Store) GetMovement(ctx context.Context, id domain.MovementID) (domain.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getMovementLocked(id)
}

func (s *Store) getMovementLocked(id domain.MovementID) (domain.Movement, error) {
	m, ok := s.movements[id]
	if !ok {
		return domain.Movement{}, &domain.NotFoundError{Kind: "movement", Key: id}
	}
	return m, nil
}

func (s *Store) InsertMovement(ctx context.Context, m *domain.Movement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertMovementLocked(m)
}

func (s *Store) insertMovementLocked(m *domain.Movement) error {
	m.ID = s.nextMovementID
	s.nextMovementID++
	s.movements[m.ID] = *m
	return nil
}

func (s *Store) UpdateMovementDescription(ctx context.Context, id domain.MovementID, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateMovementDescriptionLocked(id, description)
}

func (s *Store) updateMovementDescriptionLocked(id domain.MovementID, description string) error {
	m, ok := s.movements[id]
	if !ok {
		return &domain.NotFoundError{Kind: "movement", Key: id}
	}
	m.Description = description
	s.movements[id] = m
	return nil
}

func (s *Store) DeleteMovement(ctx context.Context, id domain.MovementID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteMovementLocked(id)
}

func (s *Store) deleteMovementLocked(id domain.MovementID) error {
	if _, ok := s.movements[id]; !ok {
		return &domain.NotFoundError{Kind: "movement", Key: id}
	}
	delete(s.movements, id)
	return nil
}

func (s *Store) ListMovements(ctx context.Context) ([]domain.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listMovementsLocked(func(domain.Movement) bool { return true }, oldestFirst), nil
}

func (s *Store) ListMovementsByAccount(ctx context.Context, accountID domain.AccountID) ([]domain.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listMovementsLocked(func(m domain.Movement) bool {
		return m.AccountID == accountID
	}, oldestFirst), nil
}

func (s *Store) ListMovementsInRange(ctx context.Context, from, to time.Time) ([]domain.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listMovementsLocked(func(m domain.Movement) bool {
		return inRange(m.OccurredAt, from, to)
	}, oldestFirst), nil
}

func (s *Store) ListMovementsByAccountInRange(ctx context.Context, accountID domain.AccountID, from, to time.Time) ([]domain.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listMovementsLocked(func(m domain.Movement) bool {
		return m.AccountID == accountID && inRange(m.OccurredAt, from, to)
	}, oldestFirst), nil
}

func (s *Store) ListMovementsByType(ctx context.Context, typeLabel string) ([]domain.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listMovementsLocked(func(m domain.Movement) bool {
		return m.Type == typeLabel
	}, oldestFirst), nil
}

func (s *Store) ListDebitsByAccount(ctx context.Context, accountID domain.AccountID) ([]domain.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listMovementsLocked(func(m domain.Movement) bool {
		return m.AccountID == accountID && m.IsDebit()
	}, newestFirst), nil
}

func (s *Store) ListCreditsByAccount(ctx context.Context, accountID domain.AccountID) ([]domain.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listMovementsLocked(func(m domain.Movement) bool {
		return m.AccountID == accountID && m.IsCredit()
	}, newestFirst), nil
}

func (s *Store) LastMovementByAccount(ctx context.Context, accountID domain.AccountID) (domain.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	movements := s.listMovementsLocked(func(m domain.Movement) bool {
		return m.AccountID == accountID
	}, newestFirst)
	if len(movements) == 0 {
		return domain.Movement{}, &domain.NotFoundError{Kind: "movement", Key: accountID}
	}
	return movements[0], nil
}

func (s *Store) SearchMovements(ctx context.Context, query string) ([]domain.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	return s.listMovementsLocked(func(m domain.Movement) bool {
		return strings.Contains(strings.ToLower(m.Description), q) ||
			strings.Contains(strings.ToLower(m.Type), q)
	}, oldestFirst), nil
}

func (s *Store) CountMovementsByAccount(ctx context.Context, accountID domain.AccountID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, m := range s.movements {
		if m.AccountID == accountID {
			n++
		}
	}
	return n, nil
}

type movementOrder int

const (
	oldestFirst movementOrder = iota
	newestFirst
)

func (s *Store) listMovementsLocked(keep func(domain.Movement) bool, order movementOrder) []domain.Movement {
	var out []domain.Movement
	for _, m := range s.movements {
		if keep(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.OccurredAt.Equal(b.OccurredAt) {
			if order == newestFirst {
				return a.OccurredAt.After(b.OccurredAt)
			}
			return a.OccurredAt.Before(b.OccurredAt)
		}
		if order == newestFirst {
			return a.ID > b.ID
		}
		return a.ID < b.ID
	})
	return out
}

func inRange(at, from, to time.Time) bool {
	return !at.Before(from) && !at.After(to)
}

// =============================================================================
// TRANSACTIONS - Snapshot and restore
// =============================================================================

// WithTx executes fn against a view of the store. On error the pre-call
// snapshot is restored, so partial writes never survive.
func (s *Store) WithTx(ctx context.Context, fn func(domain.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(&txView{parent: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type storeSnapshot struct {
	clients        map[domain.ClientID]domain.Client
	accounts       map[domain.AccountID]domain.Account
	movements      map[domain.MovementID]domain.Movement
	nextClientID   domain.ClientID
	nextAccountID  domain.AccountID
	nextMovementID domain.MovementID
}

func (s *Store) snapshot() storeSnapshot {
	snap := storeSnapshot{
		clients:        make(map[domain.ClientID]domain.Client, len(s.clients)),
		accounts:       make(map[domain.AccountID]domain.Account, len(s.accounts)),
		movements:      make(map[domain.MovementID]domain.Movement, len(s.movements)),
		nextClientID:   s.nextClientID,
		nextAccountID:  s.nextAccountID,
		nextMovementID: s.nextMovementID,
	}
	for k, v := range s.clients {
		snap.clients[k] = v
	}
	for k, v := range s.accounts {
		snap.accounts[k] = v
	}
	for k, v := range s.movements {
		snap.movements[k] = v
	}
	return snap
}

func (s *Store) restore(snap storeSnapshot) {
	s.clients = snap.clients
	s.accounts = snap.accounts
	s.movements = snap.movements
	s.nextClientID = snap.nextClientID
	s.nextAccountID = snap.nextAccountID
	s.nextMovementID = snap.nextMovementID
}

// txView calls the unlocked internals; the parent's mutex is already held
// for the duration of WithTx.
type txView struct {
	parent *Store
}

var _ domain.Store = (*txView)(nil)

func (v *txView) GetClient(ctx context.Context, id domain.ClientID) (domain.Client, error) {
	return v.parent.getClientLocked(id)
}

func (v *txView) GetClientByCode(ctx context.Context, code string) (domain.Client, error) {
	for _, c := range v.parent.clients {
		if c.Code == code {
			return c, nil
		}
	}
	return domain.Client{}, &domain.NotFoundError{Kind: "client", Key: code}
}

func (v *txView) GetClientByIdentification(ctx context.Context, identification string) (domain.Client, error) {
	for _, c := range v.parent.clients {
		if c.Identification != "" && c.Identification == identification {
			return c, nil
		}
	}
	return domain.Client{}, &domain.NotFoundError{Kind: "client", Key: identification}
}

func (v *txView) SaveClient(ctx context.Context, c *domain.Client) error {
	return v.parent.saveClientLocked(c)
}

func (v *txView) ListClients(ctx context.Context) ([]domain.Client, error) {
	return v.parent.listClientsLocked(func(domain.Client) bool { return true }), nil
}

func (v *txView) ListClientsByStatus(ctx context.Context, status domain.Status) ([]domain.Client, error) {
	return v.parent.listClientsLocked(func(c domain.Client) bool { return c.Status == status }), nil
}

func (v *txView) SearchClients(ctx context.Context, query string) ([]domain.Client, error) {
	q := strings.ToLower(query)
	return v.parent.listClientsLocked(func(c domain.Client) bool {
		return strings.Contains(strings.ToLower(c.Name), q) ||
			strings.Contains(strings.ToLower(c.Code), q) ||
			strings.Contains(strings.ToLower(c.Identification), q)
	}), nil
}

func (v *txView) ClientCodeExists(ctx context.Context, code string) (bool, error) {
	for _, c := range v.parent.clients {
		if c.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (v *txView) IdentificationExists(ctx context.Context, identification string) (bool, error) {
	for _, c := range v.parent.clients {
		if c.Identification != "" && c.Identification == identification {
			return true, nil
		}
	}
	return false, nil
}

func (v *txView) CountClientsByStatus(ctx context.Context, status domain.Status) (int64, error) {
	var n int64
	for _, c := range v.parent.clients {
		if c.Status == status {
			n++
		}
	}
	return n, nil
}

func (v *txView) GetAccount(ctx context.Context, id domain.AccountID) (domain.Account, error) {
	return v.parent.getAccountLocked(id)
}

func (v *txView) GetAccountByNumber(ctx context.Context, number string) (domain.Account, error) {
	for _, a := range v.parent.accounts {
		if a.Number == number {
			return a, nil
		}
	}
	return domain.Account{}, &domain.NotFoundError{Kind: "account", Key: number}
}

func (v *txView) SaveAccount(ctx context.Context, a *domain.Account) error {
	return v.parent.saveAccountLocked(a)
}

func (v *txView) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	return v.parent.listAccountsLocked(func(domain.Account) bool { return true }), nil
}

func (v *txView) ListAccountsByStatus(ctx context.Context, status domain.Status) ([]domain.Account, error) {
	return v.parent.listAccountsLocked(func(a domain.Account) bool { return a.Status == status }), nil
}

func (v *txView) ListAccountsByClient(ctx context.Context, clientID domain.ClientID) ([]domain.Account, error) {
	return v.parent.listAccountsLocked(func(a domain.Account) bool { return a.ClientID == clientID }), nil
}

func (v *txView) ListAccountsByClientAndStatus(ctx context.Context, clientID domain.ClientID, status domain.Status) ([]domain.Account, error) {
	return v.parent.listAccountsLocked(func(a domain.Account) bool {
		return a.ClientID == clientID && a.Status == status
	}), nil
}

func (v *txView) ListAccountsByType(ctx context.Context, accountType domain.AccountType) ([]domain.Account, error) {
	return v.parent.listAccountsLocked(func(a domain.Account) bool { return a.Type == accountType }), nil
}

func (v *txView) ListAccountsWithMinBalance(ctx context.Context, minimum decimal.Decimal) ([]domain.Account, error) {
	return v.parent.listAccountsLocked(func(a domain.Account) bool {
		return a.CurrentBalance.GreaterThan(minimum)
	}), nil
}

func (v *txView) SearchAccounts(ctx context.Context, query string) ([]domain.Account, error) {
	q := strings.ToLower(query)
	return v.parent.listAccountsLocked(func(a domain.Account) bool {
		return strings.Contains(strings.ToLower(a.Number), q) ||
			strings.Contains(strings.ToLower(string(a.Type)), q)
	}), nil
}

func (v *txView) AccountNumberExists(ctx context.Context, number string) (bool, error) {
	for _, a := range v.parent.accounts {
		if a.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (v *txView) CountAccountsByClient(ctx context.Context, clientID domain.ClientID) (int64, error) {
	var n int64
	for _, a := range v.parent.accounts {
		if a.ClientID == clientID {
			n++
		}
	}
	return n, nil
}

func (v *txView) CountAccountsByStatus(ctx context.Context, status domain.Status) (int64, error) {
	var n int64
	for _, a := range v.parent.accounts {
		if a.Status == status {
			n++
		}
	}
	return n, nil
}

func (v *txView) GetMovement(ctx context.Context, id domain.MovementID) (domain.Movement, error) {
	return v.parent.getMovementLocked(id)
}

func (v *txView) InsertMovement(ctx context.Context, m *domain.Movement) error {
	return v.parent.insertMovementLocked(m)
}

func (v *txView) UpdateMovementDescription(ctx context.Context, id domain.MovementID, description string) error {
	return v.parent.updateMovementDescriptionLocked(id, description)
}

func (v *txView) DeleteMovement(ctx context.Context, id domain.MovementID) error {
	return v.parent.deleteMovementLocked(id)
}

func (v *txView) ListMovements(ctx context.Context) ([]domain.Movement, error) {
	return v.parent.listMovementsLocked(func(domain.Movement) bool { return true }, oldestFirst), nil
}

func (v *txView) ListMovementsByAccount(ctx context.Context, accountID domain.AccountID) ([]domain.Movement, error) {
	return v.parent.listMovementsLocked(func(m domain.Movement) bool {
		return m.AccountID == accountID
	}, oldestFirst), nil
}

func (v *txView) ListMovementsInRange(ctx context.Context, from, to time.Time) ([]domain.Movement, error) {
	return v.parent.listMovementsLocked(func(m domain.Movement) bool {
		return inRange(m.OccurredAt, from, to)
	}, oldestFirst), nil
}

func (v *txView) ListMovementsByAccountInRange(ctx context.Context, accountID domain.AccountID, from, to time.Time) ([]domain.Movement, error) {
	return v.parent.listMovementsLocked(func(m domain.Movement) bool {
		return m.AccountID == accountID && inRange(m.OccurredAt, from, to)
	}, oldestFirst), nil
}

func (v *txView) ListMovementsByType(ctx context.Context, typeLabel string) ([]domain.Movement, error) {
	return v.parent.listMovementsLocked(func(m domain.Movement) bool {
		return m.Type == typeLabel
	}, oldestFirst), nil
}

func (v *txView) ListDebitsByAccount(ctx context.Context, accountID domain.AccountID) ([]domain.Movement, error) {
	return v.parent.listMovementsLocked(func(m domain.Movement) bool {
		return m.AccountID == accountID && m.IsDebit()
	}, newestFirst), nil
}

func (v *txView) ListCreditsByAccount(ctx context.Context, accountID domain.AccountID) ([]domain.Movement, error) {
	return v.parent.listMovementsLocked(func(m domain.Movement) bool {
		return m.AccountID == accountID && m.IsCredit()
	}, newestFirst), nil
}

func (v *txView) LastMovementByAccount(ctx context.Context, accountID domain.AccountID) (domain.Movement, error) {
	movements := v.parent.listMovementsLocked(func(m domain.Movement) bool {
		return m.AccountID == accountID
	}, newestFirst)
	if len(movements) == 0 {
		return domain.Movement{}, &domain.NotFoundError{Kind: "movement", Key: accountID}
	}
	return movements[0], nil
}

func (v *txView) SearchMovements(ctx context.Context, query string) ([]domain.Movement, error) {
	q := strings.ToLower(query)
	return v.parent.listMovementsLocked(func(m domain.Movement) bool {
		return strings.Contains(strings.ToLower(m.Description), q) ||
			strings.Contains(strings.ToLower(m.Type), q)
	}, oldestFirst), nil
}

func (v *txView) CountMovementsByAccount(ctx context.Context, accountID domain.AccountID) (int64, error) {
	var n int64
	for _, m := range v.parent.movements {
		if m.AccountID == accountID {
			n++
		}
	}
	return n, nil
}
