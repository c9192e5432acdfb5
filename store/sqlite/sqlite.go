/*
Package sqlite provides the SQLite-backed implementation of the ledger
store contracts.

PURPOSE:
  Implements domain.Store and domain.TxStore on database/sql with the
  mattn/go-sqlite3 driver. In production the same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  clients:   client records, person fields flattened into the row
  accounts:  account records, number unique, client_id foreign key
  movements: movement records, account_id foreign key

UNIQUENESS:
  Unique indexes back the store-level uniqueness probes. A constraint
  violation on write surfaces as a DuplicateKeyError naming the field, so
  racing writers that slip past an exists-check still fail cleanly:
  - idx_clients_code:            client code
  - idx_clients_identification:  identification, only when non-empty
  - idx_accounts_number:         account number

DECIMALS:
  Monetary amounts are stored as their canonical decimal string and parsed
  back on scan, never as floats. Sign and threshold filters in SQL cast to
  REAL, which is safe for classification; arithmetic stays in Go.

WAL MODE:
  The database is opened with WAL and foreign keys on. Readers don't block
  and a single writer commits at a time.

CONCURRENCY:
  A store-level mutex serializes write transactions, matching SQLite's
  single-writer model. Per-account serialization of balance writes belongs
  to the Movement Engine, not this layer.

USAGE:
  store, err := sqlite.New("./data/bank.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - domain/store.go: Interface definitions
  - store/memory: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/meridian/banking-ledger/domain"
)

// Store implements domain.TxStore using SQLite.
type Store struct {
	session

	db *sql.DB
	mu sync.Mutex
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{session: session{db: db}, db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS clients (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		gender TEXT NOT NULL DEFAULT '',
		age INTEGER NOT NULL DEFAULT 0,
		identification TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		code TEXT NOT NULL,
		password TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_clients_code ON clients(code);

	-- Identification is optional; uniqueness applies only when present.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_clients_identification
		ON clients(identification) WHERE identification <> '';

	CREATE INDEX IF NOT EXISTS idx_clients_status ON clients(status);

	CREATE TABLE IF NOT EXISTS accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		client_id INTEGER NOT NULL REFERENCES clients(id),
		number TEXT NOT NULL,
		type TEXT NOT NULL,
		initial_balance TEXT NOT NULL,
		current_balance TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_number ON accounts(number);
	CREATE INDEX IF NOT EXISTS idx_accounts_client ON accounts(client_id);
	CREATE INDEX IF NOT EXISTS idx_accounts_status ON accounts(status);
	CREATE INDEX IF NOT EXISTS idx_accounts_type ON accounts(type);

	CREATE TABLE IF NOT EXISTS movements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL REFERENCES accounts(id),
		occurred_at TEXT NOT NULL,
		type TEXT NOT NULL,
		amount TEXT NOT NULL,
		resulting_balance TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_movements_account ON movements(account_id);
	CREATE INDEX IF NOT EXISTS idx_movements_occurred_at ON movements(occurred_at);
	CREATE INDEX IF NOT EXISTS idx_movements_account_date
		ON movements(account_id, occurred_at DESC);
	CREATE INDEX IF NOT EXISTS idx_movements_type ON movements(type);
	`

	_, err := s.db.Exec(schema)
	return err
}

// WithTx executes fn within a database transaction. The store-level mutex
// serializes write transactions against SQLite's single writer.
func (s *Store) WithTx(ctx context.Context, fn func(domain.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&session{db: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// =============================================================================
// SESSION - All queries, shared between the root store and transactions
// =============================================================================

// dbtx is the subset of *sql.DB and *sql.Tx the session needs.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type session struct {
	db dbtx
}

var _ domain.Store = (*session)(nil)

// -----------------------------------------------------------------------------
// Clients
// -----------------------------------------------------------------------------

const clientColumns = `id, name, gender, age, identification, address, phone,
	code, password, status, created_at, updated_at`

func (s *session) GetClient(ctx context.Context, id domain.ClientID) (domain.Client, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	return scanClientRow(row, id)
}

func (s *session) GetClientByCode(ctx context.Context, code string) (domain.Client, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE code = ?`, code)
	return scanClientRow(row, code)
}

func (s *session) GetClientByIdentification(ctx context.Context, identification string) (domain.Client, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE identification = ? AND identification <> ''`,
		identification)
	return scanClientRow(row, identification)
}

func (s *session) SaveClient(ctx context.Context, c *domain.Client) error {
	if c.ID == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO clients
			(name, gender, age, identification, address, phone, code, password, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.Name, c.Gender, c.Age, c.Identification, c.Address, c.Phone,
			c.Code, c.Password, c.Status,
			formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
		)
		if err != nil {
			return mapClientConstraint(err, c)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read inserted client id: %w", err)
		}
		c.ID = domain.ClientID(id)
		return nil
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE clients SET
			name = ?, gender = ?, age = ?, identification = ?, address = ?, phone = ?,
			code = ?, password = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		c.Name, c.Gender, c.Age, c.Identification, c.Address, c.Phone,
		c.Code, c.Password, c.Status, formatTime(c.UpdatedAt), c.ID,
	)
	if err != nil {
		return mapClientConstraint(err, c)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &domain.NotFoundError{Kind: "client", Key: c.ID}
	}
	return nil
}

func (s *session) ListClients(ctx context.Context) ([]domain.Client, error) {
	return s.queryClients(ctx,
		`SELECT `+clientColumns+` FROM clients ORDER BY id`)
}

func (s *session) ListClientsByStatus(ctx context.Context, status domain.Status) ([]domain.Client, error) {
	return s.queryClients(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE status = ? ORDER BY id`, status)
}

func (s *session) SearchClients(ctx context.Context, query string) ([]domain.Client, error) {
	like := "%" + strings.ToLower(query) + "%"
	return s.queryClients(ctx, `
		SELECT `+clientColumns+` FROM clients
		WHERE LOWER(name) LIKE ? OR LOWER(code) LIKE ? OR LOWER(identification) LIKE ?
		ORDER BY id`,
		like, like, like)
}

func (s *session) ClientCodeExists(ctx context.Context, code string) (bool, error) {
	return s.exists(ctx, `SELECT COUNT(*) FROM clients WHERE code = ?`, code)
}

func (s *session) IdentificationExists(ctx context.Context, identification string) (bool, error) {
	return s.exists(ctx,
		`SELECT COUNT(*) FROM clients WHERE identification = ? AND identification <> ''`,
		identification)
}

func (s *session) CountClientsByStatus(ctx context.Context, status domain.Status) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM clients WHERE status = ?`, status)
}

func (s *session) queryClients(ctx context.Context, query string, args ...any) ([]domain.Client, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// rowScanner lets the scan helpers work for both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(r rowScanner) (domain.Client, error) {
	var (
		c         domain.Client
		status    string
		createdAt string
		updatedAt string
	)
	err := r.Scan(
		&c.ID, &c.Name, &c.Gender, &c.Age, &c.Identification, &c.Address, &c.Phone,
		&c.Code, &c.Password, &status, &createdAt, &updatedAt,
	)
	if err != nil {
		return c, err
	}
	c.Status = domain.Status(status)
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return c, nil
}

func scanClientRow(row *sql.Row, key any) (domain.Client, error) {
	c, err := scanClient(row)
	if err == sql.ErrNoRows {
		return domain.Client{}, &domain.NotFoundError{Kind: "client", Key: key}
	}
	if err != nil {
		return domain.Client{}, fmt.Errorf("failed to scan client: %w", err)
	}
	return c, nil
}

// -----------------------------------------------------------------------------
// Accounts
// -----------------------------------------------------------------------------

const accountColumns = `id, client_id, number, type, initial_balance,
	current_balance, status, created_at, updated_at`

func (s *session) GetAccount(ctx context.Context, id domain.AccountID) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccountRow(row, id)
}

func (s *session) GetAccountByNumber(ctx context.Context, number string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE number = ?`, number)
	return scanAccountRow(row, number)
}

func (s *session) SaveAccount(ctx context.Context, a *domain.Account) error {
	if a.ID == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO accounts
			(client_id, number, type, initial_balance, current_balance, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ClientID, a.Number, a.Type,
			a.InitialBalance.String(), a.CurrentBalance.String(), a.Status,
			formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
		)
		if err != nil {
			return mapAccountConstraint(err, a)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read inserted account id: %w", err)
		}
		a.ID = domain.AccountID(id)
		return nil
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET
			client_id = ?, number = ?, type = ?, initial_balance = ?,
			current_balance = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		a.ClientID, a.Number, a.Type,
		a.InitialBalance.String(), a.CurrentBalance.String(), a.Status,
		formatTime(a.UpdatedAt), a.ID,
	)
	if err != nil {
		return mapAccountConstraint(err, a)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &domain.NotFoundError{Kind: "account", Key: a.ID}
	}
	return nil
}

func (s *session) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	return s.queryAccounts(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY id`)
}

func (s *session) ListAccountsByStatus(ctx context.Context, status domain.Status) ([]domain.Account, error) {
	return s.queryAccounts(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE status = ? ORDER BY id`, status)
}

func (s *session) ListAccountsByClient(ctx context.Context, clientID domain.ClientID) ([]domain.Account, error) {
	return s.queryAccounts(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE client_id = ? ORDER BY id`, clientID)
}

func (s *session) ListAccountsByClientAndStatus(ctx context.Context, clientID domain.ClientID, status domain.Status) ([]domain.Account, error) {
	return s.queryAccounts(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE client_id = ? AND status = ? ORDER BY id`,
		clientID, status)
}

func (s *session) ListAccountsByType(ctx context.Context, accountType domain.AccountType) ([]domain.Account, error) {
	return s.queryAccounts(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE type = ? ORDER BY id`, accountType)
}

func (s *session) ListAccountsWithMinBalance(ctx context.Context, minimum decimal.Decimal) ([]domain.Account, error) {
	return s.queryAccounts(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE CAST(current_balance AS REAL) > CAST(? AS REAL)
		ORDER BY id`,
		minimum.String())
}

func (s *session) SearchAccounts(ctx context.Context, query string) ([]domain.Account, error) {
	like := "%" + strings.ToLower(query) + "%"
	return s.queryAccounts(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE LOWER(number) LIKE ? OR LOWER(type) LIKE ?
		ORDER BY id`,
		like, like)
}

func (s *session) AccountNumberExists(ctx context.Context, number string) (bool, error) {
	return s.exists(ctx, `SELECT COUNT(*) FROM accounts WHERE number = ?`, number)
}

func (s *session) CountAccountsByClient(ctx context.Context, clientID domain.ClientID) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM accounts WHERE client_id = ?`, clientID)
}

func (s *session) CountAccountsByStatus(ctx context.Context, status domain.Status) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM accounts WHERE status = ?`, status)
}

func (s *session) queryAccounts(ctx context.Context, query string, args ...any) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func scanAccount(r rowScanner) (domain.Account, error) {
	var (
		a           domain.Account
		accountType string
		status      string
		initial     string
		current     string
		createdAt   string
		updatedAt   string
	)
	err := r.Scan(
		&a.ID, &a.ClientID, &a.Number, &accountType,
		&initial, &current, &status, &createdAt, &updatedAt,
	)
	if err != nil {
		return a, err
	}
	a.Type = domain.AccountType(accountType)
	a.Status = domain.Status(status)
	a.InitialBalance = domain.MustDecimal(initial)
	a.CurrentBalance = domain.MustDecimal(current)
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return a, nil
}

func scanAccountRow(row *sql.Row, key any) (domain.Account, error) {
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return domain.Account{}, &domain.NotFoundError{Kind: "account", Key: key}
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("failed to scan account: %w", err)
	}
	return a, nil
}

// -----------------------------------------------------------------------------
// Movements
// -----------------------------------------------------------------------------

const movementColumns = `id, account_id, occurred_at, type, amount,
	resulting_balance, description, created_at`

func (s *session) GetMovement(ctx context.Context, id domain.MovementID) (domain.Movement, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+movementColumns+` FROM movements WHERE id = ?`, id)
	m, err := scanMovement(row)
	if err == sql.ErrNoRows {
		return domain.Movement{}, &domain.NotFoundError{Kind: "movement", Key: id}
	}
	if err != nil {
		return domain.Movement{}, fmt.Errorf("failed to scan movement: %w", err)
	}
	return m, nil
}

func (s *session) InsertMovement(ctx context.Context, m *domain.Movement) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO movements
		(account_id, occurred_at, type, amount, resulting_balance, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.AccountID, formatTime(m.OccurredAt), m.Type,
		m.Amount.String(), m.ResultingBalance.String(), m.Description,
		formatTime(m.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert movement: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted movement id: %w", err)
	}
	m.ID = domain.MovementID(id)
	return nil
}

func (s *session) UpdateMovementDescription(ctx context.Context, id domain.MovementID, description string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE movements SET description = ? WHERE id = ?`, description, id)
	if err != nil {
		return fmt.Errorf("failed to update movement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &domain.NotFoundError{Kind: "movement", Key: id}
	}
	return nil
}

func (s *session) DeleteMovement(ctx context.Context, id domain.MovementID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM movements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete movement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &domain.NotFoundError{Kind: "movement", Key: id}
	}
	return nil
}

func (s *session) ListMovements(ctx context.Context) ([]domain.Movement, error) {
	return s.queryMovements(ctx,
		`SELECT `+movementColumns+` FROM movements ORDER BY occurred_at, id`)
}

func (s *session) ListMovementsByAccount(ctx context.Context, accountID domain.AccountID) ([]domain.Movement, error) {
	return s.queryMovements(ctx, `
		SELECT `+movementColumns+` FROM movements
		WHERE account_id = ? ORDER BY occurred_at, id`,
		accountID)
}

func (s *session) ListMovementsInRange(ctx context.Context, from, to time.Time) ([]domain.Movement, error) {
	return s.queryMovements(ctx, `
		SELECT `+movementColumns+` FROM movements
		WHERE occurred_at >= ? AND occurred_at <= ?
		ORDER BY occurred_at, id`,
		formatTime(from), formatTime(to))
}

func (s *session) ListMovementsByAccountInRange(ctx context.Context, accountID domain.AccountID, from, to time.Time) ([]domain.Movement, error) {
	return s.queryMovements(ctx, `
		SELECT `+movementColumns+` FROM movements
		WHERE account_id = ? AND occurred_at >= ? AND occurred_at <= ?
		ORDER BY occurred_at, id`,
		accountID, formatTime(from), formatTime(to))
}

func (s *session) ListMovementsByType(ctx context.Context, typeLabel string) ([]domain.Movement, error) {
	return s.queryMovements(ctx, `
		SELECT `+movementColumns+` FROM movements
		WHERE type = ? ORDER BY occurred_at, id`,
		typeLabel)
}

// Debit/credit classification is by amount sign, not the type label. The
// cast to REAL only decides the sign, so float precision cannot misfile a
// movement.
func (s *session) ListDebitsByAccount(ctx context.Context, accountID domain.AccountID) ([]domain.Movement, error) {
	return s.queryMovements(ctx, `
		SELECT `+movementColumns+` FROM movements
		WHERE account_id = ? AND CAST(amount AS REAL) < 0
		ORDER BY occurred_at DESC, id DESC`,
		accountID)
}

func (s *session) ListCreditsByAccount(ctx context.Context, accountID domain.AccountID) ([]domain.Movement, error) {
	return s.queryMovements(ctx, `
		SELECT `+movementColumns+` FROM movements
		WHERE account_id = ? AND CAST(amount AS REAL) > 0
		ORDER BY occurred_at DESC, id DESC`,
		accountID)
}

func (s *session) LastMovementByAccount(ctx context.Context, accountID domain.AccountID) (domain.Movement, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+movementColumns+` FROM movements
		WHERE account_id = ?
		ORDER BY occurred_at DESC, id DESC
		LIMIT 1`,
		accountID)
	m, err := scanMovement(row)
	if err == sql.ErrNoRows {
		return domain.Movement{}, &domain.NotFoundError{Kind: "movement", Key: accountID}
	}
	if err != nil {
		return domain.Movement{}, fmt.Errorf("failed to scan movement: %w", err)
	}
	return m, nil
}

func (s *session) SearchMovements(ctx context.Context, query string) ([]domain.Movement, error) {
	like := "%" + strings.ToLower(query) + "%"
	return s.queryMovements(ctx, `
		SELECT `+movementColumns+` FROM movements
		WHERE LOWER(description) LIKE ? OR LOWER(type) LIKE ?
		ORDER BY occurred_at, id`,
		like, like)
}

func (s *session) CountMovementsByAccount(ctx context.Context, accountID domain.AccountID) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM movements WHERE account_id = ?`, accountID)
}

func (s *session) queryMovements(ctx context.Context, query string, args ...any) ([]domain.Movement, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query movements: %w", err)
	}
	defer rows.Close()

	var movements []domain.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func scanMovement(r rowScanner) (domain.Movement, error) {
	var (
		m          domain.Movement
		occurredAt string
		createdAt  string
		amount     string
		resulting  string
	)
	err := r.Scan(
		&m.ID, &m.AccountID, &occurredAt, &m.Type,
		&amount, &resulting, &m.Description, &createdAt,
	)
	if err != nil {
		return m, err
	}
	m.OccurredAt = parseTime(occurredAt)
	m.CreatedAt = parseTime(createdAt)
	m.Amount = domain.MustDecimal(amount)
	m.ResultingBalance = domain.MustDecimal(resulting)
	return m, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *session) exists(ctx context.Context, query string, args ...any) (bool, error) {
	n, err := s.count(ctx, query, args...)
	return n > 0, err
}

func (s *session) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// Timestamps are stored as UTC RFC3339 text. Second precision keeps the
// lexicographic ordering of occurred_at consistent with time ordering.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

// mapClientConstraint translates unique-index violations into the domain's
// DuplicateKeyError so racing writers fail with the same error the
// exists-checks produce.
func mapClientConstraint(err error, c *domain.Client) error {
	if !isUniqueConstraintError(err) {
		return fmt.Errorf("failed to save client: %w", err)
	}
	if strings.Contains(err.Error(), "clients.identification") {
		return &domain.DuplicateKeyError{Field: "identification", Value: c.Identification}
	}
	return &domain.DuplicateKeyError{Field: "code", Value: c.Code}
}

func mapAccountConstraint(err error, a *domain.Account) error {
	if !isUniqueConstraintError(err) {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return &domain.DuplicateKeyError{Field: "number", Value: a.Number}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
