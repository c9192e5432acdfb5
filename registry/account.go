package registry

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/meridian/banking-ledger/domain"
)

// AccountRegistry manages the account lifecycle. It sets the current
// balance exactly once, at creation; every later balance change goes
// through the Movement Engine.
type AccountRegistry struct {
	store domain.Store
	clock domain.Clock
}

func NewAccountRegistry(store domain.Store, clock domain.Clock) *AccountRegistry {
	return &AccountRegistry{store: store, clock: clock}
}

// Create opens an active account for an existing client with
// currentBalance := initialBalance. Fails with NotFound when the client
// does not exist and DuplicateKey when the number is taken. A negative
// initial balance is rejected upstream as a validation error; it is a
// caller precondition here.
func (r *AccountRegistry) Create(ctx context.Context, number string, accountType domain.AccountType, initialBalance decimal.Decimal, clientID domain.ClientID) (domain.Account, error) {
	if _, err := r.store.GetClient(ctx, clientID); err != nil {
		return domain.Account{}, err
	}

	exists, err := r.store.AccountNumberExists(ctx, number)
	if err != nil {
		return domain.Account{}, err
	}
	if exists {
		return domain.Account{}, &domain.DuplicateKeyError{Field: "number", Value: number}
	}

	now := r.clock.Now()
	account := domain.Account{
		ClientID:       clientID,
		Number:         number,
		Type:           accountType,
		InitialBalance: initialBalance,
		CurrentBalance: initialBalance,
		Status:         domain.StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := r.store.SaveAccount(ctx, &account); err != nil {
		return domain.Account{}, err
	}
	return account, nil
}

// Get returns an account by ID.
func (r *AccountRegistry) Get(ctx context.Context, id domain.AccountID) (domain.Account, error) {
	return r.store.GetAccount(ctx, id)
}

// GetByNumber returns an account by its unique number.
func (r *AccountRegistry) GetByNumber(ctx context.Context, number string) (domain.Account, error) {
	return r.store.GetAccountByNumber(ctx, number)
}

// List returns all accounts.
func (r *AccountRegistry) List(ctx context.Context) ([]domain.Account, error) {
	return r.store.ListAccounts(ctx)
}

// ListActive returns accounts with active status.
func (r *AccountRegistry) ListActive(ctx context.Context) ([]domain.Account, error) {
	return r.store.ListAccountsByStatus(ctx, domain.StatusActive)
}

// ListByClient returns a client's accounts. Fails with NotFound when the
// client is missing.
func (r *AccountRegistry) ListByClient(ctx context.Context, clientID domain.ClientID) ([]domain.Account, error) {
	if _, err := r.store.GetClient(ctx, clientID); err != nil {
		return nil, err
	}
	return r.store.ListAccountsByClient(ctx, clientID)
}

// ListActiveByClient returns a client's active accounts. Fails with
// NotFound when the client is missing.
func (r *AccountRegistry) ListActiveByClient(ctx context.Context, clientID domain.ClientID) ([]domain.Account, error) {
	if _, err := r.store.GetClient(ctx, clientID); err != nil {
		return nil, err
	}
	return r.store.ListAccountsByClientAndStatus(ctx, clientID, domain.StatusActive)
}

// ListByType returns accounts of one type.
func (r *AccountRegistry) ListByType(ctx context.Context, accountType domain.AccountType) ([]domain.Account, error) {
	return r.store.ListAccountsByType(ctx, accountType)
}

// ListWithMinimumBalance returns accounts whose current balance exceeds the
// minimum.
func (r *AccountRegistry) ListWithMinimumBalance(ctx context.Context, minimum decimal.Decimal) ([]domain.Account, error) {
	return r.store.ListAccountsWithMinBalance(ctx, minimum)
}

// Update replaces the identifying fields: number, type and initial balance.
// Fails with NotFound when the account is missing and DuplicateKey when the
// new number collides with a different account.
//
// Changing the initial balance does NOT reconcile the current balance, so
// the running-balance invariant can desynchronize. Inherited behavior,
// kept pending clarification of the intended business rule.
func (r *AccountRegistry) Update(ctx context.Context, id domain.AccountID, number string, accountType domain.AccountType, initialBalance decimal.Decimal) (domain.Account, error) {
	account, err := r.store.GetAccount(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}

	if number != account.Number {
		exists, err := r.store.AccountNumberExists(ctx, number)
		if err != nil {
			return domain.Account{}, err
		}
		if exists {
			return domain.Account{}, &domain.DuplicateKeyError{Field: "number", Value: number}
		}
	}

	account.Number = number
	account.Type = accountType
	account.InitialBalance = initialBalance
	account.UpdatedAt = r.clock.Now()

	if err := r.store.SaveAccount(ctx, &account); err != nil {
		return domain.Account{}, err
	}
	return account, nil
}

// Deactivate soft-deletes an account. There is no guard against existing
// movements, unlike the client-deactivation guard.
func (r *AccountRegistry) Deactivate(ctx context.Context, id domain.AccountID) (domain.Account, error) {
	return r.setStatus(ctx, id, domain.StatusInactive)
}

// Activate marks an account active.
func (r *AccountRegistry) Activate(ctx context.Context, id domain.AccountID) (domain.Account, error) {
	return r.setStatus(ctx, id, domain.StatusActive)
}

// Toggle flips an account's status.
func (r *AccountRegistry) Toggle(ctx context.Context, id domain.AccountID) (domain.Account, error) {
	account, err := r.store.GetAccount(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}
	return r.setStatus(ctx, id, account.Status.Toggled())
}

func (r *AccountRegistry) setStatus(ctx context.Context, id domain.AccountID, status domain.Status) (domain.Account, error) {
	account, err := r.store.GetAccount(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}
	account.Status = status
	account.UpdatedAt = r.clock.Now()
	if err := r.store.SaveAccount(ctx, &account); err != nil {
		return domain.Account{}, err
	}
	return account, nil
}

// Search matches free text against account numbers and types.
func (r *AccountRegistry) Search(ctx context.Context, query string) ([]domain.Account, error) {
	return r.store.SearchAccounts(ctx, query)
}

// ExistsByNumber reports whether an account number is taken.
func (r *AccountRegistry) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	return r.store.AccountNumberExists(ctx, number)
}

// BalanceOf returns an account's current balance. Fails with NotFound when
// the account is missing.
func (r *AccountRegistry) BalanceOf(ctx context.Context, id domain.AccountID) (decimal.Decimal, error) {
	account, err := r.store.GetAccount(ctx, id)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return account.CurrentBalance, nil
}

// MovementCountOf returns the number of movements attached to an account.
// Fails with NotFound when the account is missing.
func (r *AccountRegistry) MovementCountOf(ctx context.Context, id domain.AccountID) (int64, error) {
	if _, err := r.store.GetAccount(ctx, id); err != nil {
		return 0, err
	}
	return r.store.CountMovementsByAccount(ctx, id)
}

// TotalBalanceForClient sums the current balances of a client's ACTIVE
// accounts; inactive accounts are excluded. Returns zero when the client
// has none. Fails with NotFound when the client is missing.
func (r *AccountRegistry) TotalBalanceForClient(ctx context.Context, clientID domain.ClientID) (decimal.Decimal, error) {
	if _, err := r.store.GetClient(ctx, clientID); err != nil {
		return decimal.Decimal{}, err
	}

	accounts, err := r.store.ListAccountsByClientAndStatus(ctx, clientID, domain.StatusActive)
	if err != nil {
		return decimal.Decimal{}, err
	}

	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.CurrentBalance)
	}
	return total, nil
}

// CountActive returns the number of active accounts.
func (r *AccountRegistry) CountActive(ctx context.Context) (int64, error) {
	return r.store.CountAccountsByStatus(ctx, domain.StatusActive)
}
