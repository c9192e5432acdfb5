package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian/banking-ledger/domain"
	"github.com/meridian/banking-ledger/ledger"
	"github.com/meridian/banking-ledger/registry"
	"github.com/meridian/banking-ledger/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// stepClock advances one minute per Now() call so movements get distinct,
// ordered timestamps.
type stepClock struct {
	mu sync.Mutex
	at time.Time
}

func newStepClock() *stepClock {
	return &stepClock{at: time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = c.at.Add(time.Minute)
	return c.at
}

type fixture struct {
	store  *memory.Store
	engine *ledger.Engine
	client domain.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.New()
	clock := newStepClock()
	engine := ledger.New(store, clock)

	clients := registry.NewClientRegistry(store, clock)
	client, err := clients.Create(context.Background(), registry.NewClient{
		Name: "Jose Lema", Code: "CLI001", Password: "1234",
	})
	require.NoError(t, err)

	return &fixture{store: store, engine: engine, client: client}
}

// openAccount creates an active account with the given starting balance.
func (f *fixture) openAccount(t *testing.T, number, initial string) domain.Account {
	t.Helper()

	account := domain.Account{
		ClientID:       f.client.ID,
		Number:         number,
		Type:           domain.AccountSavings,
		InitialBalance: domain.MustDecimal(initial),
		CurrentBalance: domain.MustDecimal(initial),
		Status:         domain.StatusActive,
	}
	require.NoError(t, f.store.SaveAccount(context.Background(), &account))
	return account
}

func dec(s string) decimal.Decimal { return domain.MustDecimal(s) }

// =============================================================================
// APPLY - CREDITS AND DEBITS
// =============================================================================

func TestApply_Credit_IncreasesBalance(t *testing.T) {
	// GIVEN: An active account with balance 1000
	// WHEN: Applying a credit of 250.50
	// THEN: Balance becomes 1250.50 and the movement snapshots it

	f := newFixture(t)
	ctx := context.Background()
	account := f.openAccount(t, "478758", "1000")

	m, err := f.engine.Apply(ctx, account.ID, dec("250.50"), "payroll", "CREDIT")
	require.NoError(t, err)

	assert.True(t, m.IsCredit())
	assert.True(t, m.ResultingBalance.Equal(dec("1250.50")),
		"resulting balance snapshot should be 1250.50, got %s", m.ResultingBalance)

	got, err := f.store.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentBalance.Equal(dec("1250.50")))
}

func TestApply_Debit_DecreasesBalance(t *testing.T) {
	// GIVEN: An active account with balance 1000
	// WHEN: Applying a debit of -575
	// THEN: Balance becomes 425

	f := newFixture(t)
	ctx := context.Background()
	account := f.openAccount(t, "478758", "1000")

	m, err := f.engine.Apply(ctx, account.ID, dec("-575"), "withdrawal", "DEBIT")
	require.NoError(t, err)

	assert.True(t, m.IsDebit())
	assert.True(t, m.ResultingBalance.Equal(dec("425")))

	got, _ := f.store.GetAccount(ctx, account.ID)
	assert.True(t, got.CurrentBalance.Equal(dec("425")))
}

func TestApply_Debit_InsufficientBalance_Rejected(t *testing.T) {
	// GIVEN: An active account with balance 100
	// WHEN: Applying a debit of -150
	// THEN: InsufficientBalance; neither the balance nor the history changes

	f := newFixture(t)
	ctx := context.Background()
	account := f.openAccount(t, "478758", "100")

	_, err := f.engine.Apply(ctx, account.ID, dec("-150"), "withdrawal", "DEBIT")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	var ib *domain.InsufficientBalanceError
	require.ErrorAs(t, err, &ib)
	assert.True(t, ib.Current.Equal(dec("100")))
	assert.True(t, ib.Requested.Equal(dec("-150")))

	got, _ := f.store.GetAccount(ctx, account.ID)
	assert.True(t, got.CurrentBalance.Equal(dec("100")), "balance must not change on rejection")

	count, err := f.engine.CountByAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Zero(t, count, "no movement record on rejection")
}

func TestApply_Debit_ExactlyToZero_Allowed(t *testing.T) {
	// GIVEN: An active account with balance 100
	// WHEN: Debiting exactly -100, then -0.01 more
	// THEN: The first succeeds (balance 0), the second is rejected

	f := newFixture(t)
	ctx := context.Background()
	account := f.openAccount(t, "478758", "100")

	m, err := f.engine.Apply(ctx, account.ID, dec("-100"), "full withdrawal", "DEBIT")
	require.NoError(t, err)
	assert.True(t, m.ResultingBalance.IsZero())

	_, err = f.engine.Apply(ctx, account.ID, dec("-0.01"), "one cent too far", "DEBIT")
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestApply_ZeroBalanceAccount_DebitRejected(t *testing.T) {
	// GIVEN: An account opened with balance 0
	// WHEN: Applying any debit
	// THEN: InsufficientBalance

	f := newFixture(t)
	ctx := context.Background()
	account := f.openAccount(t, "495878", "0")

	_, err := f.engine.Apply(ctx, account.ID, dec("-1"), "withdrawal", "DEBIT")
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestApply_InactiveAccount_Rejected(t *testing.T) {
	// GIVEN: A deactivated account with plenty of balance
	// WHEN: Applying a credit or a debit
	// THEN: InactiveAccount; balance untouched

	f := newFixture(t)
	ctx := context.Background()
	account := f.openAccount(t, "478758", "1000")

	account.Status = domain.StatusInactive
	require.NoError(t, f.store.SaveAccount(ctx, &account))

	_, err := f.engine.Apply(ctx, account.ID, dec("50"), "deposit", "CREDIT")
	assert.ErrorIs(t, err, domain.ErrInactiveAccount)

	_, err = f.engine.Apply(ctx, account.ID, dec("-50"), "withdrawal", "DEBIT")
	assert.ErrorIs(t, err, domain.ErrInactiveAccount)

	got, _ := f.store.GetAccount(ctx, account.ID)
	assert.True(t, got.CurrentBalance.Equal(dec("1000")))
}

func TestApply_MissingAccount_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Apply(context.Background(), 9999, dec("10"), "deposit", "CREDIT")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// =============================================================================
// RUNNING-BALANCE INVARIANT
// =============================================================================

func TestApply_RunningBalanceInvariant(t *testing.T) {
	// GIVEN: A sequence of mixed credits and debits
	// THEN: currentBalance == initialBalance + sum of movement amounts,
	//       and every snapshot equals the running balance at its point

	f := newFixture(t)
	ctx := context.Background()
	account := f.openAccount(t, "478758", "500")

	amounts := []string{"200", "-75.25", "1000", "-624.75", "-1000"}
	for _, a := range amounts {
		_, err := f.engine.Apply(ctx, account.ID, dec(a), "", "")
		require.NoError(t, err)
	}

	movements, err := f.engine.MovementsByAccount(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, movements, len(amounts))

	running := dec("500")
	for _, m := range movements {
		running = running.Add(m.Amount)
		assert.True(t, m.ResultingBalance.Equal(running),
			"snapshot %s should equal running balance %s", m.ResultingBalance, running)
	}

	got, _ := f.store.GetAccount(ctx, account.ID)
	assert.True(t, got.CurrentBalance.Equal(running))
	assert.True(t, got.CurrentBalance.Equal(dec("0")))
}

// =============================================================================
// REVERSE
// =============================================================================

func TestReverse_RestoresBalance_RemovesMovement(t *testing.T) {
	// GIVEN: A deposit of 600 on an account with balance 100
	// WHEN: Reversing the deposit
	// THEN: Balance drops back to 100 and the movement is gone

	f := newFixture(t)
	ctx := context.Background()
	account := f.openAccount(t, "225487", "100")

	m, err := f.engine.Apply(ctx, account.ID, dec("600"), "deposit", "CREDIT")
	require.NoError(t, err)

	require.NoError(t, f.engine.Reverse(ctx, m.ID))

	got, _ := f.store.GetAccount(ctx, account.ID)
	assert.True(t, got.CurrentBalance.Equal(dec("100")))

	_, err = f.engine.Movement(ctx, m.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReverse_Debit_RestoresBalanceUpward(t *testing.T) {
	// Reversing a debit adds the withdrawn amount back.

	f := newFixture(t)
	ctx := context.Background()
	account := f.openAccount(t, "478758", "1000")

	m, err := f.engine.Apply(ctx, account.ID, dec("-575"), "withdrawal", "DEBIT")
	require.NoError(t, err)

	require.NoError(t, f.engine.Reverse(ctx, m.ID))

	got, _ := f.store.GetAccount(ctx, account.ID)
	assert.True(t, got.CurrentBalance.Equal(dec("1000")))
}

func TestReverse_MissingMovement_NotFound(t *testing.T) {
	f := newFixture(t)

	err := f.engine.Reverse(context.Background(), 4242)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReverse_LeavesLaterSnapshotsUntouched(t *testing.T) {
	// GIVEN: Two credits applied in sequence
	// WHEN: Reversing the first
	// THEN: The second movement keeps its original snapshot even though the
	//       account balance was corrected

	f := newFixture(t)
	ctx := context.Background()
	account := f.openAccount(t, "478758", "0")

	m1, err := f.engine.Apply(ctx, account.ID, dec("100"), "first", "CREDIT")
	require.NoError(t, err)
	m2, err := f.engine.Apply(ctx, account.ID, dec("50"), "second", "CREDIT")
	require.NoError(t, err)
	require.True(t, m2.ResultingBalance.Equal(dec("150")))

	require.NoError(t, f.engine.Reverse(ctx, m1.ID))

	got, _ := f.store.GetAccount(ctx, account.ID)
	assert.True(t, got.CurrentBalance.Equal(dec("50")), "balance reflects the reversal")

	kept, err := f.engine.Movement(ctx, m2.ID)
	require.NoError(t, err)
	assert.True(t, kept.ResultingBalance.Equal(dec("150")),
		"snapshot stays as recorded, not recomputed")
}

// =============================================================================
// UPDATE DESCRIPTION
// =============================================================================

func TestUpdateDescription_OnlyDescriptionChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.openAccount(t, "478758", "100")

	m, err := f.engine.Apply(ctx, account.ID, dec("50"), "original", "CREDIT")
	require.NoError(t, err)

	updated, err := f.engine.UpdateDescription(ctx, m.ID, "corrected")
	require.NoError(t, err)

	assert.Equal(t, "corrected", updated.Description)
	assert.True(t, updated.Amount.Equal(m.Amount))
	assert.True(t, updated.ResultingBalance.Equal(m.ResultingBalance))

	got, _ := f.store.GetAccount(ctx, account.ID)
	assert.True(t, got.CurrentBalance.Equal(dec("150")), "no balance side effect")
}

func TestUpdateDescription_MissingMovement_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.UpdateDescription(context.Background(), 777, "whatever")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// =============================================================================
// CONCURRENCY
// =============================================================================

func TestApply_ConcurrentDebits_NeverOverdraw(t *testing.T) {
	// GIVEN: Balance 100 and ten concurrent debits of -20
	// THEN: Exactly five succeed and the final balance is zero

	f := newFixture(t)
	ctx := context.Background()
	account := f.openAccount(t, "478758", "100")

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.engine.Apply(ctx, account.ID, dec("-20"), "concurrent withdrawal", "DEBIT")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
		}
	}
	assert.Equal(t, 5, succeeded)

	got, _ := f.store.GetAccount(ctx, account.ID)
	assert.True(t, got.CurrentBalance.IsZero(), "final balance must be exactly zero, got %s", got.CurrentBalance)
	assert.False(t, got.CurrentBalance.IsNegative())
}

func TestApply_DistinctAccounts_Independent(t *testing.T) {
	// Movements on different accounts do not interfere.

	f := newFixture(t)
	ctx := context.Background()
	a1 := f.openAccount(t, "478758", "100")
	a2 := f.openAccount(t, "225487", "100")

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Apply(ctx, a1.ID, dec("10"), "", "CREDIT")
			assert.NoError(t, err)
			_, err = f.engine.Apply(ctx, a2.ID, dec("-10"), "", "DEBIT")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	g1, _ := f.store.GetAccount(ctx, a1.ID)
	g2, _ := f.store.GetAccount(ctx, a2.ID)
	assert.True(t, g1.CurrentBalance.Equal(dec("150")))
	assert.True(t, g2.CurrentBalance.Equal(dec("50")))
}
