package registry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian/banking-ledger/domain"
	"github.com/meridian/banking-ledger/registry"
	"github.com/meridian/banking-ledger/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newRegistries(t *testing.T) (*registry.ClientRegistry, *registry.AccountRegistry, *memory.Store) {
	t.Helper()

	store := memory.New()
	clock := domain.FixedClock{At: time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)}
	return registry.NewClientRegistry(store, clock), registry.NewAccountRegistry(store, clock), store
}

func joseLema() registry.NewClient {
	return registry.NewClient{
		Name:           "Jose Lema",
		Gender:         "M",
		Age:            34,
		Identification: "0912547856",
		Address:        "Otavalo sn y principal",
		Phone:          "098254785",
		Code:           "CLI001",
		Password:       "1234",
	}
}

// =============================================================================
// CREATE
// =============================================================================

func TestClientCreate_ActiveWithTimestamps(t *testing.T) {
	clients, _, _ := newRegistries(t)

	client, err := clients.Create(context.Background(), joseLema())
	require.NoError(t, err)

	assert.NotZero(t, client.ID)
	assert.Equal(t, domain.StatusActive, client.Status)
	assert.Equal(t, client.CreatedAt, client.UpdatedAt)
}

func TestClientCreate_DuplicateCode_Rejected(t *testing.T) {
	// GIVEN: CLI001 already registered
	// WHEN: Creating another client with code CLI001
	// THEN: DuplicateKey naming the code field

	clients, _, _ := newRegistries(t)
	ctx := context.Background()

	_, err := clients.Create(ctx, joseLema())
	require.NoError(t, err)

	second := joseLema()
	second.Name = "Someone Else"
	second.Identification = "0999999999"
	_, err = clients.Create(ctx, second)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)
	var dup *domain.DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "code", dup.Field)
}

func TestClientCreate_DuplicateIdentification_Rejected(t *testing.T) {
	clients, _, _ := newRegistries(t)
	ctx := context.Background()

	_, err := clients.Create(ctx, joseLema())
	require.NoError(t, err)

	second := joseLema()
	second.Code = "CLI002"
	_, err = clients.Create(ctx, second)

	assert.ErrorIs(t, err, domain.ErrDuplicateKey)
	var dup *domain.DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "identification", dup.Field)
}

func TestClientCreate_EmptyIdentification_NeverCollides(t *testing.T) {
	// Identification is optional; two clients without one are fine.

	clients, _, _ := newRegistries(t)
	ctx := context.Background()

	first := joseLema()
	first.Identification = ""
	_, err := clients.Create(ctx, first)
	require.NoError(t, err)

	second := joseLema()
	second.Code = "CLI002"
	second.Identification = ""
	_, err = clients.Create(ctx, second)
	assert.NoError(t, err)
}

// =============================================================================
// LOOKUPS
// =============================================================================

func TestClientGetByCode(t *testing.T) {
	clients, _, _ := newRegistries(t)
	ctx := context.Background()

	created, err := clients.Create(ctx, joseLema())
	require.NoError(t, err)

	got, err := clients.GetByCode(ctx, "CLI001")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = clients.GetByCode(ctx, "CLI404")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClientGetByIdentification(t *testing.T) {
	clients, _, _ := newRegistries(t)
	ctx := context.Background()

	created, err := clients.Create(ctx, joseLema())
	require.NoError(t, err)

	got, err := clients.GetByIdentification(ctx, "0912547856")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestClientSearch(t *testing.T) {
	clients, _, _ := newRegistries(t)
	ctx := context.Background()

	_, err := clients.Create(ctx, joseLema())
	require.NoError(t, err)

	marianela := joseLema()
	marianela.Name = "Marianela Montalvo"
	marianela.Code = "CLI002"
	marianela.Identification = "0925478512"
	_, err = clients.Create(ctx, marianela)
	require.NoError(t, err)

	found, err := clients.Search(ctx, "montalvo")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Marianela Montalvo", found[0].Name)
}

// =============================================================================
// UPDATE
// =============================================================================

func TestClientUpdate_ChangesFields(t *testing.T) {
	clients, _, _ := newRegistries(t)
	ctx := context.Background()

	created, err := clients.Create(ctx, joseLema())
	require.NoError(t, err)

	in := joseLema()
	in.Address = "Nueva direccion 123"
	in.Phone = "0998887766"
	updated, err := clients.Update(ctx, created.ID, in)
	require.NoError(t, err)

	assert.Equal(t, "Nueva direccion 123", updated.Address)
	assert.Equal(t, "0998887766", updated.Phone)
}

func TestClientUpdate_CodeCollision_Rejected(t *testing.T) {
	clients, _, _ := newRegistries(t)
	ctx := context.Background()

	first, err := clients.Create(ctx, joseLema())
	require.NoError(t, err)

	second := joseLema()
	second.Code = "CLI002"
	second.Identification = "0999999999"
	_, err = clients.Create(ctx, second)
	require.NoError(t, err)

	in := joseLema()
	in.Code = "CLI002"
	_, err = clients.Update(ctx, first.ID, in)
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)
}

func TestClientUpdate_SameCode_NoCollision(t *testing.T) {
	// Re-submitting a client's own code is not a collision.

	clients, _, _ := newRegistries(t)
	ctx := context.Background()

	created, err := clients.Create(ctx, joseLema())
	require.NoError(t, err)

	_, err = clients.Update(ctx, created.ID, joseLema())
	assert.NoError(t, err)
}

// =============================================================================
// DEACTIVATION GUARD
// =============================================================================

func TestClientDeactivate_NoAccounts_Succeeds(t *testing.T) {
	clients, _, store := newRegistries(t)
	ctx := context.Background()

	created, err := clients.Create(ctx, joseLema())
	require.NoError(t, err)

	require.NoError(t, clients.Deactivate(ctx, created.ID))

	got, err := store.GetClient(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInactive, got.Status)
}

func TestClientDeactivate_OwnsAccount_Blocked(t *testing.T) {
	// GIVEN: A client owning one account
	// WHEN: Deactivating the client
	// THEN: ConflictingState and the client stays active

	clients, accounts, store := newRegistries(t)
	ctx := context.Background()

	created, err := clients.Create(ctx, joseLema())
	require.NoError(t, err)
	_, err = accounts.Create(ctx, "478758", domain.AccountSavings, domain.MustDecimal("2000"), created.ID)
	require.NoError(t, err)

	err = clients.Deactivate(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrConflictingState)

	got, _ := store.GetClient(ctx, created.ID)
	assert.Equal(t, domain.StatusActive, got.Status)
}

func TestClientDeactivate_OwnsInactiveAccount_StillBlocked(t *testing.T) {
	// The guard counts ALL accounts, not just active ones.

	clients, accounts, _ := newRegistries(t)
	ctx := context.Background()

	created, err := clients.Create(ctx, joseLema())
	require.NoError(t, err)
	account, err := accounts.Create(ctx, "478758", domain.AccountSavings, domain.MustDecimal("0"), created.ID)
	require.NoError(t, err)
	_, err = accounts.Deactivate(ctx, account.ID)
	require.NoError(t, err)

	err = clients.Deactivate(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrConflictingState)
}

func TestClientToggle_FlipsStatus(t *testing.T) {
	clients, _, _ := newRegistries(t)
	ctx := context.Background()

	created, err := clients.Create(ctx, joseLema())
	require.NoError(t, err)

	toggled, err := clients.Toggle(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInactive, toggled.Status)

	back, err := clients.Toggle(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, back.Status)
}

// =============================================================================
// COUNTS
// =============================================================================

func TestClientCountAccounts(t *testing.T) {
	clients, accounts, _ := newRegistries(t)
	ctx := context.Background()

	created, err := clients.Create(ctx, joseLema())
	require.NoError(t, err)

	count, err := clients.CountAccounts(ctx, created.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = accounts.Create(ctx, "478758", domain.AccountSavings, domain.MustDecimal("100"), created.ID)
	require.NoError(t, err)
	_, err = accounts.Create(ctx, "225487", domain.AccountChecking, domain.MustDecimal("50"), created.ID)
	require.NoError(t, err)

	count, err = clients.CountAccounts(ctx, created.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	_, err = clients.CountAccounts(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
