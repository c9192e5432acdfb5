package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian/banking-ledger/domain"
	"github.com/meridian/banking-ledger/store/memory"
)

func seedClient(t *testing.T, s *memory.Store, code string) domain.Client {
	t.Helper()

	c := domain.Client{
		Person: domain.Person{Name: "Test " + code},
		Code:   code, Password: "x", Status: domain.StatusActive,
	}
	require.NoError(t, s.SaveClient(context.Background(), &c))
	return c
}

func seedAccount(t *testing.T, s *memory.Store, clientID domain.ClientID, number, balance string) domain.Account {
	t.Helper()

	a := domain.Account{
		ClientID:       clientID,
		Number:         number,
		Type:           domain.AccountSavings,
		InitialBalance: domain.MustDecimal(balance),
		CurrentBalance: domain.MustDecimal(balance),
		Status:         domain.StatusActive,
	}
	require.NoError(t, s.SaveAccount(context.Background(), &a))
	return a
}

// =============================================================================
// SAVE SEMANTICS
// =============================================================================

func TestSaveClient_InsertAssignsSequentialIDs(t *testing.T) {
	s := memory.New()

	first := seedClient(t, s, "CLI001")
	second := seedClient(t, s, "CLI002")

	assert.EqualValues(t, 1, first.ID)
	assert.EqualValues(t, 2, second.ID)
}

func TestSaveClient_UpdateUnknownID_NotFound(t *testing.T) {
	s := memory.New()

	c := domain.Client{ID: 42, Code: "CLI042", Password: "x", Status: domain.StatusActive}
	err := s.SaveClient(context.Background(), &c)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSaveClient_DuplicateCode_Rejected(t *testing.T) {
	s := memory.New()
	seedClient(t, s, "CLI001")

	dup := domain.Client{Code: "CLI001", Password: "x", Status: domain.StatusActive}
	err := s.SaveClient(context.Background(), &dup)
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)
}

func TestSaveAccount_DuplicateNumber_Rejected(t *testing.T) {
	s := memory.New()
	client := seedClient(t, s, "CLI001")
	seedAccount(t, s, client.ID, "478758", "100")

	dup := domain.Account{
		ClientID: client.ID, Number: "478758",
		Type: domain.AccountChecking, Status: domain.StatusActive,
	}
	err := s.SaveAccount(context.Background(), &dup)
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)
}

// =============================================================================
// TRANSACTION ROLLBACK
// =============================================================================

func TestWithTx_ErrorRollsBackAllWrites(t *testing.T) {
	// GIVEN: An account with balance 100
	// WHEN: A transaction inserts a movement, updates the account, then fails
	// THEN: Neither write survives

	s := memory.New()
	ctx := context.Background()
	client := seedClient(t, s, "CLI001")
	account := seedAccount(t, s, client.ID, "478758", "100")

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx domain.Store) error {
		m := domain.Movement{
			AccountID:        account.ID,
			OccurredAt:       time.Now(),
			Amount:           domain.MustDecimal("50"),
			ResultingBalance: domain.MustDecimal("150"),
		}
		if err := tx.InsertMovement(ctx, &m); err != nil {
			return err
		}

		account.CurrentBalance = domain.MustDecimal("150")
		if err := tx.SaveAccount(ctx, &account); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentBalance.Equal(domain.MustDecimal("100")), "account write rolled back")

	count, err := s.CountMovementsByAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Zero(t, count, "movement insert rolled back")
}

func TestWithTx_SuccessCommitsWrites(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	client := seedClient(t, s, "CLI001")
	account := seedAccount(t, s, client.ID, "478758", "100")

	err := s.WithTx(ctx, func(tx domain.Store) error {
		m := domain.Movement{
			AccountID:        account.ID,
			OccurredAt:       time.Now(),
			Amount:           domain.MustDecimal("50"),
			ResultingBalance: domain.MustDecimal("150"),
		}
		return tx.InsertMovement(ctx, &m)
	})
	require.NoError(t, err)

	count, err := s.CountMovementsByAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestWithTx_RollbackRestoresIDCounters(t *testing.T) {
	// IDs handed out inside a failed transaction are reused afterwards, the
	// same way a rolled-back sqlite insert gives its rowid back.

	s := memory.New()
	ctx := context.Background()
	client := seedClient(t, s, "CLI001")
	account := seedAccount(t, s, client.ID, "478758", "100")

	var insideID domain.MovementID
	boom := errors.New("boom")
	_ = s.WithTx(ctx, func(tx domain.Store) error {
		m := domain.Movement{AccountID: account.ID, OccurredAt: time.Now()}
		_ = tx.InsertMovement(ctx, &m)
		insideID = m.ID
		return boom
	})

	m := domain.Movement{AccountID: account.ID, OccurredAt: time.Now()}
	require.NoError(t, s.InsertMovement(ctx, &m))
	assert.Equal(t, insideID, m.ID)
}

// =============================================================================
// ORDERING
// =============================================================================

func TestListMovementsByAccount_OldestFirst(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	client := seedClient(t, s, "CLI001")
	account := seedAccount(t, s, client.ID, "478758", "100")

	base := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		m := domain.Movement{
			AccountID:  account.ID,
			OccurredAt: base.Add(time.Duration(i) * time.Hour),
			Amount:     domain.MustDecimal("1"),
		}
		require.NoError(t, s.InsertMovement(ctx, &m))
	}

	movements, err := s.ListMovementsByAccount(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, movements, 3)
	assert.True(t, movements[0].OccurredAt.Before(movements[1].OccurredAt))
	assert.True(t, movements[1].OccurredAt.Before(movements[2].OccurredAt))
}

func TestListMovements_SameTimestamp_TieBrokenByID(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	client := seedClient(t, s, "CLI001")
	account := seedAccount(t, s, client.ID, "478758", "100")

	at := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		m := domain.Movement{AccountID: account.ID, OccurredAt: at, Amount: domain.MustDecimal("-1")}
		require.NoError(t, s.InsertMovement(ctx, &m))
	}

	debits, err := s.ListDebitsByAccount(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, debits, 3)
	assert.Greater(t, debits[0].ID, debits[1].ID, "newest first means highest ID first on ties")
}
