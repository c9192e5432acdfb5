/*
seed.go - Demo data loader

PURPOSE:
  Populates an empty database with a small set of clients, accounts and
  movements so the back-office frontend has something to show. Enabled by
  the SEED_DEMO_DATA flag; a non-empty client table makes it a no-op.

SEE ALSO:
  - cmd/server/main.go: Invokes Seed on startup when configured
*/
package api

import (
	"context"
	"fmt"

	"github.com/meridian/banking-ledger/domain"
	"github.com/meridian/banking-ledger/ledger"
	"github.com/meridian/banking-ledger/registry"
)

// Seed loads the demo dataset. Idempotent: it bails out when any client
// already exists.
func Seed(ctx context.Context, clients *registry.ClientRegistry, accounts *registry.AccountRegistry, engine *ledger.Engine) error {
	existing, err := clients.List(ctx)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	demoClients := []registry.NewClient{
		{Name: "Jose Lema", Gender: "M", Age: 34, Identification: "0912547856",
			Address: "Otavalo sn y principal", Phone: "098254785", Code: "CLI001", Password: "1234"},
		{Name: "Marianela Montalvo", Gender: "F", Age: 29, Identification: "0925478512",
			Address: "Amazonas y NNUU", Phone: "097548965", Code: "CLI002", Password: "5678"},
		{Name: "Juan Osorio", Gender: "M", Age: 41, Identification: "0917458965",
			Address: "13 junio y Equinoccial", Phone: "098874587", Code: "CLI003", Password: "1245"},
		{Name: "Carla Espinoza", Gender: "F", Age: 25, Identification: "0933215487",
			Address: "Colon y Reina Victoria", Phone: "099365874", Code: "CLI004", Password: "9874"},
	}

	ids := make([]domain.ClientID, len(demoClients))
	for i, c := range demoClients {
		created, err := clients.Create(ctx, c)
		if err != nil {
			return fmt.Errorf("seed client %s: %w", c.Code, err)
		}
		ids[i] = created.ID
	}

	demoAccounts := []struct {
		number  string
		typ     domain.AccountType
		initial string
		owner   int
	}{
		{"478758", domain.AccountSavings, "2000", 0},
		{"225487", domain.AccountChecking, "100", 1},
		{"495878", domain.AccountSavings, "0", 2},
		{"496825", domain.AccountSavings, "540", 1},
		{"585545", domain.AccountChecking, "1000", 0},
	}

	accountIDs := make(map[string]domain.AccountID, len(demoAccounts))
	for _, a := range demoAccounts {
		created, err := accounts.Create(ctx, a.number, a.typ, domain.MustDecimal(a.initial), ids[a.owner])
		if err != nil {
			return fmt.Errorf("seed account %s: %w", a.number, err)
		}
		accountIDs[a.number] = created.ID
	}

	demoMovements := []struct {
		account     string
		amount      string
		typ         string
		description string
	}{
		{"478758", "-575", "DEBIT", "Retiro de 575"},
		{"225487", "600", "CREDIT", "Deposito de 600"},
		{"495878", "150", "CREDIT", "Deposito de 150"},
		{"496825", "-540", "DEBIT", "Retiro de 540"},
	}

	for _, m := range demoMovements {
		_, err := engine.Apply(ctx, accountIDs[m.account], domain.MustDecimal(m.amount), m.description, m.typ)
		if err != nil {
			return fmt.Errorf("seed movement on %s: %w", m.account, err)
		}
	}

	return nil
}
