/*
Package registry manages client and account lifecycles.

PURPOSE:
  The Client Registry and Account Registry own creation, update and
  activation of their records, including the uniqueness checks and the
  lifecycle guards. Neither registry mutates an account's current balance
  after creation; that path belongs exclusively to the Movement Engine.

LIFECYCLE GUARDS:
  - A client is never physically removed. Deactivation is blocked while the
    client owns ANY account, active or not: the guard counts total accounts.
  - Account deactivation carries no guard against existing movements. The
    asymmetry with the client guard is inherited behavior, kept as is.

SEE ALSO:
  - account.go: Account Registry
  - ledger/: The Movement Engine, sole balance mutator
*/
package registry

import (
	"context"

	"github.com/meridian/banking-ledger/domain"
)

// NewClient carries the fields for client creation and update. Inputs are
// pre-validated by the caller (the API boundary).
type NewClient struct {
	Name           string
	Gender         string
	Age            int
	Identification string // optional; unique when set
	Address        string
	Phone          string
	Code           string // required, unique
	Password       string
}

// ClientRegistry manages the client lifecycle against the ledger store.
type ClientRegistry struct {
	store domain.Store
	clock domain.Clock
}

func NewClientRegistry(store domain.Store, clock domain.Clock) *ClientRegistry {
	return &ClientRegistry{store: store, clock: clock}
}

// Create registers a new active client. Fails with DuplicateKey when the
// client code or a non-empty identification already exists.
func (r *ClientRegistry) Create(ctx context.Context, in NewClient) (domain.Client, error) {
	exists, err := r.store.ClientCodeExists(ctx, in.Code)
	if err != nil {
		return domain.Client{}, err
	}
	if exists {
		return domain.Client{}, &domain.DuplicateKeyError{Field: "code", Value: in.Code}
	}

	if in.Identification != "" {
		exists, err = r.store.IdentificationExists(ctx, in.Identification)
		if err != nil {
			return domain.Client{}, err
		}
		if exists {
			return domain.Client{}, &domain.DuplicateKeyError{Field: "identification", Value: in.Identification}
		}
	}

	now := r.clock.Now()
	client := domain.Client{
		Person: domain.Person{
			Name:           in.Name,
			Gender:         in.Gender,
			Age:            in.Age,
			Identification: in.Identification,
			Address:        in.Address,
			Phone:          in.Phone,
		},
		Code:      in.Code,
		Password:  in.Password,
		Status:    domain.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.store.SaveClient(ctx, &client); err != nil {
		return domain.Client{}, err
	}
	return client, nil
}

// Get returns a client by ID.
func (r *ClientRegistry) Get(ctx context.Context, id domain.ClientID) (domain.Client, error) {
	return r.store.GetClient(ctx, id)
}

// GetByCode returns a client by its unique client code.
func (r *ClientRegistry) GetByCode(ctx context.Context, code string) (domain.Client, error) {
	return r.store.GetClientByCode(ctx, code)
}

// GetByIdentification returns a client by its identification.
func (r *ClientRegistry) GetByIdentification(ctx context.Context, identification string) (domain.Client, error) {
	return r.store.GetClientByIdentification(ctx, identification)
}

// List returns all clients.
func (r *ClientRegistry) List(ctx context.Context) ([]domain.Client, error) {
	return r.store.ListClients(ctx)
}

// ListActive returns clients with active status.
func (r *ClientRegistry) ListActive(ctx context.Context) ([]domain.Client, error) {
	return r.store.ListClientsByStatus(ctx, domain.StatusActive)
}

// Update replaces a client's identity and credential fields. Fails with
// NotFound when the client is missing and DuplicateKey when the new code or
// identification collides with a different client.
func (r *ClientRegistry) Update(ctx context.Context, id domain.ClientID, in NewClient) (domain.Client, error) {
	client, err := r.store.GetClient(ctx, id)
	if err != nil {
		return domain.Client{}, err
	}

	if in.Code != client.Code {
		exists, err := r.store.ClientCodeExists(ctx, in.Code)
		if err != nil {
			return domain.Client{}, err
		}
		if exists {
			return domain.Client{}, &domain.DuplicateKeyError{Field: "code", Value: in.Code}
		}
	}
	if in.Identification != "" && in.Identification != client.Identification {
		exists, err := r.store.IdentificationExists(ctx, in.Identification)
		if err != nil {
			return domain.Client{}, err
		}
		if exists {
			return domain.Client{}, &domain.DuplicateKeyError{Field: "identification", Value: in.Identification}
		}
	}

	client.Name = in.Name
	client.Gender = in.Gender
	client.Age = in.Age
	client.Identification = in.Identification
	client.Address = in.Address
	client.Phone = in.Phone
	client.Code = in.Code
	client.Password = in.Password
	client.UpdatedAt = r.clock.Now()

	if err := r.store.SaveClient(ctx, &client); err != nil {
		return domain.Client{}, err
	}
	return client, nil
}

// Deactivate soft-deletes a client. Fails with ConflictingState while the
// client owns any account, active or not.
func (r *ClientRegistry) Deactivate(ctx context.Context, id domain.ClientID) error {
	client, err := r.store.GetClient(ctx, id)
	if err != nil {
		return err
	}

	accounts, err := r.store.CountAccountsByClient(ctx, id)
	if err != nil {
		return err
	}
	if accounts > 0 {
		return &domain.ConflictingStateError{
			Reason: "client owns accounts and cannot be deactivated",
		}
	}

	client.Status = domain.StatusInactive
	client.UpdatedAt = r.clock.Now()
	return r.store.SaveClient(ctx, &client)
}

// Activate marks a client active. No additional guard.
func (r *ClientRegistry) Activate(ctx context.Context, id domain.ClientID) (domain.Client, error) {
	return r.setStatus(ctx, id, domain.StatusActive)
}

// Toggle flips a client's status. No additional guard.
func (r *ClientRegistry) Toggle(ctx context.Context, id domain.ClientID) (domain.Client, error) {
	client, err := r.store.GetClient(ctx, id)
	if err != nil {
		return domain.Client{}, err
	}
	return r.setStatus(ctx, id, client.Status.Toggled())
}

func (r *ClientRegistry) setStatus(ctx context.Context, id domain.ClientID, status domain.Status) (domain.Client, error) {
	client, err := r.store.GetClient(ctx, id)
	if err != nil {
		return domain.Client{}, err
	}
	client.Status = status
	client.UpdatedAt = r.clock.Now()
	if err := r.store.SaveClient(ctx, &client); err != nil {
		return domain.Client{}, err
	}
	return client, nil
}

// Search matches free text against client names, codes and identifications.
func (r *ClientRegistry) Search(ctx context.Context, query string) ([]domain.Client, error) {
	return r.store.SearchClients(ctx, query)
}

// ExistsByCode reports whether a client code is taken.
func (r *ClientRegistry) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return r.store.ClientCodeExists(ctx, code)
}

// ExistsByIdentification reports whether an identification is taken.
func (r *ClientRegistry) ExistsByIdentification(ctx context.Context, identification string) (bool, error) {
	return r.store.IdentificationExists(ctx, identification)
}

// CountActive returns the number of active clients.
func (r *ClientRegistry) CountActive(ctx context.Context) (int64, error) {
	return r.store.CountClientsByStatus(ctx, domain.StatusActive)
}

// CountAccounts returns the number of accounts a client owns. Fails with
// NotFound when the client is missing.
func (r *ClientRegistry) CountAccounts(ctx context.Context, id domain.ClientID) (int64, error) {
	if _, err := r.store.GetClient(ctx, id); err != nil {
		return 0, err
	}
	return r.store.CountAccountsByClient(ctx, id)
}
