/*
dto.go - Request and response payloads for the REST API

PURPOSE:
  Wire-level structures. Handlers decode requests into these, validate
  them, and translate domain entities back out. Domain types never carry
  json tags; the mapping lives here.

CONVENTIONS:
  - Monetary values travel as decimal strings ("150.75"), never floats.
  - Timestamps are RFC3339.
  - Status is the literal "active" / "inactive".

SEE ALSO:
  - handlers.go: The handlers using these payloads
  - domain/types.go: The entities being mapped
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian/banking-ledger/domain"
)

// =============================================================================
// CLIENT PAYLOADS
// =============================================================================

type ClientRequest struct {
	Name           string `json:"name"`
	Gender         string `json:"gender"`
	Age            int    `json:"age"`
	Identification string `json:"identification"`
	Address        string `json:"address"`
	Phone          string `json:"phone"`
	Code           string `json:"code"`
	Password       string `json:"password"`
}

// Validate checks the required fields. Field-level failures surface as
// domain.ValidationError so the error writer maps them to 400.
func (r ClientRequest) Validate() error {
	if r.Name == "" {
		return &domain.ValidationError{Field: "name", Reason: "is required"}
	}
	if r.Code == "" {
		return &domain.ValidationError{Field: "code", Reason: "is required"}
	}
	if r.Password == "" {
		return &domain.ValidationError{Field: "password", Reason: "is required"}
	}
	if r.Age < 0 {
		return &domain.ValidationError{Field: "age", Reason: "must not be negative"}
	}
	return nil
}

type ClientDTO struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Gender         string `json:"gender,omitempty"`
	Age            int    `json:"age,omitempty"`
	Identification string `json:"identification,omitempty"`
	Address        string `json:"address,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Code           string `json:"code"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// Password is deliberately absent from ClientDTO; it never leaves the API.
func toClientDTO(c domain.Client) ClientDTO {
	return ClientDTO{
		ID:             int64(c.ID),
		Name:           c.Name,
		Gender:         c.Gender,
		Age:            c.Age,
		Identification: c.Identification,
		Address:        c.Address,
		Phone:          c.Phone,
		Code:           c.Code,
		Status:         string(c.Status),
		CreatedAt:      c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      c.UpdatedAt.Format(time.RFC3339),
	}
}

func toClientDTOs(clients []domain.Client) []ClientDTO {
	dtos := make([]ClientDTO, len(clients))
	for i, c := range clients {
		dtos[i] = toClientDTO(c)
	}
	return dtos
}

// =============================================================================
// ACCOUNT PAYLOADS
// =============================================================================

type AccountRequest struct {
	Number         string `json:"number"`
	Type           string `json:"type"`
	InitialBalance string `json:"initial_balance"`
	ClientID       int64  `json:"client_id"`
}

func (r AccountRequest) Validate() (decimal.Decimal, error) {
	if r.Number == "" {
		return decimal.Decimal{}, &domain.ValidationError{Field: "number", Reason: "is required"}
	}
	if !domain.AccountType(r.Type).Valid() {
		return decimal.Decimal{}, &domain.ValidationError{Field: "type", Reason: "must be SAVINGS or CHECKING"}
	}
	initial, err := decimal.NewFromString(r.InitialBalance)
	if err != nil {
		return decimal.Decimal{}, &domain.ValidationError{Field: "initial_balance", Reason: "must be a decimal number"}
	}
	if initial.IsNegative() {
		return decimal.Decimal{}, &domain.ValidationError{Field: "initial_balance", Reason: "must not be negative"}
	}
	return initial, nil
}

type AccountDTO struct {
	ID             int64  `json:"id"`
	ClientID       int64  `json:"client_id"`
	Number         string `json:"number"`
	Type           string `json:"type"`
	InitialBalance string `json:"initial_balance"`
	CurrentBalance string `json:"current_balance"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func toAccountDTO(a domain.Account) AccountDTO {
	return AccountDTO{
		ID:             int64(a.ID),
		ClientID:       int64(a.ClientID),
		Number:         a.Number,
		Type:           string(a.Type),
		InitialBalance: a.InitialBalance.String(),
		CurrentBalance: a.CurrentBalance.String(),
		Status:         string(a.Status),
		CreatedAt:      a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      a.UpdatedAt.Format(time.RFC3339),
	}
}

func toAccountDTOs(accounts []domain.Account) []AccountDTO {
	dtos := make([]AccountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = toAccountDTO(a)
	}
	return dtos
}

// =============================================================================
// MOVEMENT PAYLOADS
// =============================================================================

type MovementRequest struct {
	AccountID   int64  `json:"account_id"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Validate parses the amount and fills in the type label from the sign
// when the caller omits it.
func (r *MovementRequest) Validate() (decimal.Decimal, error) {
	if r.AccountID == 0 {
		return decimal.Decimal{}, &domain.ValidationError{Field: "account_id", Reason: "is required"}
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return decimal.Decimal{}, &domain.ValidationError{Field: "amount", Reason: "must be a decimal number"}
	}
	if amount.IsZero() {
		return decimal.Decimal{}, &domain.ValidationError{Field: "amount", Reason: "must not be zero"}
	}
	if r.Type == "" {
		if amount.IsNegative() {
			r.Type = "DEBIT"
		} else {
			r.Type = "CREDIT"
		}
	}
	return amount, nil
}

type MovementUpdateRequest struct {
	Description string `json:"description"`
}

type MovementDTO struct {
	ID               int64  `json:"id"`
	AccountID        int64  `json:"account_id"`
	OccurredAt       string `json:"occurred_at"`
	Type             string `json:"type"`
	Amount           string `json:"amount"`
	ResultingBalance string `json:"resulting_balance"`
	Description      string `json:"description,omitempty"`
	CreatedAt        string `json:"created_at"`
}

func toMovementDTO(m domain.Movement) MovementDTO {
	return MovementDTO{
		ID:               int64(m.ID),
		AccountID:        int64(m.AccountID),
		OccurredAt:       m.OccurredAt.Format(time.RFC3339),
		Type:             m.Type,
		Amount:           m.Amount.String(),
		ResultingBalance: m.ResultingBalance.String(),
		Description:      m.Description,
		CreatedAt:        m.CreatedAt.Format(time.RFC3339),
	}
}

func toMovementDTOs(movements []domain.Movement) []MovementDTO {
	dtos := make([]MovementDTO, len(movements))
	for i, m := range movements {
		dtos[i] = toMovementDTO(m)
	}
	return dtos
}

// =============================================================================
// REPORT PAYLOADS
// =============================================================================

// StatementDTO is the account-statement report: one client, each of their
// accounts, and the movements that fell inside the requested range.
type StatementDTO struct {
	Client   ClientDTO             `json:"client"`
	From     string                `json:"from"`
	To       string                `json:"to"`
	Accounts []StatementAccountDTO `json:"accounts"`
}

type StatementAccountDTO struct {
	Account       AccountDTO    `json:"account"`
	Movements     []MovementDTO `json:"movements"`
	TotalCredits  string        `json:"total_credits"`
	TotalDebits   string        `json:"total_debits"`
	MovementCount int           `json:"movement_count"`
}

type BalanceDTO struct {
	AccountID int64  `json:"account_id"`
	Balance   string `json:"balance"`
}

type ClientBalanceDTO struct {
	ClientID     int64  `json:"client_id"`
	TotalBalance string `json:"total_balance"`
}

// =============================================================================
// ERRORS
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
