/*
handlers.go - HTTP handlers for the banking ledger API

PURPOSE:
  Exposes the registries and the Movement Engine over REST. Handlers parse
  and validate input, delegate to the domain layer, and translate domain
  errors into HTTP statuses. No business rules live here.

ENDPOINTS:
  Clients:
    GET    /api/clients                   List clients (?status=, ?q=)
    POST   /api/clients                   Create client
    GET    /api/clients/{id}              Get client
    PUT    /api/clients/{id}              Update client
    DELETE /api/clients/{id}              Deactivate client (guarded)
    POST   /api/clients/{id}/status       Toggle status
    GET    /api/clients/code/{code}       Get client by code
    GET    /api/clients/{id}/accounts     Client's accounts (?status=active)
    GET    /api/clients/{id}/balance      Total balance across active accounts

  Accounts:
    GET    /api/accounts                  List accounts (?status=, ?type=, ?q=, ?min_balance=)
    POST   /api/accounts                  Open account
    GET    /api/accounts/{id}             Get account
    PUT    /api/accounts/{id}             Update account
    DELETE /api/accounts/{id}             Deactivate account
    POST   /api/accounts/{id}/status      Toggle status
    GET    /api/accounts/number/{number}  Get account by number
    GET    /api/accounts/{id}/balance     Current balance
    GET    /api/accounts/{id}/movements   Movement history (?from=, ?to=)
    GET    /api/accounts/{id}/debits      Debits, newest first
    GET    /api/accounts/{id}/credits     Credits, newest first
    GET    /api/accounts/{id}/last        Most recent movement

  Movements:
    GET    /api/movements                 List movements (?from=, ?to=, ?type=, ?q=)
    POST   /api/movements                 Apply a movement
    GET    /api/movements/{id}            Get movement
    PUT    /api/movements/{id}            Update description
    DELETE /api/movements/{id}            Reverse movement

  Reports:
    GET    /api/reports/statement         Statement (?client=, ?from=, ?to=)

ERROR HANDLING:
  Domain errors map to statuses:
  - NotFound            -> 404
  - DuplicateKey        -> 409
  - ConflictingState    -> 409
  - InactiveAccount     -> 400
  - InsufficientBalance -> 400
  - Validation          -> 400
  - anything else       -> 500

SECURITY NOTE:
  No authentication or authorization; the service runs inside the bank's
  back-office network.

SEE ALSO:
  - dto.go: Request/response structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/meridian/banking-ledger/domain"
	"github.com/meridian/banking-ledger/ledger"
	"github.com/meridian/banking-ledger/registry"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds the domain dependencies for all HTTP handlers.
type Handler struct {
	Clients  *registry.ClientRegistry
	Accounts *registry.AccountRegistry
	Ledger   *ledger.Engine
}

// NewHandler creates a handler over the registries and the Movement Engine.
func NewHandler(clients *registry.ClientRegistry, accounts *registry.AccountRegistry, engine *ledger.Engine) *Handler {
	return &Handler{Clients: clients, Accounts: accounts, Ledger: engine}
}

// =============================================================================
// CLIENT HANDLERS
// =============================================================================

// ListClients returns clients, optionally filtered by ?status= or ?q=.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	var (
		clients []domain.Client
		err     error
	)
	switch {
	case r.URL.Query().Get("q") != "":
		clients, err = h.Clients.Search(r.Context(), r.URL.Query().Get("q"))
	case r.URL.Query().Get("status") == string(domain.StatusActive):
		clients, err = h.Clients.ListActive(r.Context())
	default:
		clients, err = h.Clients.List(r.Context())
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTOs(clients))
}

// GetClient returns a single client.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	client, err := h.Clients.Get(r.Context(), domain.ClientID(id))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(client))
}

// GetClientByCode returns a client by its unique code.
func (h *Handler) GetClientByCode(w http.ResponseWriter, r *http.Request) {
	client, err := h.Clients.GetByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(client))
}

// CreateClient registers a new client.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := req.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	client, err := h.Clients.Create(r.Context(), registry.NewClient{
		Name:           req.Name,
		Gender:         req.Gender,
		Age:            req.Age,
		Identification: req.Identification,
		Address:        req.Address,
		Phone:          req.Phone,
		Code:           req.Code,
		Password:       req.Password,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toClientDTO(client))
}

// UpdateClient replaces a client's identity and credential fields.
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := req.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	client, err := h.Clients.Update(r.Context(), domain.ClientID(id), registry.NewClient{
		Name:           req.Name,
		Gender:         req.Gender,
		Age:            req.Age,
		Identification: req.Identification,
		Address:        req.Address,
		Phone:          req.Phone,
		Code:           req.Code,
		Password:       req.Password,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(client))
}

// DeactivateClient soft-deletes a client. 409 while the client owns accounts.
func (h *Handler) DeactivateClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Clients.Deactivate(r.Context(), domain.ClientID(id)); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// ToggleClientStatus flips a client between active and inactive.
func (h *Handler) ToggleClientStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	client, err := h.Clients.Toggle(r.Context(), domain.ClientID(id))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(client))
}

// ListClientAccounts returns a client's accounts, optionally only active ones.
func (h *Handler) ListClientAccounts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var (
		accounts []domain.Account
		err      error
	)
	if r.URL.Query().Get("status") == string(domain.StatusActive) {
		accounts, err = h.Accounts.ListActiveByClient(r.Context(), domain.ClientID(id))
	} else {
		accounts, err = h.Accounts.ListByClient(r.Context(), domain.ClientID(id))
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTOs(accounts))
}

// GetClientBalance returns the summed current balance of a client's active
// accounts.
func (h *Handler) GetClientBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	total, err := h.Accounts.TotalBalanceForClient(r.Context(), domain.ClientID(id))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ClientBalanceDTO{ClientID: id, TotalBalance: total.String()})
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// ListAccounts returns accounts, with optional ?status=, ?type=, ?q= and
// ?min_balance= filters. Filters are exclusive; the first present wins.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		accounts []domain.Account
		err      error
	)
	switch {
	case q.Get("q") != "":
		accounts, err = h.Accounts.Search(r.Context(), q.Get("q"))
	case q.Get("type") != "":
		accounts, err = h.Accounts.ListByType(r.Context(), domain.AccountType(q.Get("type")))
	case q.Get("min_balance") != "":
		minimum, perr := decimal.NewFromString(q.Get("min_balance"))
		if perr != nil {
			writeDomainError(w, &domain.ValidationError{Field: "min_balance", Reason: "must be a decimal number"})
			return
		}
		accounts, err = h.Accounts.ListWithMinimumBalance(r.Context(), minimum)
	case q.Get("status") == string(domain.StatusActive):
		accounts, err = h.Accounts.ListActive(r.Context())
	default:
		accounts, err = h.Accounts.List(r.Context())
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTOs(accounts))
}

// GetAccount returns a single account.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	account, err := h.Accounts.Get(r.Context(), domain.AccountID(id))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(account))
}

// GetAccountByNumber returns an account by its unique number.
func (h *Handler) GetAccountByNumber(w http.ResponseWriter, r *http.Request) {
	account, err := h.Accounts.GetByNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(account))
}

// CreateAccount opens a new account for an existing client.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req AccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	initial, err := req.Validate()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	account, err := h.Accounts.Create(r.Context(),
		req.Number, domain.AccountType(req.Type), initial, domain.ClientID(req.ClientID))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(account))
}

// UpdateAccount replaces an account's number, type and initial balance.
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req AccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	initial, err := req.Validate()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	account, err := h.Accounts.Update(r.Context(),
		domain.AccountID(id), req.Number, domain.AccountType(req.Type), initial)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(account))
}

// DeactivateAccount soft-deletes an account.
func (h *Handler) DeactivateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.Accounts.Deactivate(r.Context(), domain.AccountID(id)); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// ToggleAccountStatus flips an account between active and inactive.
func (h *Handler) ToggleAccountStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	account, err := h.Accounts.Toggle(r.Context(), domain.AccountID(id))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(account))
}

// GetAccountBalance returns an account's current balance.
func (h *Handler) GetAccountBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	balance, err := h.Accounts.BalanceOf(r.Context(), domain.AccountID(id))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceDTO{AccountID: id, Balance: balance.String()})
}

// ListAccountMovements returns an account's movement history in application
// order, optionally limited to ?from= / ?to= (YYYY-MM-DD, inclusive).
func (h *Handler) ListAccountMovements(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.Accounts.Get(r.Context(), domain.AccountID(id)); err != nil {
		writeDomainError(w, err)
		return
	}

	from, to, hasRange, err := dateRange(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var movements []domain.Movement
	if hasRange {
		movements, err = h.Ledger.MovementsByAccountInRange(r.Context(), domain.AccountID(id), from, to)
	} else {
		movements, err = h.Ledger.MovementsByAccount(r.Context(), domain.AccountID(id))
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMovementDTOs(movements))
}

// ListAccountDebits returns an account's debits, newest first.
func (h *Handler) ListAccountDebits(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	movements, err := h.Ledger.Debits(r.Context(), domain.AccountID(id))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMovementDTOs(movements))
}

// ListAccountCredits returns an account's credits, newest first.
func (h *Handler) ListAccountCredits(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	movements, err := h.Ledger.Credits(r.Context(), domain.AccountID(id))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMovementDTOs(movements))
}

// GetLastMovement returns an account's most recent movement.
func (h *Handler) GetLastMovement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	movement, err := h.Ledger.LastMovement(r.Context(), domain.AccountID(id))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMovementDTO(movement))
}

// =============================================================================
// MOVEMENT HANDLERS
// =============================================================================

// ListMovements returns movements with optional ?q=, ?type= or
// ?from=/?to= filters.
func (h *Handler) ListMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		movements []domain.Movement
		err       error
	)
	switch {
	case q.Get("q") != "":
		movements, err = h.Ledger.Search(r.Context(), q.Get("q"))
	case q.Get("type") != "":
		movements, err = h.Ledger.MovementsByType(r.Context(), q.Get("type"))
	default:
		from, to, hasRange, rerr := dateRange(r)
		if rerr != nil {
			writeDomainError(w, rerr)
			return
		}
		if hasRange {
			movements, err = h.Ledger.MovementsInRange(r.Context(), from, to)
		} else {
			movements, err = h.Ledger.Movements(r.Context())
		}
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMovementDTOs(movements))
}

// GetMovement returns a single movement.
func (h *Handler) GetMovement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	movement, err := h.Ledger.Movement(r.Context(), domain.MovementID(id))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMovementDTO(movement))
}

// CreateMovement applies a signed movement to an account.
func (h *Handler) CreateMovement(w http.ResponseWriter, r *http.Request) {
	var req MovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := req.Validate()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	movement, err := h.Ledger.Apply(r.Context(),
		domain.AccountID(req.AccountID), amount, req.Description, req.Type)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMovementDTO(movement))
}

// UpdateMovement changes a movement's description. Amount and balances are
// immutable.
func (h *Handler) UpdateMovement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req MovementUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	movement, err := h.Ledger.UpdateDescription(r.Context(), domain.MovementID(id), req.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMovementDTO(movement))
}

// DeleteMovement reverses a movement: the balance effect is undone and the
// record removed, atomically.
func (h *Handler) DeleteMovement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Ledger.Reverse(r.Context(), domain.MovementID(id)); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reversed"})
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetStatement builds the account-statement report for one client: every
// account with the movements inside [from, to] and per-account totals.
// GET /api/reports/statement?client={id}&from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) GetStatement(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	clientID, err := strconv.ParseInt(q.Get("client"), 10, 64)
	if err != nil {
		writeDomainError(w, &domain.ValidationError{Field: "client", Reason: "must be a numeric client id"})
		return
	}
	from, to, hasRange, err := dateRange(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !hasRange {
		writeDomainError(w, &domain.ValidationError{Field: "from", Reason: "from and to are required"})
		return
	}

	ctx := r.Context()
	client, err := h.Clients.Get(ctx, domain.ClientID(clientID))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	accounts, err := h.Accounts.ListByClient(ctx, client.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	statement := StatementDTO{
		Client:   toClientDTO(client),
		From:     from.Format("2006-01-02"),
		To:       to.Format("2006-01-02"),
		Accounts: make([]StatementAccountDTO, 0, len(accounts)),
	}

	for _, account := range accounts {
		movements, err := h.Ledger.MovementsByAccountInRange(ctx, account.ID, from, to)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		credits := decimal.Zero
		debits := decimal.Zero
		for _, m := range movements {
			if m.IsCredit() {
				credits = credits.Add(m.Amount)
			} else {
				debits = debits.Add(m.Amount)
			}
		}

		statement.Accounts = append(statement.Accounts, StatementAccountDTO{
			Account:       toAccountDTO(account),
			Movements:     toMovementDTOs(movements),
			TotalCredits:  credits.String(),
			TotalDebits:   debits.String(),
			MovementCount: len(movements),
		})
	}

	writeJSON(w, http.StatusOK, statement)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps the domain error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, domain.ErrDuplicateKey):
		writeError(w, http.StatusConflict, "Duplicate key", err)
	case errors.Is(err, domain.ErrConflictingState):
		writeError(w, http.StatusConflict, "Conflicting state", err)
	case errors.Is(err, domain.ErrInactiveAccount):
		writeError(w, http.StatusBadRequest, "Inactive account", err)
	case errors.Is(err, domain.ErrInsufficientBalance):
		writeError(w, http.StatusBadRequest, "Insufficient balance", err)
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "Invalid input", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

// pathID parses the numeric {name} URL parameter, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		writeDomainError(w, &domain.ValidationError{Field: name, Reason: "must be a numeric id"})
		return 0, false
	}
	return id, true
}

// dateRange parses the optional ?from= / ?to= query parameters
// (YYYY-MM-DD). The range is inclusive; "to" extends to the end of its day.
func dateRange(r *http.Request) (from, to time.Time, ok bool, err error) {
	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")
	if fromStr == "" && toStr == "" {
		return time.Time{}, time.Time{}, false, nil
	}

	from, err = time.Parse("2006-01-02", fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, false,
			&domain.ValidationError{Field: "from", Reason: "must be YYYY-MM-DD"}
	}
	to, err = time.Parse("2006-01-02", toStr)
	if err != nil {
		return time.Time{}, time.Time{}, false,
			&domain.ValidationError{Field: "to", Reason: "must be YYYY-MM-DD"}
	}
	to = to.Add(24*time.Hour - time.Second)
	return from, to, true, nil
}
