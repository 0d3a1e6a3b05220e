package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"budgie/internal/domain/budget"
	"budgie/internal/domain/connection"
	"budgie/internal/domain/transaction"
	"budgie/internal/domain/user"
	"budgie/internal/infrastructure/truelayer"
)

// API exposes the domain services over thin JSON endpoints. Callers identify
// the acting user explicitly; session handling sits in front of this service.
type API struct {
	deps        *Dependencies
	redirectURI string
}

func NewAPI(deps *Dependencies, redirectURI string) *API {
	return &API{deps: deps, redirectURI: redirectURI}
}

func (a *API) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := a.deps.Users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (a *API) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := a.deps.Users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *API) HandleInitiateConnection(w http.ResponseWriter, r *http.Request) {
	authURL, state := a.deps.Connections.Initiate(a.redirectURI)
	writeJSON(w, http.StatusOK, map[string]string{
		"authUrl": authURL,
		"state":   state,
	})
}

func (a *API) HandleCompleteConnection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int64  `json:"userId"`
		Code   string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == 0 || req.Code == "" {
		writeError(w, http.StatusBadRequest, "userId and code are required")
		return
	}

	conn, err := a.deps.Connections.Complete(r.Context(), req.UserID, req.Code, a.redirectURI)
	if err != nil {
		if errors.Is(err, truelayer.ErrTokenExchange) {
			writeError(w, http.StatusBadGateway, "code exchange rejected by provider")
			return
		}
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, conn)
}

func (a *API) HandleListConnections(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	conns, err := a.deps.Connections.List(r.Context(), userID)
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conns)
}

func (a *API) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := a.deps.Connections.Disconnect(r.Context(), r.PathValue("id")); err != nil {
		serverError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) HandleRefreshAccounts(w http.ResponseWriter, r *http.Request) {
	conn, err := a.deps.Connections.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "connection not found")
		return
	}

	saved, err := a.deps.Connections.RefreshAccounts(r.Context(), conn)
	if err != nil {
		if errors.Is(err, connection.ErrReauthRequired) {
			writeError(w, http.StatusConflict, "reauthentication required")
			return
		}
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"accounts": saved})
}

func (a *API) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	accounts, err := a.deps.AccountRepo.ListByUserID(r.Context(), userID)
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (a *API) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	filter := transaction.ListFilter{
		UserID:    userID,
		AccountID: r.URL.Query().Get("account_id"),
	}
	from, ok := dateParam(w, r, "from")
	if !ok {
		return
	}
	filter.From = from

	to, ok := dateParam(w, r, "to")
	if !ok {
		return
	}
	filter.To = to
	if v := r.URL.Query().Get("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		filter.Offset, _ = strconv.Atoi(v)
	}

	transactions, err := a.deps.TransactionRepo.List(r.Context(), filter)
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transactions)
}

func (a *API) HandleOverrideCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Category == "" {
		writeError(w, http.StatusBadRequest, "category is required")
		return
	}

	tx, err := a.deps.TransactionRepo.OverrideCategory(r.Context(), r.PathValue("accountID"), r.PathValue("id"), req.Category)
	if err != nil {
		serverError(w, err)
		return
	}
	if tx == nil {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (a *API) HandleTriggerSync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    int64  `json:"userId"`
		AccountID string `json:"accountId"`
		Full      bool   `json:"full"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	if req.AccountID != "" {
		result, err := a.deps.Engine.SyncAccountByID(r.Context(), req.UserID, req.AccountID, req.Full)
		if err != nil {
			writeSyncError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}

	summary, err := a.deps.Engine.SyncAllAccounts(r.Context(), req.UserID, req.Full)
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) HandleListBudgets(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	budgets, err := a.deps.Budgets.List(r.Context(), userID)
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (a *API) HandleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   int64           `json:"userId"`
		Category string          `json:"category"`
		Amount   decimal.Decimal `json:"amount"`
		Period   budget.Period   `json:"period"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b, err := a.deps.Budgets.Set(r.Context(), req.UserID, req.Category, req.Amount, req.Period)
	if err != nil {
		if errors.Is(err, budget.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (a *API) HandleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	category := r.URL.Query().Get("category")

	if err := a.deps.Budgets.Delete(r.Context(), userID, category); err != nil {
		if errors.Is(err, budget.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		serverError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) HandleBudgetAnalysis(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	analysis, err := a.deps.Budgets.Analyze(r.Context(), userID)
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func writeSyncError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, transaction.ErrValidation):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, connection.ErrReauthRequired), errors.Is(err, truelayer.ErrAuthRejected):
		writeError(w, http.StatusConflict, "reauthentication required")
	case errors.Is(err, truelayer.ErrProviderUnavailable):
		writeError(w, http.StatusBadGateway, "provider unavailable, retry later")
	default:
		serverError(w, err)
	}
}

func userIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, "user_id query parameter is required")
		return 0, false
	}
	return userID, true
}

func dateParam(w http.ResponseWriter, r *http.Request, name string) (*time.Time, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		writeError(w, http.StatusBadRequest, name+" must be YYYY-MM-DD")
		return nil, false
	}
	return &t, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func serverError(w http.ResponseWriter, err error) {
	log.Printf("Request failed: %v", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
