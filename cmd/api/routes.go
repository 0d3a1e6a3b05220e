package main

import "net/http"

// SetupRoutes configures the HTTP surface. Thin JSON endpoints over the
// domain services; no session handling here.
func SetupRoutes(api *API) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", api.HandleHealth)

	mux.HandleFunc("POST /api/users/register", api.HandleRegister)
	mux.HandleFunc("POST /api/users/login", api.HandleLogin)

	mux.HandleFunc("POST /api/connections/initiate", api.HandleInitiateConnection)
	mux.HandleFunc("POST /api/connections/callback", api.HandleCompleteConnection)
	mux.HandleFunc("GET /api/connections", api.HandleListConnections)
	mux.HandleFunc("DELETE /api/connections/{id}", api.HandleDisconnect)
	mux.HandleFunc("POST /api/connections/{id}/accounts/refresh", api.HandleRefreshAccounts)

	mux.HandleFunc("GET /api/accounts", api.HandleListAccounts)

	mux.HandleFunc("GET /api/transactions", api.HandleListTransactions)
	mux.HandleFunc("PUT /api/accounts/{accountID}/transactions/{id}/category", api.HandleOverrideCategory)

	mux.HandleFunc("POST /api/sync", api.HandleTriggerSync)

	mux.HandleFunc("GET /api/budgets", api.HandleListBudgets)
	mux.HandleFunc("PUT /api/budgets", api.HandleSetBudget)
	mux.HandleFunc("DELETE /api/budgets", api.HandleDeleteBudget)
	mux.HandleFunc("GET /api/budgets/analysis", api.HandleBudgetAnalysis)

	return mux
}
