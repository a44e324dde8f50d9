package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter registers every API route. Paths must stay in sync with
// config.RouteSecurityConfig, which is keyed by the same templates.
func NewRouter(h *Handler, auth *AuthMiddleware) *mux.Router {
	router := mux.NewRouter()
	router.Use(RequestID, AccessLog, auth.Handler)

	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/auth/token", h.IssueToken).Methods(http.MethodPost)

	// Rentals; /overdue before /{id}
	api.HandleFunc("/rentals", h.CreateRental).Methods(http.MethodPost)
	api.HandleFunc("/rentals/overdue", h.ListOverdue).Methods(http.MethodGet)
	api.HandleFunc("/rentals/{id}", h.GetRental).Methods(http.MethodGet)
	api.HandleFunc("/rentals/{id}/return", h.ReturnRental).Methods(http.MethodPost)
	api.HandleFunc("/rentals/{id}/charges", h.AddCharge).Methods(http.MethodPost)

	// Ledger and reporting
	api.HandleFunc("/ledger", h.LedgerSummary).Methods(http.MethodGet)
	api.HandleFunc("/ledger/entries", h.LedgerEntries).Methods(http.MethodGet)
	api.HandleFunc("/inventory/utilization", h.Utilization).Methods(http.MethodGet)
	api.HandleFunc("/quotes", h.Quote).Methods(http.MethodGet)
	api.HandleFunc("/late-fees", h.LateFee).Methods(http.MethodGet)

	// Catalog
	api.HandleFunc("/inventory/items", h.ListItems).Methods(http.MethodGet)
	api.HandleFunc("/inventory/items", h.CreateItem).Methods(http.MethodPost)
	api.HandleFunc("/inventory/items/{id}", h.GetItem).Methods(http.MethodGet)
	api.HandleFunc("/inventory/items/{id}/condition", h.UpdateItemCondition).Methods(http.MethodPut)
	api.HandleFunc("/customers", h.RegisterCustomer).Methods(http.MethodPost)
	api.HandleFunc("/customers/{id}/risk", h.CustomerRisk).Methods(http.MethodGet)
	api.HandleFunc("/customers/{id}/risk", h.SetCustomerRisk).Methods(http.MethodPut)
	api.HandleFunc("/customers/{id}/risk", h.ClearCustomerRisk).Methods(http.MethodDelete)
	api.HandleFunc("/customers/{id}/rentals", h.CustomerRentals).Methods(http.MethodGet)
	api.HandleFunc("/customers/{id}/status", h.UpdateCustomerStatus).Methods(http.MethodPut)
	api.HandleFunc("/customers/{id}/blacklist", h.SetBlacklisted).Methods(http.MethodPut)

	return router
}
