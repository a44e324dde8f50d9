package http

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"rental-engine-backend/internal/domain"
)

type createItemRequest struct {
	ID              string               `json:"id"`
	Name            string               `json:"name"`
	Category        domain.ItemCategory  `json:"category"`
	BasePricePerDay float64              `json:"base_price_per_day"`
	Condition       domain.ItemCondition `json:"condition"`
}

type conditionRequest struct {
	Condition domain.ItemCondition `json:"condition"`
}

type registerCustomerRequest struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Email       string                `json:"email"`
	Status      domain.CustomerStatus `json:"status"`
	CreditScore int                   `json:"credit_score"`
}

type statusRequest struct {
	Status domain.CustomerStatus `json:"status"`
}

type blacklistRequest struct {
	Blacklisted bool `json:"blacklisted"`
}

type riskOverrideRequest struct {
	RiskScore *float64 `json:"risk_score"`
}

type riskResponse struct {
	CustomerID string  `json:"customer_id"`
	Known      bool    `json:"known"`
	RiskScore  float64 `json:"risk_score"`
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Items.List())
}

type itemResponse struct {
	domain.Item
	CurrentValue float64 `json:"current_value"`
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	item, ok := h.deps.Items.Get(id)
	if !ok {
		writeError(w, r, fmt.Errorf("item %s: %w", id, domain.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, itemResponse{Item: item, CurrentValue: h.deps.Pricing.CurrentValue(item)})
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Condition != "" && !req.Condition.Valid() {
		writeError(w, r, fmt.Errorf("unknown condition %q: %w", req.Condition, domain.ErrInvalidRequest))
		return
	}

	item, err := h.deps.Catalog.AddItem(r.Context(), domain.Item{
		ID:              req.ID,
		Name:            req.Name,
		Category:        req.Category,
		BasePricePerDay: req.BasePricePerDay,
		Condition:       req.Condition,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) UpdateItemCondition(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req conditionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if !req.Condition.Valid() {
		writeError(w, r, fmt.Errorf("unknown condition %q: %w", req.Condition, domain.ErrInvalidRequest))
		return
	}

	if err := h.deps.Catalog.UpdateItemCondition(r.Context(), id, req.Condition); err != nil {
		writeError(w, r, err)
		return
	}
	item, _ := h.deps.Items.Get(id)
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	var req registerCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.deps.Catalog.RegisterCustomer(r.Context(), domain.Customer{
		ID:          req.ID,
		Name:        req.Name,
		Email:       req.Email,
		Status:      req.Status,
		CreditScore: req.CreditScore,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) UpdateCustomerStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.deps.Catalog.UpdateCustomerStatus(r.Context(), id, req.Status); err != nil {
		writeError(w, r, err)
		return
	}
	c, _ := h.deps.Customers.Get(id)
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) SetBlacklisted(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req blacklistRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.deps.Catalog.SetBlacklisted(r.Context(), id, req.Blacklisted); err != nil {
		writeError(w, r, err)
		return
	}
	c, _ := h.deps.Customers.Get(id)
	writeJSON(w, http.StatusOK, c)
}

// CustomerRisk answers for unknown customers too; they score maximum risk.
func (h *Handler) CustomerRisk(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	_, known := h.deps.Customers.Get(id)
	writeJSON(w, http.StatusOK, riskResponse{
		CustomerID: id,
		Known:      known,
		RiskScore:  h.deps.Customers.RiskScore(id),
	})
}

// SetCustomerRisk pins a manual risk score until it is cleared.
func (h *Handler) SetCustomerRisk(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req riskOverrideRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.RiskScore == nil || *req.RiskScore < 0 || *req.RiskScore > 1 {
		writeError(w, r, fmt.Errorf("risk_score must be between 0 and 1: %w", domain.ErrInvalidRequest))
		return
	}
	if _, ok := h.deps.Customers.Get(id); !ok {
		writeError(w, r, fmt.Errorf("customer %s: %w", id, domain.ErrNotFound))
		return
	}
	if err := h.deps.Customers.SetRiskScore(id, *req.RiskScore); err != nil {
		writeError(w, r, err)
		return
	}
	h.CustomerRisk(w, r)
}

// ClearCustomerRisk drops a manual override; the computed score applies again.
func (h *Handler) ClearCustomerRisk(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := h.deps.Customers.Get(id); !ok {
		writeError(w, r, fmt.Errorf("customer %s: %w", id, domain.ErrNotFound))
		return
	}
	h.deps.Customers.ClearRiskScore(id)
	h.CustomerRisk(w, r)
}
