package http

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"rental-engine-backend/internal/domain"
	"rental-engine-backend/internal/service"
	"rental-engine-backend/internal/utils"
)

type createRentalRequest struct {
	CustomerID   string `json:"customer_id"`
	ItemID       string `json:"item_id"`
	DurationDays int    `json:"duration_days"`
	Insurance    bool   `json:"insurance"`
	// StartDate is YYYY-MM-DD. Empty means now.
	StartDate string `json:"start_date,omitempty"`
}

type returnRequest struct {
	Condition domain.ItemCondition `json:"condition"`
}

type returnResponse struct {
	Returned  bool              `json:"returned"`
	Agreement *domain.Agreement `json:"agreement,omitempty"`
}

type chargeRequest struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

func (h *Handler) CreateRental(w http.ResponseWriter, r *http.Request) {
	var req createRentalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.CustomerID == "" || req.ItemID == "" {
		writeError(w, r, fmt.Errorf("customer_id and item_id are required: %w", domain.ErrInvalidRequest))
		return
	}

	var opts []service.RentalOption
	if req.Insurance {
		opts = append(opts, service.WithInsurance())
	}
	if req.StartDate != "" {
		start, err := utils.ParseDate(req.StartDate)
		if err != nil {
			writeError(w, r, fmt.Errorf("start_date: %v: %w", err, domain.ErrInvalidRequest))
			return
		}
		opts = append(opts, service.WithStartDate(start))
	}

	agreement, err := h.deps.Rentals.ProcessRental(r.Context(), req.CustomerID, req.ItemID, req.DurationDays, opts...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, agreement)
}

// GetRental serves active agreements from memory and falls back to the
// repository for closed ones.
func (h *Handler) GetRental(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if a, ok := h.deps.Rentals.ActiveAgreement(id); ok {
		writeJSON(w, http.StatusOK, a)
		return
	}
	if h.deps.Agreements == nil {
		writeError(w, r, fmt.Errorf("agreement %s: %w", id, domain.ErrNotFound))
		return
	}
	a, err := h.deps.Agreements.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) ReturnRental(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req returnRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	// An unknown agreement answers returned=false whatever the condition.
	if _, ok := h.deps.Rentals.ActiveAgreement(id); !ok {
		writeJSON(w, http.StatusNotFound, returnResponse{Returned: false})
		return
	}
	if !req.Condition.Valid() {
		writeError(w, r, fmt.Errorf("unknown condition %q: %w", req.Condition, domain.ErrInvalidRequest))
		return
	}

	returned, err := h.deps.Rentals.ProcessReturn(r.Context(), id, req.Condition)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !returned {
		writeJSON(w, http.StatusNotFound, returnResponse{Returned: false})
		return
	}

	resp := returnResponse{Returned: true}
	if h.deps.Agreements != nil {
		if a, err := h.deps.Agreements.GetByID(r.Context(), id); err == nil {
			resp.Agreement = a
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) AddCharge(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req chargeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.deps.Rentals.AddCharge(r.Context(), id, req.Description, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) ListOverdue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Rentals.OverdueAgreements(h.deps.Clock()))
}

func (h *Handler) CustomerRentals(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	history, err := h.deps.Rentals.RentalHistory(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if history == nil {
		history = []domain.Agreement{}
	}
	writeJSON(w, http.StatusOK, history)
}
