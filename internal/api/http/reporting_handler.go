package http

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"rental-engine-backend/internal/domain"
	"rental-engine-backend/internal/pricing"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

type ledgerEntriesResponse struct {
	Entries  []domain.LedgerEntry `json:"entries"`
	Total    int32                `json:"total"`
	Page     int32                `json:"page"`
	PageSize int32                `json:"page_size"`
}

func (h *Handler) LedgerSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Rentals.Ledger())
}

func (h *Handler) LedgerEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := intParam(q.Get("page"), 1)
	if err != nil || page < 1 {
		writeError(w, r, fmt.Errorf("page must be a positive integer: %w", domain.ErrInvalidRequest))
		return
	}
	pageSize, err := intParam(q.Get("page_size"), defaultPageSize)
	if err != nil || pageSize < 1 || pageSize > maxPageSize {
		writeError(w, r, fmt.Errorf("page_size must be between 1 and %d: %w", maxPageSize, domain.ErrInvalidRequest))
		return
	}
	if int64(page)*int64(pageSize) > math.MaxInt32 {
		writeError(w, r, fmt.Errorf("page %d is out of range: %w", page, domain.ErrInvalidRequest))
		return
	}

	entries, total, err := h.deps.Ledger.ListEntries(r.Context(), int32(page), int32(pageSize))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}
	writeJSON(w, http.StatusOK, ledgerEntriesResponse{
		Entries:  entries,
		Total:    total,
		Page:     int32(page),
		PageSize: int32(pageSize),
	})
}

func (h *Handler) Utilization(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Items.UtilizationByCategory())
}

// Quote prices a hypothetical rental. Season defaults to today's season and
// customer_type to NEW.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := domain.ItemCategory(q.Get("category"))
	if !category.Valid() {
		writeError(w, r, fmt.Errorf("unknown category %q: %w", category, domain.ErrInvalidRequest))
		return
	}
	days, err := strconv.Atoi(q.Get("days"))
	if err != nil || days < 1 {
		writeError(w, r, fmt.Errorf("days must be a positive integer: %w", domain.ErrInvalidRequest))
		return
	}
	season := pricing.SeasonFor(h.deps.Clock())
	if s := q.Get("season"); s != "" {
		parsed, ok := pricing.ParseSeason(s)
		if !ok {
			writeError(w, r, fmt.Errorf("unknown season %q: %w", s, domain.ErrInvalidRequest))
			return
		}
		season = parsed
	}
	customerType, ok := customerTypeParam(q.Get("customer_type"))
	if !ok {
		writeError(w, r, fmt.Errorf("unknown customer_type %q: %w", q.Get("customer_type"), domain.ErrInvalidRequest))
		return
	}

	writeJSON(w, http.StatusOK, h.deps.Pricing.Quote(category, days, season, customerType))
}

func (h *Handler) LateFee(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := domain.ItemCategory(q.Get("category"))
	if !category.Valid() {
		writeError(w, r, fmt.Errorf("unknown category %q: %w", category, domain.ErrInvalidRequest))
		return
	}
	dailyRate, err := strconv.ParseFloat(q.Get("daily_rate"), 64)
	if err != nil || dailyRate < 0 {
		writeError(w, r, fmt.Errorf("daily_rate must be a non-negative number: %w", domain.ErrInvalidRequest))
		return
	}
	lateDays, err := strconv.Atoi(q.Get("late_days"))
	if err != nil || lateDays < 0 {
		writeError(w, r, fmt.Errorf("late_days must be a non-negative integer: %w", domain.ErrInvalidRequest))
		return
	}
	customerType, ok := customerTypeParam(q.Get("customer_type"))
	if !ok {
		writeError(w, r, fmt.Errorf("unknown customer_type %q: %w", q.Get("customer_type"), domain.ErrInvalidRequest))
		return
	}

	writeJSON(w, http.StatusOK, h.deps.Fees.Breakdown(category, dailyRate, lateDays, customerType))
}

func customerTypeParam(s string) (domain.CustomerStatus, bool) {
	if s == "" {
		return domain.CustomerStatusNew, true
	}
	status := domain.CustomerStatus(s)
	return status, status.Valid() && status != domain.CustomerStatusBlacklisted
}

func intParam(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}
