package http

import (
	"net/http"

	"caixa/internal/core"
)

// mutated drops every cached read-only view after a successful
// mutation; carryover means a change in one month can ripple forward.
func (s *Server) mutated() {
	s.views.Purge()
}

func (s *Server) handleCurrentMonth(w http.ResponseWriter, r *http.Request) {
	snap, err := s.ledger.Snapshot()
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

type changeMonthRequest struct {
	Delta int `json:"delta"`
}

func (s *Server) handleChangeMonth(w http.ResponseWriter, r *http.Request) {
	var req changeMonthRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	snap, err := s.ledger.ChangeMonth(r.Context(), req.Delta)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	s.mutated()
	respondJSON(w, http.StatusOK, snap)
}

type jumpMonthRequest struct {
	Month string `json:"month"`
}

func (s *Server) handleJumpMonth(w http.ResponseWriter, r *http.Request) {
	var req jumpMonthRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	key, err := core.ParseMonthKey(req.Month)
	if err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	snap, err := s.ledger.JumpTo(r.Context(), key)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	s.mutated()
	respondJSON(w, http.StatusOK, snap)
}

// handleMonthSummary serves a read-only view of any month without
// moving the cursor. Views are cached briefly; mutations purge them.
func (s *Server) handleMonthSummary(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		raw = string(core.CurrentMonthKey())
	}
	key, err := core.ParseMonthKey(raw)
	if err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if snap, ok := s.views.Get(string(key)); ok {
		respondJSON(w, http.StatusOK, snap)
		return
	}
	snap, err := s.ledger.MonthView(r.Context(), key)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	s.views.Set(string(key), snap)
	respondJSON(w, http.StatusOK, snap)
}

type openingCashRequest struct {
	Amount string `json:"amount"`
}

func (s *Server) handleSetOpeningCash(w http.ResponseWriter, r *http.Request) {
	var req openingCashRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := parseOptionalMoney(req.Amount)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if err := s.ledger.SetOpeningCash(r.Context(), amount); err != nil {
		respondServiceError(w, r, err)
		return
	}
	s.mutated()
	s.respondSnapshot(w, r)
}

type entryRequest struct {
	Date       string  `json:"date"`
	Platform   string  `json:"platform"`
	Gross      string  `json:"gross"`
	DistanceKm float64 `json:"distanceKm"`
	Hours      float64 `json:"hours"`
	FuelCost   string  `json:"fuelCost"`
	OtherCost  string  `json:"otherCost"`
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	gross, err := parseMoney(req.Gross)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	fuel, err := parseOptionalMoney(req.FuelCost)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	other, err := parseOptionalMoney(req.OtherCost)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	entry, err := s.ledger.SubmitEntry(r.Context(), core.Entry{
		Date:       date,
		Platform:   sanitizeInput(req.Platform),
		Gross:      gross,
		DistanceKm: req.DistanceKm,
		Hours:      req.Hours,
		FuelCost:   fuel,
		OtherCost:  other,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	s.mutated()
	respondJSON(w, http.StatusCreated, entry)
}

type variableExpenseRequest struct {
	Date        string         `json:"date"`
	Category    string         `json:"category"`
	Description string         `json:"description"`
	Payment     paymentRequest `json:"payment"`
	Value       string         `json:"value"`
}

func (s *Server) handleCreateVariableExpense(w http.ResponseWriter, r *http.Request) {
	var req variableExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	payment, err := req.Payment.toDomain()
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	value, err := parseMoney(req.Value)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	expense, err := s.ledger.SubmitVariableExpense(r.Context(), core.VariableExpense{
		Date:        date,
		Category:    sanitizeInput(req.Category),
		Description: sanitizeInput(req.Description),
		Payment:     payment,
		Value:       value,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	s.mutated()
	respondJSON(w, http.StatusCreated, expense)
}

type fixedExpenseRequest struct {
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Payment     paymentRequest `json:"payment"`
	Value       string         `json:"value"`
}

func (s *Server) handleCreateSingleFixed(w http.ResponseWriter, r *http.Request) {
	var req fixedExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	payment, err := req.Payment.toDomain()
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	value, err := parseMoney(req.Value)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	inst, err := s.ledger.SubmitSingleFixedExpense(r.Context(), core.FixedExpenseInstance{
		Description: sanitizeInput(req.Description),
		Category:    sanitizeInput(req.Category),
		Payment:     payment,
		Value:       value,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	s.mutated()
	respondJSON(w, http.StatusCreated, inst)
}

func (s *Server) handleTogglePaid(w http.ResponseWriter, r *http.Request) {
	paid, err := s.ledger.TogglePaid(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	s.mutated()
	respondJSON(w, http.StatusOK, map[string]bool{"isPaid": paid})
}

type instanceValueRequest struct {
	Value string `json:"value"`
}

func (s *Server) handleEditInstanceValue(w http.ResponseWriter, r *http.Request) {
	var req instanceValueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	value, err := parseMoney(req.Value)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if err := s.ledger.EditInstanceValue(r.Context(), r.PathValue("id"), value); err != nil {
		respondServiceError(w, r, err)
		return
	}
	s.mutated()
	s.respondSnapshot(w, r)
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.RemoveItem(r.Context(), r.PathValue("id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	s.mutated()
	s.respondSnapshot(w, r)
}

type planRequest struct {
	Description       string         `json:"description"`
	Category          string         `json:"category"`
	Payment           paymentRequest `json:"payment"`
	Value             string         `json:"value"`
	Recurrence        string         `json:"recurrence"`
	TotalInstallments int            `json:"totalInstallments"`
	StartMonth        string         `json:"startMonth"`
	DueDay            int            `json:"dueDay"`
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.ledger.Registry().Plans(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, plans)
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	payment, err := req.Payment.toDomain()
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	value, err := parseMoney(req.Value)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	startMonth, err := core.ParseMonthKey(req.StartMonth)
	if err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	plan, err := s.ledger.SubmitPlan(r.Context(), core.MasterPlan{
		Description:       sanitizeInput(req.Description),
		Category:          sanitizeInput(req.Category),
		Payment:           payment,
		Value:             value,
		Recurrence:        core.Recurrence(req.Recurrence),
		TotalInstallments: req.TotalInstallments,
		StartMonth:        startMonth,
		DueDay:            req.DueDay,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	s.mutated()
	respondJSON(w, http.StatusCreated, plan)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeletePlan(r.Context(), r.PathValue("id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	s.mutated()
	s.respondSnapshot(w, r)
}

type cardSpecRequest struct {
	CardID            string `json:"cardId"`
	Description       string `json:"description"`
	TotalValue        string `json:"totalValue"`
	TotalInstallments int    `json:"totalInstallments"`
	StartMonth        string `json:"startMonth"`
	DueDay            int    `json:"dueDay"`
}

func (s *Server) handleListCardSpecs(w http.ResponseWriter, r *http.Request) {
	specs, err := s.ledger.Registry().CardSpecs(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, specs)
}

func (s *Server) handleCreateCardSpec(w http.ResponseWriter, r *http.Request) {
	var req cardSpecRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	total, err := parseMoney(req.TotalValue)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	startMonth, err := core.ParseMonthKey(req.StartMonth)
	if err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	spec, err := s.ledger.SubmitCardSpec(r.Context(), core.CardSpec{
		CardID:            sanitizeInput(req.CardID),
		Description:       sanitizeInput(req.Description),
		TotalValue:        total,
		TotalInstallments: req.TotalInstallments,
		StartMonth:        startMonth,
		DueDay:            req.DueDay,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	s.mutated()
	respondJSON(w, http.StatusCreated, spec)
}

func (s *Server) handleDeleteCardSpec(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.RemoveCardSpec(r.Context(), r.PathValue("id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	s.mutated()
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleSetCardOpening(w http.ResponseWriter, r *http.Request) {
	var req openingCashRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := parseOptionalMoney(req.Amount)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if err := s.ledger.SetCardOpeningBalance(r.Context(), r.PathValue("id"), amount); err != nil {
		respondServiceError(w, r, err)
		return
	}
	s.mutated()
	s.respondSnapshot(w, r)
}

// respondSnapshot returns the open month after a mutation so the UI can
// refresh without a second request.
func (s *Server) respondSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.ledger.Snapshot()
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}
