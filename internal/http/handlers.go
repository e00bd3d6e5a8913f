package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"khata/internal/core"
	"khata/internal/store"
)

type transactionDTO struct {
	ID     string `json:"id"`
	Date   string `json:"date"`
	Amount string `json:"amount"`
	Note   string `json:"note,omitempty"`
	Tag    string `json:"tag"`
	Type   string `json:"type"`
}

type tagTotalDTO struct {
	Tag   string `json:"tag"`
	Total string `json:"total"`
}

type summaryResponse struct {
	Month      int              `json:"month"`
	Year       int              `json:"year"`
	Balance    string           `json:"balance"`
	Income     string           `json:"income"`
	Expense    string           `json:"expense"`
	Investment string           `json:"investment"`
	Budget     string           `json:"budget"`
	DaysLeft   int              `json:"days_left"`
	TagTotals  []tagTotalDTO    `json:"tag_totals"`
	History    []transactionDTO `json:"history"`
}

type reminderDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Amount    string `json:"amount"`
	Day       int    `json:"day"`
	Frequency string `json:"frequency"`
	Tag       string `json:"tag"`
	Type      string `json:"type"`
}

func toTransactionDTO(tx core.Transaction) transactionDTO {
	return transactionDTO{
		ID:     tx.ID,
		Date:   tx.Date.String(),
		Amount: tx.Amount.Decimal(),
		Note:   tx.Note,
		Tag:    tx.Tag,
		Type:   string(tx.Type),
	}
}

func toReminderDTO(r core.Reminder) reminderDTO {
	return reminderDTO{
		ID:        r.ID,
		Name:      r.Name,
		Amount:    r.Amount.Decimal(),
		Day:       r.Day,
		Frequency: r.Frequency,
		Tag:       r.Tag,
		Type:      string(r.Type),
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	month, year := parsePeriod(r)
	search := sanitizeInput(r.URL.Query().Get("search"))

	sum, err := s.service.GetSummary(r.Context(), search, month, year)
	if err != nil {
		serviceError(w, r, err)
		return
	}

	resp := summaryResponse{
		Month:      int(sum.Month),
		Year:       sum.Year,
		Balance:    sum.Balance.Decimal(),
		Income:     sum.Income.Decimal(),
		Expense:    sum.Expense.Decimal(),
		Investment: sum.Investment.Decimal(),
		Budget:     sum.Budget.Decimal(),
		DaysLeft:   sum.DaysLeft,
		TagTotals:  make([]tagTotalDTO, 0, len(sum.TagTotals)),
		History:    make([]transactionDTO, 0, len(sum.History)),
	}
	for _, tt := range sum.TagTotals {
		resp.TagTotals = append(resp.TagTotals, tagTotalDTO{Tag: tt.Tag, Total: tt.Amount.Decimal()})
	}
	for _, tx := range sum.History {
		resp.History = append(resp.History, toTransactionDTO(tx))
	}

	writeJSON(w, r, http.StatusOK, resp)
}

type createTransactionRequest struct {
	Date   string `json:"date"`
	Amount string `json:"amount"`
	Type   string `json:"type"`
	Tag    string `json:"tag"`
	Note   string `json:"note"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.service.AddTransaction(r.Context(), core.TransactionInput{
		Date:   sanitizeInput(req.Date),
		Amount: sanitizeInput(req.Amount),
		Type:   sanitizeInput(req.Type),
		Tag:    sanitizeInput(req.Tag),
		Note:   sanitizeInput(req.Note),
	})
	if err != nil {
		serviceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	reminders, err := s.service.Reminders(r.Context())
	if err != nil {
		serviceError(w, r, err)
		return
	}

	resp := make([]reminderDTO, 0, len(reminders))
	for _, rem := range reminders {
		resp = append(resp, toReminderDTO(rem))
	}
	writeJSON(w, r, http.StatusOK, resp)
}

type createReminderRequest struct {
	Name      string `json:"name"`
	Amount    string `json:"amount"`
	Day       int    `json:"day"`
	Frequency string `json:"frequency"`
	Type      string `json:"type"`
	Tag       string `json:"tag"`
}

func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	var req createReminderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.service.AddReminder(r.Context(), core.ReminderInput{
		Name:      sanitizeInput(req.Name),
		Amount:    sanitizeInput(req.Amount),
		Day:       strconv.Itoa(req.Day),
		Frequency: sanitizeInput(req.Frequency),
		Type:      sanitizeInput(req.Type),
		Tag:       sanitizeInput(req.Tag),
	})
	if err != nil {
		serviceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteReminder(r.Context(), r.PathValue("id")); err != nil {
		serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePayReminder(w http.ResponseWriter, r *http.Request) {
	txID, err := s.service.PayReminder(r.Context(), r.PathValue("id"))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, map[string]string{"transaction_id": txID})
}

func (s *Server) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	var def string
	switch key {
	case store.KeyBudget:
		def = store.DefaultBudget
	case store.KeyPIN:
		// The PIN is never readable over the API.
		writeError(w, r, http.StatusForbidden, "setting not readable")
		return
	}

	value, err := s.service.GetSetting(r.Context(), key, def)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"key": key, "value": value})
}

type setValueRequest struct {
	Value string `json:"value"`
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req setValueRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.service.SetBudget(r.Context(), sanitizeInput(req.Value)); err != nil {
		serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetPIN(w http.ResponseWriter, r *http.Request) {
	var req setValueRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.service.SetPIN(r.Context(), req.Value); err != nil {
		serviceError(w, r, err)
		return
	}
	slog.InfoContext(r.Context(), "PIN updated")
	w.WriteHeader(http.StatusNoContent)
}

type verifyRequest struct {
	PIN string `json:"pin"`
}

func (s *Server) handleVerifyPIN(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	ok, err := s.service.VerifyPIN(r.Context(), req.PIN)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "invalid pin")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"valid": true})
}
