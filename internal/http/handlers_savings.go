package http

import (
	"net/http"

	"takatrack/internal/core"
)

type savingsResponse struct {
	Balance float64             `json:"balance"`
	History []core.SavingsEntry `json:"history,omitempty"`
}

func (s *Server) handleGetSavings(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, savingsResponse{
		Balance: s.ledger.Savings(),
		History: s.ledger.SavingsHistory(),
	})
}

// handleSetSavings replaces the savings balance outright. Negative values
// are rejected rather than clamped.
func (s *Server) handleSetSavings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value float64 `json:"value"`
		Note  string  `json:"note"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.ledger.SetSavings(r.Context(), req.Value, req.Note); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, savingsResponse{Balance: req.Value})
}

func (s *Server) handleAdjustSavings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delta float64 `json:"delta"`
		Note  string  `json:"note"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	balance, err := s.ledger.AdjustSavings(r.Context(), req.Delta, req.Note)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, savingsResponse{Balance: balance})
}

func (s *Server) handleBorrowSavings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount float64 `json:"amount"`
		Note   string  `json:"note"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	balance, err := s.ledger.BorrowFromSavings(r.Context(), req.Amount, req.Note)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, savingsResponse{Balance: balance})
}
