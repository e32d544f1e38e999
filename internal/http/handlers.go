package http

import (
	"net/http"
	"strconv"
	"time"

	"takatrack/internal/core"
	"takatrack/internal/ledger"
)

// handleState returns the full aggregate snapshot the frontend renders from.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.ledger.Snapshot())
}

// handleMetrics returns derived metrics for one month. Without a month query
// parameter the active month is used. Closed months are immutable and served
// from the cache.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("month")

	var id core.MonthID
	if raw == "" {
		id, _ = s.ledger.ActiveMonth()
	} else {
		parsed, err := core.ParseMonthID(raw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		id = parsed
	}

	rec, ok := s.ledger.Month(id)
	if !ok {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "no record for month " + string(id)})
		return
	}

	if !rec.IsOpen {
		if m, hit := s.metricsCache.Get(string(id)); hit {
			s.writeJSON(w, http.StatusOK, m)
			return
		}
	}

	m, err := s.ledger.MetricsFor(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !rec.IsOpen {
		s.metricsCache.Set(string(id), m)
	}
	s.writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleSetIncome(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.ledger.SetIncome(r.Context(), req.Amount); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]float64{"income": req.Amount})
}

func (s *Server) handleAdjustIncome(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delta float64 `json:"delta"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	income, err := s.ledger.AdjustIncome(r.Context(), req.Delta)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]float64{"income": income})
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount       float64 `json:"amount"`
		Category     string  `json:"category"`
		Date         string  `json:"date"`
		Note         string  `json:"note"`
		SaveTemplate bool    `json:"saveTemplate"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	tx, err := s.ledger.AddExpense(r.Context(), ledger.ExpenseInput{
		Amount:       req.Amount,
		Category:     req.Category,
		Date:         req.Date,
		Note:         req.Note,
		SaveTemplate: req.SaveTemplate,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, tx)
}

// handleDeleteExpense schedules a deferred delete and reports when it will
// become final. Until then the delete can be undone with a restore call.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseTxID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	expires, err := s.ledger.DeleteExpense(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, struct {
		ID        int64     `json:"id"`
		ExpiresAt time.Time `json:"expiresAt"`
	}{ID: id, ExpiresAt: expires})
}

func (s *Server) handleRestoreExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseTxID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !s.ledger.CancelDelete(r.Context(), id) {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "no pending delete for transaction"})
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.ledger.Templates())
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteTemplate(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

// handleCloseMonth freezes the active month and opens the next one. The
// cache entry for the newly opened month is dropped in case a previously
// closed record was reopened.
func (s *Server) handleCloseMonth(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Carryover bool `json:"carryover"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.ledger.CloseMonth(r.Context(), req.Carryover)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metricsCache.Delete(string(res.NewMonth))
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]core.Theme{"theme": s.ledger.Theme()})
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Theme string `json:"theme"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	theme, err := core.ParseTheme(req.Theme)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.ledger.SetTheme(r.Context(), theme); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]core.Theme{"theme": theme})
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	theme := s.ledger.ToggleTheme(r.Context())
	s.writeJSON(w, http.StatusOK, map[string]core.Theme{"theme": theme})
}

func parseTxID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, core.ErrNoSuchTransaction
	}
	return id, nil
}
