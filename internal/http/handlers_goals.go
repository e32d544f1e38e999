package http

import (
	"net/http"

	"takatrack/internal/ledger"
)

type goalRequest struct {
	Name         string  `json:"name"`
	TargetAmount float64 `json:"targetAmount"`
	Note         string  `json:"note"`
	Image        string  `json:"image"`
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.ledger.Goals())
}

func (s *Server) handleAddGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	goal, err := s.ledger.AddGoal(r.Context(), ledger.GoalInput{
		Name:         req.Name,
		TargetAmount: req.TargetAmount,
		Note:         req.Note,
		Image:        req.Image,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, goal)
}

func (s *Server) handleEditGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	goal, err := s.ledger.EditGoal(r.Context(), r.PathValue("id"), ledger.GoalInput{
		Name:         req.Name,
		TargetAmount: req.TargetAmount,
		Note:         req.Note,
		Image:        req.Image,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, goal)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteGoal(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

// handleContribute moves money into a goal, taken either from the active
// month's leftover or from the savings pool.
func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount float64 `json:"amount"`
		Source string  `json:"source"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	source, err := ledger.ParseSource(req.Source)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	goal, err := s.ledger.ContributeToGoal(r.Context(), r.PathValue("id"), req.Amount, source)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, goal)
}
