package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"financas/internal/core"
)

// ReserveMovementResponse is returned after a reserve deposit or withdrawal.
type ReserveMovementResponse struct {
	Movement core.ReserveTransaction `json:"movement"`
	Reserve  core.Reserve            `json:"reserve"`
}

// GoalMovementResponse is returned after a goal deposit or withdrawal.
type GoalMovementResponse struct {
	Movement core.GoalTransaction `json:"movement"`
	Goal     core.FinancialGoal   `json:"goal"`
}

// recordChild decodes In from the body and records it under the {id} parent.
func recordChild[In, Out any](record func(ctx context.Context, householdID, parentID uuid.UUID, in In) (Out, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hh, err := household(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		parentID, err := parseID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var in In
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		out, err := record(r.Context(), hh.ID, parentID, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

// listChildren lists the records of the {id} parent.
func listChildren[Out any](list func(ctx context.Context, householdID, parentID uuid.UUID) ([]Out, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hh, err := household(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		parentID, err := parseID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		out, err := list(r.Context(), hh.ID, parentID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(out))
	}
}

func (s *Server) recordReserveMovement(ctx context.Context, householdID, reserveID uuid.UUID, m core.Movement) (ReserveMovementResponse, error) {
	tx, reserve, err := s.svc.RecordReserveMovement(ctx, householdID, reserveID, m)
	if err != nil {
		return ReserveMovementResponse{}, err
	}
	return ReserveMovementResponse{Movement: tx, Reserve: reserve}, nil
}

func (s *Server) recordGoalMovement(ctx context.Context, householdID, goalID uuid.UUID, m core.Movement) (GoalMovementResponse, error) {
	tx, goal, err := s.svc.RecordGoalMovement(ctx, householdID, goalID, m)
	if err != nil {
		return GoalMovementResponse{}, err
	}
	return GoalMovementResponse{Movement: tx, Goal: goal}, nil
}
