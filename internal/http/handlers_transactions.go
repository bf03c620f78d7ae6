package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"gagyebu/internal/core"
	"gagyebu/internal/services"
)

type transactionRequest struct {
	Date              string      `json:"date"`
	Kind              core.Kind   `json:"kind"`
	Category          string      `json:"category"`
	Label             string      `json:"label"`
	Amount            amountField `json:"amount"`
	Note              string      `json:"note"`
	PaymentInstrument string      `json:"paymentInstrument"`
	PaymentMethod     string      `json:"paymentMethod"`
}

func (req transactionRequest) transaction(owner, id string) (core.Transaction, error) {
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:                id,
		OwnerID:           owner,
		Date:              date,
		Kind:              req.Kind,
		Category:          req.Category,
		Label:             req.Label,
		Amount:            int64(req.Amount),
		Note:              req.Note,
		PaymentInstrument: req.PaymentInstrument,
		PaymentMethod:     req.PaymentMethod,
	}, nil
}

type confirmRequest struct {
	Confirm bool `json:"confirm"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := req.transaction(owner, "")
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.deps.Transactions.Create(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := req.transaction(owner, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.deps.Transactions.Update(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Transactions.Delete(r.Context(), owner, mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetMonth(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	k, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req confirmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	n, err := s.deps.Transactions.ResetMonth(r.Context(), owner, k, services.ResetOptions{Confirmed: req.Confirm})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"monthKey": k, "deleted": n})
}

func (s *Server) handleResetAll(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req confirmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	n, err := s.deps.Transactions.ResetAll(r.Context(), owner, services.ResetOptions{Confirmed: req.Confirm})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": n})
}
