package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"gagyebu/internal/core"
	"gagyebu/internal/services"
)

type fixedItemRequest struct {
	Group             string      `json:"group"`
	Name              string      `json:"name"`
	Amount            amountField `json:"amount"`
	Kind              core.Kind   `json:"kind"`
	Note              string      `json:"note"`
	PaymentInstrument string      `json:"paymentInstrument"`
	PaymentMethod     string      `json:"paymentMethod"`
}

func (req fixedItemRequest) fields() core.FixedItemFields {
	return core.FixedItemFields{
		Group:             req.Group,
		Name:              req.Name,
		Amount:            int64(req.Amount),
		Kind:              req.Kind,
		Note:              req.Note,
		PaymentInstrument: req.PaymentInstrument,
		PaymentMethod:     req.PaymentMethod,
	}
}

type resetHistoryRequest struct {
	Cutover string `json:"cutover"`
	Confirm bool   `json:"confirm"`
}

func (s *Server) handleListFixedItems(w http.ResponseWriter, r *http.Request) {
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
	active, err := s.deps.FixedItems.ActiveFor(r.Context(), owner, k)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if active == nil {
		active = []core.FixedItemVersion{}
	}
	writeJSON(w, http.StatusOK, active)
}

// handleCreateFixedItem starts a recurring item at the month in the path.
func (s *Server) handleCreateFixedItem(w http.ResponseWriter, r *http.Request) {
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
	var req fixedItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.deps.FixedItems.Create(r.Context(), owner, req.fields(), k)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// handleUpdateFixedItem edits an item as seen from the month in the path;
// earlier months keep their amounts.
func (s *Server) handleUpdateFixedItem(w http.ResponseWriter, r *http.Request) {
	existing, k, ok := s.selectedVersion(w, r)
	if !ok {
		return
	}
	var req fixedItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.deps.FixedItems.Update(r.Context(), existing, req.fields(), k)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleRemoveFixedItem(w http.ResponseWriter, r *http.Request) {
	existing, k, ok := s.selectedVersion(w, r)
	if !ok {
		return
	}
	if err := s.deps.FixedItems.Remove(r.Context(), existing, k); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// selectedVersion loads the version named in the path for the session owner.
// It writes the error response itself and reports false on failure.
func (s *Server) selectedVersion(w http.ResponseWriter, r *http.Request) (core.FixedItemVersion, core.MonthKey, bool) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return core.FixedItemVersion{}, "", false
	}
	k, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return core.FixedItemVersion{}, "", false
	}
	v, err := s.deps.FixedItems.Get(r.Context(), owner, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return core.FixedItemVersion{}, "", false
	}
	return v, k, true
}

func (s *Server) handleResetHistory(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req resetHistoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.deps.FixedItems.ResetHistory(r.Context(), owner, core.MonthKey(req.Cutover), services.ResetOptions{Confirmed: req.Confirm})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
