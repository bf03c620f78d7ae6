package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"gagyebu/internal/core"
)

const maxComparisonWindow = 24

func monthParam(r *http.Request) (core.MonthKey, error) {
	return core.ParseMonthKey(mux.Vars(r)["month"])
}

func (s *Server) handleMonthView(w http.ResponseWriter, r *http.Request) {
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
	view, err := s.deps.Ledger.MonthView(r.Context(), owner, k)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
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
	window := 0
	if v := strings.TrimSpace(r.URL.Query().Get("window")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxComparisonWindow {
			writeJSON(w, http.StatusUnprocessableEntity, errorBody{
				Error: "window must be between 1 and " + strconv.Itoa(maxComparisonWindow),
				Field: "window",
			})
			return
		}
		window = n
	}
	series, err := s.deps.Ledger.Comparison(r.Context(), owner, k.Year(), k.Month(), window)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"monthKey": k, "months": series})
}

type vocabulary struct {
	Categories         map[core.Kind][]string `json:"categories"`
	PaymentInstruments []string               `json:"paymentInstruments"`
	PaymentMethods     []string               `json:"paymentMethods"`
}

func handleVocabulary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	writeJSON(w, http.StatusOK, vocabulary{
		Categories:         core.Categories,
		PaymentInstruments: core.PaymentInstruments,
		PaymentMethods:     core.PaymentMethods,
	})
}
