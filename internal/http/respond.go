package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode"

	"gagyebu/internal/core"
	"gagyebu/internal/log"
)

const (
	maxBodyBytes = 64 << 10

	// maxStoreMessage caps how much of a store error reaches the client.
	maxStoreMessage = 200
)

type errorBody struct {
	Error     string `json:"error"`
	Field      string `json:"field,omitempty"`
	Operation  string `json:"operation,omitempty"`
	Collection string `json:"collection,omitempty"`
	Committed  *int   `json:"committed,omitempty"`
	Total      *int   `json:"total,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeError maps a service error onto a status code. Store failures are
// logged and reported with the store's message, trimmed to one short line.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *core.ValidationError
		pf *core.PartialBatchFailure
		pe *core.PersistenceError
	)
	switch {
	case errors.Is(err, core.ErrSignedOut):
		unauthorized(w, "signed out")
	case errors.As(err, &pf):
		log.FromContext(r.Context()).Error("Bulk operation partially applied",
			log.FieldOperation, pf.Op,
			log.FieldCommitted, pf.Committed,
			log.FieldTotal, pf.Total,
			log.FieldError, pf.Err)
		committed, total := pf.Committed, pf.Total
		writeJSON(w, http.StatusMultiStatus, errorBody{
			Error:     fmt.Sprintf("%s: %d of %d chunks committed; retry to finish", pf.Op, committed, total),
			Committed: &committed,
			Total:     &total,
		})
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: ve.Err.Error(), Field: ve.Field})
	case errors.Is(err, core.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, core.ErrConfirmationRequired):
		writeMessage(w, http.StatusPreconditionRequired, err.Error())
	case errors.As(err, &pe):
		log.FromContext(r.Context()).Error("Store operation failed",
			log.FieldOperation, pe.Op,
			log.FieldCollection, pe.Collection,
			log.FieldError, pe.Err)
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Error:      storeMessage(pe.Err),
			Operation:  pe.Op,
			Collection: pe.Collection,
		})
	default:
		log.FromContext(r.Context()).Error("Request failed", log.FieldError, err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

// storeMessage reduces a store error to its first line, without control
// characters and capped at maxStoreMessage runes.
func storeMessage(err error) string {
	if err == nil {
		return "store error"
	}
	msg, _, _ := strings.Cut(err.Error(), "\n")
	msg = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(msg))
	if runes := []rune(msg); len(runes) > maxStoreMessage {
		msg = string(runes[:maxStoreMessage]) + "…"
	}
	if msg == "" {
		return "store error"
	}
	return msg
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return core.Invalid("body", errors.New("empty request body"))
		}
		return core.Invalid("body", fmt.Errorf("malformed JSON: %w", err))
	}
	return nil
}

// amountField accepts an amount as a JSON number or as text such as "12,000".
type amountField int64

func (a *amountField) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	v, err := core.ParseAmount(s)
	if err != nil {
		return err
	}
	*a = amountField(v)
	return nil
}
