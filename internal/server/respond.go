package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/kairosci/ai-crm/internal/crm"
)

// errorBody mirrors the {"detail": ...} error shape of the reference API.
type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// decodeBody parses a JSON request body, rejecting unknown fields so
// typos surface as 422s instead of silently dropped fields.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// pathID parses the {id} path segment.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "Invalid id")
		return 0, false
	}
	return id, true
}

// pageParams parses the skip/limit query parameters.
func pageParams(r *http.Request) (offset, limit int) {
	offset, _ = strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return offset, limit
}

// writeStoreError maps store failures onto the API error taxonomy:
// absent ids become 404s, everything else an opaque 500.
func (s *Server) writeStoreError(w http.ResponseWriter, err error, notFoundDetail string) {
	if errors.Is(err, crm.ErrNotFound) {
		writeError(w, http.StatusNotFound, notFoundDetail)
		return
	}
	s.log.Error("store operation failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

// writeValidationError reports a rejected payload as a 422.
func writeValidationError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusUnprocessableEntity, err.Error())
}
