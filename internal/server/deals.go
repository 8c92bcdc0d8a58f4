package server

import (
	"net/http"

	"github.com/kairosci/ai-crm/internal/crm"
)

func (s *Server) createDeal(w http.ResponseWriter, r *http.Request) {
	var params crm.DealCreate
	if !decodeBody(w, r, &params) {
		return
	}
	if err := params.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}
	deal, err := s.store.CreateDeal(r.Context(), params)
	if err != nil {
		s.writeStoreError(w, err, "Deal not found")
		return
	}
	writeJSON(w, http.StatusCreated, deal)
}

func (s *Server) listDeals(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	deals, err := s.store.ListDeals(r.Context(), offset, limit)
	if err != nil {
		s.writeStoreError(w, err, "Deal not found")
		return
	}
	writeJSON(w, http.StatusOK, deals)
}

func (s *Server) getDeal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deal, err := s.store.GetDeal(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "Deal not found")
		return
	}
	writeJSON(w, http.StatusOK, deal)
}

func (s *Server) updateDeal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var params crm.DealUpdate
	if !decodeBody(w, r, &params) {
		return
	}
	if err := params.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}
	deal, err := s.store.UpdateDeal(r.Context(), id, params)
	if err != nil {
		s.writeStoreError(w, err, "Deal not found")
		return
	}
	writeJSON(w, http.StatusOK, deal)
}

func (s *Server) deleteDeal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deleted, err := s.store.DeleteDeal(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "Deal not found")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Deal not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
