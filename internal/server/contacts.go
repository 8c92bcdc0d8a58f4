package server

import (
	"net/http"

	"github.com/kairosci/ai-crm/internal/crm"
)

func (s *Server) createContact(w http.ResponseWriter, r *http.Request) {
	var params crm.ContactCreate
	if !decodeBody(w, r, &params) {
		return
	}
	if err := params.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}
	contact, err := s.store.CreateContact(r.Context(), params)
	if err != nil {
		s.writeStoreError(w, err, "Contact not found")
		return
	}
	writeJSON(w, http.StatusCreated, contact)
}

func (s *Server) listContacts(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	contacts, err := s.store.ListContacts(r.Context(), offset, limit)
	if err != nil {
		s.writeStoreError(w, err, "Contact not found")
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (s *Server) getContact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	contact, err := s.store.GetContact(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "Contact not found")
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

func (s *Server) updateContact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var params crm.ContactUpdate
	if !decodeBody(w, r, &params) {
		return
	}
	if err := params.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}
	contact, err := s.store.UpdateContact(r.Context(), id, params)
	if err != nil {
		s.writeStoreError(w, err, "Contact not found")
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

func (s *Server) deleteContact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deleted, err := s.store.DeleteContact(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "Contact not found")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Contact not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
