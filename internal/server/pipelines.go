package server

import (
	"net/http"

	"github.com/kairosci/ai-crm/internal/crm"
)

func (s *Server) createPipeline(w http.ResponseWriter, r *http.Request) {
	var params crm.PipelineCreate
	if !decodeBody(w, r, &params) {
		return
	}
	if err := params.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}
	pipeline, err := s.store.CreatePipeline(r.Context(), params)
	if err != nil {
		s.writeStoreError(w, err, "Pipeline not found")
		return
	}
	writeJSON(w, http.StatusCreated, pipeline)
}

func (s *Server) listPipelines(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	pipelines, err := s.store.ListPipelines(r.Context(), offset, limit)
	if err != nil {
		s.writeStoreError(w, err, "Pipeline not found")
		return
	}
	writeJSON(w, http.StatusOK, pipelines)
}

func (s *Server) getPipeline(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	pipeline, err := s.store.GetPipeline(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "Pipeline not found")
		return
	}
	writeJSON(w, http.StatusOK, pipeline)
}

func (s *Server) updatePipeline(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var params crm.PipelineUpdate
	if !decodeBody(w, r, &params) {
		return
	}
	if err := params.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}
	pipeline, err := s.store.UpdatePipeline(r.Context(), id, params)
	if err != nil {
		s.writeStoreError(w, err, "Pipeline not found")
		return
	}
	writeJSON(w, http.StatusOK, pipeline)
}

func (s *Server) deletePipeline(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deleted, err := s.store.DeletePipeline(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "Pipeline not found")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Pipeline not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
