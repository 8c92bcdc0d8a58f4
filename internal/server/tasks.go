package server

import (
	"net/http"

	"github.com/kairosci/ai-crm/internal/crm"
)

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var params crm.TaskCreate
	if !decodeBody(w, r, &params) {
		return
	}
	if err := params.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}
	task, err := s.store.CreateTask(r.Context(), params)
	if err != nil {
		s.writeStoreError(w, err, "Task not found")
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	tasks, err := s.store.ListTasks(r.Context(), offset, limit)
	if err != nil {
		s.writeStoreError(w, err, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	task, err := s.store.GetTask(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var params crm.TaskUpdate
	if !decodeBody(w, r, &params) {
		return
	}
	if err := params.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}
	task, err := s.store.UpdateTask(r.Context(), id, params)
	if err != nil {
		s.writeStoreError(w, err, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deleted, err := s.store.DeleteTask(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "Task not found")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
