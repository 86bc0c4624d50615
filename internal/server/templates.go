// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pdiddy/lexdraft/internal/steps"
	"github.com/pdiddy/lexdraft/pkg/types"
)

// listTemplates handles GET /v1/templates?q=&category=
func (s *Server) listTemplates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var templates []types.Template
	switch {
	case q.Get("q") != "":
		templates = s.deps.Catalog.Search(q.Get("q"))
	case q.Get("category") != "":
		templates = s.deps.Catalog.ByCategory(q.Get("category"))
	default:
		templates = s.deps.Catalog.Templates()
	}
	if templates == nil {
		templates = []types.Template{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": templates})
}

// getTemplate handles GET /v1/templates/{id}
func (s *Server) getTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := s.deps.Catalog.Template(mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// getQuestions handles GET /v1/templates/{id}/questions
func (s *Server) getQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := s.deps.Source.Questions(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": questions})
}

// validateAnswers handles POST /v1/templates/{id}/validate with a JSON
// object of answers. Every question of the template is checked, so a
// missing key counts as an empty answer.
func (s *Server) validateAnswers(w http.ResponseWriter, r *http.Request) {
	var answers types.Answers
	if err := decode(r, &answers); err != nil {
		writeErr(w, err)
		return
	}
	id := mux.Vars(r)["id"]
	questions, err := s.deps.Source.Questions(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	result, err := s.deps.Validator.ValidateWithContext(r.Context(), id, answers.Subset(steps.IDs(questions)), answers)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
