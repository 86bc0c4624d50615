// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pdiddy/lexdraft/internal/generate"
	"github.com/pdiddy/lexdraft/pkg/types"
)

// listDocuments handles GET /v1/documents?status=
func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	status := types.DocumentStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, http.StatusBadRequest, "unknown status "+string(status))
		return
	}
	docs, err := s.deps.Store.List(r.Context(), status)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// createDocument handles POST /v1/documents
func (s *Server) createDocument(w http.ResponseWriter, r *http.Request) {
	var doc types.Document
	if err := decode(r, &doc); err != nil {
		writeErr(w, err)
		return
	}
	if doc.TemplateID == "" || doc.Title == "" {
		writeError(w, http.StatusBadRequest, "templateId and title are required")
		return
	}
	if doc.Status != "" && !doc.Status.Valid() {
		writeError(w, http.StatusBadRequest, "unknown status "+string(doc.Status))
		return
	}
	created, err := s.deps.Store.Create(r.Context(), doc)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// getDocument handles GET /v1/documents/{id}
func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.deps.Store.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// updateDocument handles PATCH /v1/documents/{id}
func (s *Server) updateDocument(w http.ResponseWriter, r *http.Request) {
	var patch types.DocumentPatch
	if err := decode(r, &patch); err != nil {
		writeErr(w, err)
		return
	}
	if patch.Status != nil && !patch.Status.Valid() {
		writeError(w, http.StatusBadRequest, "unknown status "+string(*patch.Status))
		return
	}
	doc, err := s.deps.Store.Update(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// deleteDocument handles DELETE /v1/documents/{id}
func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Store.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// duplicateDocument handles POST /v1/documents/{id}/duplicate
func (s *Server) duplicateDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.deps.Store.Duplicate(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// exportDocument handles GET /v1/documents/{id}/export as Markdown.
func (s *Server) exportDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.deps.Store.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	generate.WriteMarkdown(w, &doc.Content)
}

// listSignatures handles GET /v1/documents/{id}/signatures
func (s *Server) listSignatures(w http.ResponseWriter, r *http.Request) {
	sigs, err := s.deps.Store.Signatures(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"signatures": sigs})
}

// signDocument handles POST /v1/documents/{id}/signatures. The originating
// address comes from the request, never the body.
func (s *Server) signDocument(w http.ResponseWriter, r *http.Request) {
	var req types.SignatureRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.Name == "" || req.SignatureData == "" {
		writeError(w, http.StatusBadRequest, "name and signatureData are required")
		return
	}
	req.DocumentID = mux.Vars(r)["id"]
	req.IPAddress = clientIP(r)

	sig, err := s.deps.Store.Sign(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sig)
}

// verifySignature handles GET /v1/signatures/{id}/verify
func (s *Server) verifySignature(w http.ResponseWriter, r *http.Request) {
	v, err := s.deps.Store.VerifySignature(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// deleteSignature handles DELETE /v1/signatures/{id}
func (s *Server) deleteSignature(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Store.DeleteSignature(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
