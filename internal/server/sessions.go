// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/pdiddy/lexdraft/internal/checkpoint"
	"github.com/pdiddy/lexdraft/internal/questionnaire"
	"github.com/pdiddy/lexdraft/pkg/types"
)

// defaultJurisdiction is recorded when the answers name none.
const defaultJurisdiction = "California"

type session struct {
	id            string
	ctl           *questionnaire.Controller
	checkpointKey string
	documentID    string
	saving        bool
}

// sessionResponse is the JSON view of a session.
type sessionResponse struct {
	ID string `json:"id"`
	questionnaire.Snapshot
	DocumentID string `json:"documentId,omitempty"`
}

type createSessionRequest struct {
	TemplateID    string        `json:"templateId"`
	Answers       types.Answers `json:"answers,omitempty"`
	CheckpointKey string        `json:"checkpointKey,omitempty"`
}

func (s *Server) view(sess *session) sessionResponse {
	s.mu.Lock()
	docID := sess.documentID
	s.mu.Unlock()
	return sessionResponse{ID: sess.id, Snapshot: sess.ctl.Snapshot(), DocumentID: docID}
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session, bool) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("session %s not found", id))
	}
	return sess, ok
}

// createSession handles POST /v1/sessions. Answers from a checkpoint are
// merged under answers given in the body.
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if strings.TrimSpace(req.TemplateID) == "" {
		writeError(w, http.StatusBadRequest, "templateId is required")
		return
	}

	initial := types.Answers{}
	if req.CheckpointKey != "" && s.deps.Checkpoints != nil {
		cp, err := s.deps.Checkpoints.Load(r.Context(), req.CheckpointKey)
		switch {
		case err == nil && cp.TemplateID == req.TemplateID:
			initial = cp.Answers.Clone()
		case err != nil && !errors.Is(err, checkpoint.ErrNotFound):
			writeErr(w, err)
			return
		}
	}
	for id, v := range req.Answers {
		initial[id] = v
	}

	ctl := questionnaire.New(req.TemplateID, questionnaire.Deps{
		Source:    s.deps.Source,
		Validator: s.deps.Validator,
		Generator: s.deps.Generator,
	}, questionnaire.WithInitialAnswers(initial), questionnaire.WithTimeout(s.timeout))
	if err := ctl.Load(r.Context()); err != nil {
		writeErr(w, err)
		return
	}

	sess := &session{id: uuid.NewString(), ctl: ctl, checkpointKey: req.CheckpointKey}
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, s.view(sess))
}

// getSession handles GET /v1/sessions/{id}
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.view(sess))
}

// deleteSession handles DELETE /v1/sessions/{id}
func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// putAnswer handles PUT /v1/sessions/{id}/answers/{questionId} with a JSON
// string or array body.
func (s *Server) putAnswer(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var v types.Value
	if err := decode(r, &v); err != nil {
		writeErr(w, err)
		return
	}
	if err := sess.ctl.Answer(mux.Vars(r)["questionId"], v); err != nil {
		writeErr(w, err)
		return
	}
	s.saveCheckpoint(r.Context(), sess)
	writeJSON(w, http.StatusOK, s.view(sess))
}

// advance handles POST /v1/sessions/{id}/advance
func (s *Server) advance(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	result, err := sess.ctl.Advance(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	s.saveCheckpoint(r.Context(), sess)
	if !result.IsValid {
		writeJSON(w, http.StatusUnprocessableEntity, s.view(sess))
		return
	}
	writeJSON(w, http.StatusOK, s.view(sess))
}

// retreat handles POST /v1/sessions/{id}/retreat
func (s *Server) retreat(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := sess.ctl.Retreat(); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(sess))
}

// submit handles POST /v1/sessions/{id}/submit. A completed session's
// document is persisted as a draft; if that save fails, submitting again
// retries it.
func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if !s.unsaved(sess) {
		result, err := sess.ctl.Submit(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		if !result.IsValid {
			writeJSON(w, http.StatusUnprocessableEntity, s.view(sess))
			return
		}
	}

	if !s.claimSave(sess) {
		writeErr(w, questionnaire.ErrBusy)
		return
	}
	doc, err := s.persist(r.Context(), sess)
	s.mu.Lock()
	sess.saving = false
	if err == nil {
		sess.documentID = doc.ID
	}
	s.mu.Unlock()
	if err != nil {
		writeErr(w, err)
		return
	}

	if sess.checkpointKey != "" && s.deps.Checkpoints != nil {
		if err := s.deps.Checkpoints.Delete(r.Context(), sess.checkpointKey); err != nil {
			s.logger.Printf("warning: clearing checkpoint %s: %v", sess.checkpointKey, err)
		}
	}
	writeJSON(w, http.StatusOK, s.view(sess))
}

// unsaved reports whether sess completed but its document was never stored.
// Submitting such a session again retries the save.
func (s *Server) unsaved(sess *session) bool {
	if sess.ctl.State() != questionnaire.StateCompleted {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return sess.documentID == "" && !sess.saving
}

// claimSave marks sess as saving. It fails while another save runs or once
// the document exists.
func (s *Server) claimSave(sess *session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.saving || sess.documentID != "" {
		return false
	}
	sess.saving = true
	return true
}

func (s *Server) persist(ctx context.Context, sess *session) (*types.Document, error) {
	generated := sess.ctl.Document()
	answers := sess.ctl.Answers()

	title := generated.Title
	var risk types.RiskLevel
	if t, err := s.deps.Catalog.Template(sess.ctl.TemplateID()); err == nil {
		title = t.Name
		risk = t.RiskLevel
	}
	title = fmt.Sprintf("%s - %s", title, generated.GeneratedAt.Format(time.DateOnly))

	jurisdiction := defaultJurisdiction
	if v, ok := answers.Get("jurisdiction"); ok && !v.IsEmpty() {
		jurisdiction = v.String()
	}

	doc, err := s.deps.Store.Create(ctx, types.Document{
		TemplateID:   sess.ctl.TemplateID(),
		Title:        title,
		Jurisdiction: jurisdiction,
		RiskLevel:    risk,
		Status:       types.StatusDraft,
		Content:      *generated,
		Answers:      answers,
	})
	if err != nil {
		return nil, fmt.Errorf("saving document: %w", err)
	}
	return doc, nil
}

// cancel handles POST /v1/sessions/{id}/cancel
func (s *Server) cancel(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := sess.ctl.Cancel(); err != nil {
		writeErr(w, err)
		return
	}
	if sess.checkpointKey != "" && s.deps.Checkpoints != nil {
		s.deps.Checkpoints.Delete(r.Context(), sess.checkpointKey)
	}
	writeJSON(w, http.StatusOK, s.view(sess))
}

func (s *Server) saveCheckpoint(ctx context.Context, sess *session) {
	if sess.checkpointKey == "" || s.deps.Checkpoints == nil {
		return
	}
	cp := checkpoint.Checkpoint{
		TemplateID: sess.ctl.TemplateID(),
		Step:       sess.ctl.Step(),
		Answers:    sess.ctl.Answers(),
		SavedAt:    time.Now().UTC(),
	}
	if err := s.deps.Checkpoints.Save(ctx, sess.checkpointKey, cp); err != nil {
		s.logger.Printf("warning: saving checkpoint %s: %v", sess.checkpointKey, err)
	}
}
