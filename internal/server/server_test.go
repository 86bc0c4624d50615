// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/lexdraft/internal/catalog"
	"github.com/pdiddy/lexdraft/internal/checkpoint"
	"github.com/pdiddy/lexdraft/internal/generate"
	"github.com/pdiddy/lexdraft/internal/store"
	"github.com/pdiddy/lexdraft/internal/validate"
	"github.com/pdiddy/lexdraft/pkg/types"
)

type testEnv struct {
	ts          *httptest.Server
	store       *store.Store
	checkpoints *checkpoint.FileStore
	logs        *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	g, err := generate.New(types.GenerationConfig{}, nil)
	require.NoError(t, err)
	st, err := store.Open(types.StoreConfig{Path: filepath.Join(t.TempDir(), "lexdraft.db")})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	cps := checkpoint.NewFileStore(t.TempDir())

	var logs bytes.Buffer
	srv := New(Deps{
		Catalog:     c,
		Validator:   validate.New(c),
		Generator:   g,
		Store:       st,
		Checkpoints: cps,
	}, 5*time.Second, log.New(&logs, "", 0))

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{ts: ts, store: st, checkpoints: cps, logs: &logs}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, r)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeT[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

type sessionJSON struct {
	ID         string        `json:"id"`
	TemplateID string        `json:"templateId"`
	State      string        `json:"state"`
	Step       int           `json:"step"`
	TotalSteps int           `json:"totalSteps"`
	Answers    types.Answers `json:"answers"`
	Errors     []types.Issue `json:"errors"`
	Warnings   []types.Issue `json:"warnings"`
	DocumentID string        `json:"documentId"`
	Document   *types.GeneratedDocument
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	resp, body := e.do(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
	assert.Contains(t, e.logs.String(), "GET /health 200")
}

func TestTemplates(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		path string
		want []string
	}{
		{"/v1/templates", []string{"rental-agreement", "nda", "service-agreement"}},
		{"/v1/templates?q=lease", []string{"rental-agreement"}},
		{"/v1/templates?category=Business", []string{"nda"}},
		{"/v1/templates?q=zzz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := e.do(t, "GET", tt.path, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			got := decodeT[struct {
				Templates []types.Template `json:"templates"`
			}](t, body)
			ids := []string{}
			for _, tmpl := range got.Templates {
				ids = append(ids, tmpl.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	resp, body := e.do(t, "GET", "/v1/templates/nda", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeT[types.Template](t, body).Questions, 8)

	resp, _ = e.do(t, "GET", "/v1/templates/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = e.do(t, "GET", "/v1/templates/nda/questions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"disclosingParty"`)

	resp, _ = e.do(t, "GET", "/v1/templates/missing/questions", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestValidateEndpoint(t *testing.T) {
	e := newTestEnv(t)
	resp, body := e.do(t, "POST", "/v1/templates/nda/validate", map[string]any{
		"disclosingParty": "",
		"receivingEmail":  "not-an-email",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decodeT[types.ValidationResult](t, body)
	assert.False(t, result.IsValid)
	assert.Equal(t, []string{
		"disclosingParty", "receivingParty", "receivingEmail", "ndaType", "effectiveDate", "duration",
	}, issueIDs(result.Errors))

	resp, _ = e.do(t, "POST", "/v1/templates/nda/validate", "not an object")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = e.do(t, "POST", "/v1/templates/missing/validate", map[string]any{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestValidateEndpointChecksOmittedQuestions(t *testing.T) {
	e := newTestEnv(t)
	resp, body := e.do(t, "POST", "/v1/templates/nda/validate", map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decodeT[types.ValidationResult](t, body)
	assert.False(t, result.IsValid)
	assert.Equal(t, []string{
		"disclosingParty", "receivingParty", "ndaType", "effectiveDate", "duration",
	}, issueIDs(result.Errors))

	resp, body = e.do(t, "POST", "/v1/templates/nda/validate", map[string]any{
		"disclosingParty": "Acme",
		"receivingParty":  "Bob",
		"ndaType":         "mutual",
		"effectiveDate":   "2099-01-01",
		"duration":        "2 years",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result = decodeT[types.ValidationResult](t, body)
	assert.True(t, result.IsValid, "%+v", result.Errors)
}

func issueIDs(issues []types.Issue) []string {
	var ids []string
	for _, i := range issues {
		ids = append(ids, i.QuestionID)
	}
	return ids
}

func TestSessionLifecycle(t *testing.T) {
	e := newTestEnv(t)

	resp, body := e.do(t, "POST", "/v1/sessions", map[string]any{
		"templateId": "nda",
		"answers":    map[string]any{"disclosingParty": "Acme"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	sess := decodeT[sessionJSON](t, body)
	assert.Equal(t, "active", sess.State)
	assert.Equal(t, 3, sess.TotalSteps)
	base := "/v1/sessions/" + sess.ID

	// Step 1 is missing receivingParty.
	resp, body = e.do(t, "POST", base+"/advance", nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "receivingParty", decodeT[sessionJSON](t, body).Errors[0].QuestionID)

	answers := []struct {
		id    string
		value any
	}{
		{"receivingParty", "Bob"},
		{"ndaType", "mutual"},
		{"informationType", []string{"trade secrets"}},
		{"effectiveDate", "2099-01-01"},
		{"duration", "2 years"},
		{"jurisdiction", "Texas"},
	}
	for i, a := range answers {
		resp, body = e.do(t, "PUT", base+"/answers/"+a.id, a.value)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		if i == 0 {
			resp, _ = e.do(t, "POST", base+"/advance", nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)
		}
		if i == 3 {
			resp, _ = e.do(t, "POST", base+"/advance", nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)
		}
	}

	resp, _ = e.do(t, "POST", base+"/advance", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "advance on the last step")

	resp, body = e.do(t, "POST", base+"/submit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	sess = decodeT[sessionJSON](t, body)
	assert.Equal(t, "completed", sess.State)
	require.NotEmpty(t, sess.DocumentID)

	doc, err := e.store.Get(context.Background(), sess.DocumentID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(doc.Title, "Non-Disclosure Agreement - "))
	assert.Equal(t, "Texas", doc.Jurisdiction)
	assert.Equal(t, types.RiskLow, doc.RiskLevel)
	assert.Equal(t, types.StatusDraft, doc.Status)
	assert.Contains(t, doc.Content.Sections[0].Content, "Acme")

	resp, _ = e.do(t, "POST", base+"/submit", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "no second document")
	docs, err := e.store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestSubmitRetriesFailedSave(t *testing.T) {
	ctx := context.Background()
	c, err := catalog.Default()
	require.NoError(t, err)
	g, err := generate.New(types.GenerationConfig{}, nil)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "lexdraft.db")
	st, err := store.Open(types.StoreConfig{Path: path})
	require.NoError(t, err)

	srv := New(Deps{Catalog: c, Validator: validate.New(c), Generator: g, Store: st},
		5*time.Second, log.New(io.Discard, "", 0))
	h := srv.Handler()
	call := func(method, path string, body any) *httptest.ResponseRecorder {
		t.Helper()
		var r io.Reader
		if body != nil {
			data, err := json.Marshal(body)
			require.NoError(t, err)
			r = bytes.NewReader(data)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, path, r))
		return rec
	}

	rec := call("POST", "/v1/sessions", map[string]any{
		"templateId": "nda",
		"answers": map[string]any{
			"disclosingParty": "Acme",
			"receivingParty":  "Bob",
			"ndaType":         "mutual",
			"effectiveDate":   "2099-01-01",
			"duration":        "2 years",
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	base := "/v1/sessions/" + decodeT[sessionJSON](t, rec.Body.Bytes()).ID
	for i := 0; i < 2; i++ {
		rec = call("POST", base+"/advance", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	require.NoError(t, st.Close())
	rec = call("POST", base+"/submit", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code, rec.Body.String())

	rec = call("GET", base, nil)
	sess := decodeT[sessionJSON](t, rec.Body.Bytes())
	assert.Equal(t, "completed", sess.State)
	assert.Empty(t, sess.DocumentID)

	reopened, err := store.Open(types.StoreConfig{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })
	srv.deps.Store = reopened

	rec = call("POST", base+"/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sess = decodeT[sessionJSON](t, rec.Body.Bytes())
	require.NotEmpty(t, sess.DocumentID)
	_, err = reopened.Get(ctx, sess.DocumentID)
	require.NoError(t, err)

	rec = call("POST", base+"/submit", nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "saved sessions do not resubmit")
	docs, err := reopened.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestSessionErrors(t *testing.T) {
	e := newTestEnv(t)

	resp, _ := e.do(t, "POST", "/v1/sessions", map[string]any{"templateId": "missing"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = e.do(t, "POST", "/v1/sessions", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = e.do(t, "GET", "/v1/sessions/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, body := e.do(t, "POST", "/v1/sessions", map[string]any{"templateId": "nda"})
	base := "/v1/sessions/" + decodeT[sessionJSON](t, body).ID

	resp, _ = e.do(t, "PUT", base+"/answers/bogus", "x")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = e.do(t, "PUT", base+"/answers/informationType", "trade secrets")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = e.do(t, "POST", base+"/submit", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "submit from the first step")

	resp, _ = e.do(t, "POST", base+"/retreat", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = e.do(t, "POST", base+"/cancel", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cancelled", decodeT[sessionJSON](t, body).State)
	resp, _ = e.do(t, "POST", base+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = e.do(t, "DELETE", base, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = e.do(t, "GET", base, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessionCheckpoint(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	_, body := e.do(t, "POST", "/v1/sessions", map[string]any{"templateId": "nda", "checkpointKey": "user-1"})
	base := "/v1/sessions/" + decodeT[sessionJSON](t, body).ID
	resp, _ := e.do(t, "PUT", base+"/answers/disclosingParty", "Acme")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cp, err := e.checkpoints.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, types.Text("Acme"), cp.Answers["disclosingParty"])

	resp, body = e.do(t, "POST", "/v1/sessions", map[string]any{"templateId": "nda", "checkpointKey": "user-1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, types.Text("Acme"), decodeT[sessionJSON](t, body).Answers["disclosingParty"])

	resp, _ = e.do(t, "POST", base+"/cancel", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, err = e.checkpoints.Load(ctx, "user-1")
	assert.ErrorIs(t, err, checkpoint.ErrNotFound)
}

func TestDocumentsAndSignatures(t *testing.T) {
	e := newTestEnv(t)

	resp, body := e.do(t, "POST", "/v1/documents", map[string]any{
		"templateId": "nda",
		"title":      "Contract",
		"content": map[string]any{
			"title":    "NON-DISCLOSURE AGREEMENT",
			"sections": []map[string]string{{"title": "PARTIES", "content": "A and B."}},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	doc := decodeT[types.Document](t, body)
	assert.Equal(t, types.StatusDraft, doc.Status)
	base := "/v1/documents/" + doc.ID

	resp, _ = e.do(t, "POST", "/v1/documents", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = e.do(t, "PATCH", base, map[string]any{"title": "Renamed", "status": "review"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Renamed", decodeT[types.Document](t, body).Title)

	resp, _ = e.do(t, "PATCH", base, map[string]any{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = e.do(t, "GET", "/v1/documents?status=review", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeT[struct {
		Documents []types.Document `json:"documents"`
	}](t, body).Documents, 1)

	resp, body = e.do(t, "GET", base+"/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/markdown; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), "## 1. PARTIES")

	resp, body = e.do(t, "POST", base+"/signatures", map[string]any{
		"name":          "Bob",
		"email":         "bob@example.com",
		"signatureData": "data:image/png;base64,AAAA",
		"ipAddress":     "6.6.6.6",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	sig := decodeT[types.Signature](t, body)
	assert.Equal(t, "127.0.0.1", sig.IPAddress, "address comes from the connection")

	resp, _ = e.do(t, "POST", base+"/signatures", map[string]any{"name": "Bob"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = e.do(t, "GET", base+"/signatures", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), sig.ID)

	resp, body = e.do(t, "GET", "/v1/signatures/"+sig.ID+"/verify", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decodeT[types.SignatureVerification](t, body).IsValid)

	resp, body = e.do(t, "POST", base+"/duplicate", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Renamed (Copy)", decodeT[types.Document](t, body).Title)

	resp, _ = e.do(t, "DELETE", "/v1/signatures/"+sig.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = e.do(t, "GET", "/v1/signatures/"+sig.ID+"/verify", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = e.do(t, "DELETE", base, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = e.do(t, "GET", base, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", clientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(r))
}
