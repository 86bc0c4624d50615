// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/lexdraft/internal/httputil"
	"github.com/pdiddy/lexdraft/pkg/types"
)

// Remote fetches question catalogs from an HTTP API that serves
// GET {BaseURL}/templates/{id}/questions as a JSON array of questions.
type Remote struct {
	Client     *http.Client
	BaseURL    string
	MaxRetries int
	UserAgent  string
	Token      string
}

// NewRemote returns a Remote for cfg.
func NewRemote(cfg types.CatalogConfig) *Remote {
	return &Remote{
		Client:     &http.Client{Timeout: cfg.Timeout},
		BaseURL:    strings.TrimRight(cfg.URL, "/"),
		MaxRetries: cfg.MaxRetries,
		UserAgent:  "lexdraft/0.1",
		Token:      cfg.Token,
	}
}

// Questions implements Source. HTTP 404 maps to ErrNotFound; throttled
// responses are retried.
func (r *Remote) Questions(ctx context.Context, templateID string) ([]types.Question, error) {
	reqURL := r.BaseURL + "/templates/" + url.PathEscape(templateID) + "/questions"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.UserAgent != "" {
		req.Header.Set("User-Agent", r.UserAgent)
	}
	if r.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.Token)
	}

	resp, err := httputil.DoWithRetry(ctx, r.Client, req, r.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("questions for template %q: %w", templateID, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("catalog API returned HTTP %d", resp.StatusCode)
	}

	var questions []types.Question
	if err := json.NewDecoder(resp.Body).Decode(&questions); err != nil {
		return nil, fmt.Errorf("decoding catalog response: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("questions for template %q: %w", templateID, ErrNotFound)
	}
	if err := checkQuestions(questions); err != nil {
		return nil, fmt.Errorf("template %s: %w", templateID, err)
	}
	return questions, nil
}
