package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Remote is a Store backed by a hosted notes API. The wire shape is
// the same JSON the local store writes; failures surface as plain
// errors so the save lifecycle treats them as a failed save.
type Remote struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewRemote(baseURL, apiKey string) *Remote {
	return &Remote{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *Remote) notesURL(visitRef string) string {
	return r.baseURL + "/visits/" + url.PathEscape(visitRef) + "/notes"
}

func (r *Remote) do(req *http.Request) (*http.Response, error) {
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}
	return r.client.Do(req)
}

func (r *Remote) Put(ctx context.Context, n *Note) error {
	if err := validate(n); err != nil {
		return err
	}
	now := time.Now().UTC()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now

	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("store: marshal note: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.notesURL(n.VisitRef), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.do(req)
	if err != nil {
		return fmt.Errorf("store: remote put: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("store: remote put: status %d: %s", resp.StatusCode, msg)
	}
	return nil
}

func (r *Remote) Get(ctx context.Context, visitRef, id string) (*Note, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.notesURL(visitRef)+"/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.do(req)
	if err != nil {
		return nil, fmt.Errorf("store: remote get: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("store: remote get: status %d", resp.StatusCode)
	}
	var n Note
	if err := json.NewDecoder(resp.Body).Decode(&n); err != nil {
		return nil, fmt.Errorf("store: remote get: %w", err)
	}
	return &n, nil
}

func (r *Remote) ListVisit(ctx context.Context, visitRef string) ([]*Note, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.notesURL(visitRef), nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.do(req)
	if err != nil {
		return nil, fmt.Errorf("store: remote list: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("store: remote list: status %d", resp.StatusCode)
	}
	var notes []*Note
	if err := json.NewDecoder(resp.Body).Decode(&notes); err != nil {
		return nil, fmt.Errorf("store: remote list: %w", err)
	}
	return notes, nil
}

func (r *Remote) Close() error { return nil }
