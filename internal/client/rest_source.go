package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ecotraq/be-waste-dashboard/internal/record"
)

// RESTSource talks to a PostgREST-style record store: views and tables are
// GET endpoints, relation expansion is declared in the select parameter, and
// writes are plain POSTs.
type RESTSource struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewRESTSource creates a REST record-source adapter.
func NewRESTSource(baseURL, token string) *RESTSource {
	return &RESTSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// CallView invokes a precomputed view endpoint. The store evaluates the
// caller's role server-side from the forwarded identity headers.
func (s *RESTSource) CallView(ctx context.Context, name string, role record.RoleContext) ([]record.Row, error) {
	q := url.Values{}
	q.Set("select", "*")
	rows, err := s.get(ctx, name, q, role)
	if err != nil {
		return nil, fmt.Errorf("failed to call view %s: %w", name, err)
	}
	return rows, nil
}

// ReadTable reads raw rows, expanding declared relations inline.
func (s *RESTSource) ReadTable(ctx context.Context, table string, opts ReadOptions) ([]record.Row, error) {
	q := url.Values{}
	q.Set("select", buildSelect(opts.Expand))
	for _, p := range opts.Filter {
		op := p.Op
		if op == "" {
			op = "eq"
		}
		q.Set(p.Field, op+"."+p.Value)
	}
	rows, err := s.get(ctx, table, q, record.RoleContext{})
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", table, err)
	}
	return rows, nil
}

// ReadMany batch-fetches rows by id.
func (s *RESTSource) ReadMany(ctx context.Context, table string, ids []string) ([]record.Row, error) {
	if len(ids) == 0 {
		return []record.Row{}, nil
	}
	q := url.Values{}
	q.Set("select", "*")
	q.Set("id", "in.("+strings.Join(ids, ",")+")")
	rows, err := s.get(ctx, table, q, record.RoleContext{})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s by id: %w", table, err)
	}
	return rows, nil
}

// InsertRow writes a single row and returns the stored representation.
func (s *RESTSource) InsertRow(ctx context.Context, table string, row record.Row) (record.Row, error) {
	body, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("failed to encode row for %s: %w", table, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/"+table, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build insert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Ask the store to echo the stored row, defaults included.
	req.Header.Set("Prefer", "return=representation")
	s.authorize(req, record.RoleContext{})

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	defer resp.Body.Close()

	if err := statusError(resp); err != nil {
		return nil, fmt.Errorf("insert into %s rejected: %w", table, err)
	}

	var rows []record.Row
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode insert response: %w", err)
	}
	if len(rows) == 0 {
		return record.Row{}, nil
	}
	return rows[0], nil
}

func (s *RESTSource) get(ctx context.Context, path string, q url.Values, role record.RoleContext) ([]record.Row, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/"+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	s.authorize(req, role)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := statusError(resp); err != nil {
		return nil, err
	}

	var rows []record.Row
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return rows, nil
}

func (s *RESTSource) authorize(req *http.Request, role record.RoleContext) {
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	if role.UserID != "" {
		req.Header.Set("X-Caller-ID", role.UserID)
		req.Header.Set("X-Caller-Role", role.Role)
	}
}

// buildSelect renders the projection with inline relation embeds, e.g.
// "*,responsible:users!responsible_id(id,full_name,department)".
func buildSelect(expand []RelationSpec) string {
	parts := []string{"*"}
	for _, e := range expand {
		parts = append(parts, fmt.Sprintf("%s:%s!%s(%s)", e.As, e.Table, e.Column, strings.Join(e.Columns, ",")))
	}
	return strings.Join(parts, ",")
}

func statusError(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w (status %d)", ErrPermissionDenied, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w (status %d)", ErrViewUnavailable, resp.StatusCode)
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	return fmt.Errorf("record store returned status %d: %s", resp.StatusCode, string(snippet))
}
