// Package rest implements datastore.Store over a PostgREST compatible HTTP API
// such as the one exposed by Supabase at <project>/rest/v1.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/dalilfazara/dalil/pkg/datastore"
	"github.com/dalilfazara/dalil/pkg/tracing"
)

const maxErrorBody = 4 << 10

// Store talks to the REST API with an anonymous or service key
type Store struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ datastore.Store = (*Store)(nil)

// Option configures a Store
type Option func(*Store)

// WithHTTPClient replaces the default traced client
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) { s.client = c }
}

// New returns a Store for the project at projectURL
func New(projectURL, apiKey string, timeout time.Duration, opts ...Option) *Store {
	s := &Store{
		baseURL: strings.TrimRight(projectURL, "/") + "/rest/v1/",
		apiKey:  apiKey,
		client:  tracing.WrapHTTPClient(&http.Client{Timeout: timeout}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// APIError is a non 2xx answer from the API
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("rest api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("rest api error %d: %s", e.Status, e.Message)
}

func formatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func quoteListValue(v interface{}) string {
	s := formatValue(v)
	return `"` + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), `"`, `\"`) + `"`
}

func filterValue(c datastore.Condition) (string, error) {
	switch c.Op {
	case datastore.OpEq, datastore.OpNeq, datastore.OpGt, datastore.OpGte, datastore.OpLt, datastore.OpLte:
		return string(c.Op) + "." + formatValue(c.Value), nil
	case datastore.OpIsNull:
		return "is.null", nil
	case datastore.OpIn:
		values, ok := c.Value.([]interface{})
		if !ok {
			return "", fmt.Errorf("in filter on %s expects a list", c.Column)
		}
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = quoteListValue(v)
		}
		return "in.(" + strings.Join(parts, ",") + ")", nil
	default:
		return "", fmt.Errorf("unsupported operator %q", c.Op)
	}
}

func encodeFilters(params url.Values, filters []datastore.Condition) error {
	for _, f := range filters {
		v, err := filterValue(f)
		if err != nil {
			return err
		}
		params.Add(f.Column, v)
	}
	return nil
}

func (s *Store) do(ctx context.Context, method, table string, params url.Values, body interface{}, prefer string) (*http.Response, error) {
	u := s.baseURL + table
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s %s: %w", method, table, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		if gjson.ValidBytes(raw) {
			parsed := gjson.ParseBytes(raw)
			if msg := parsed.Get("message"); msg.Exists() {
				apiErr.Message = msg.String()
			}
			apiErr.Code = parsed.Get("code").String()
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return nil, apiErr
	}

	return resp, nil
}

// Count asks the API for an exact count and reads it from Content-Range
func (s *Store) Count(ctx context.Context, table string, filters ...datastore.Condition) (int64, error) {
	if err := datastore.CheckIdentifiers(table, datastore.Query{Filters: filters}); err != nil {
		return 0, err
	}

	params := url.Values{}
	params.Set("select", "*")
	if err := encodeFilters(params, filters); err != nil {
		return 0, err
	}

	resp, err := s.do(ctx, http.MethodHead, table, params, nil, "count=exact")
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	resp.Body.Close()

	return parseContentRange(resp.Header.Get("Content-Range"))
}

// parseContentRange extracts the total from "0-24/25" or "*/0"
func parseContentRange(h string) (int64, error) {
	idx := strings.LastIndex(h, "/")
	if idx < 0 || idx == len(h)-1 {
		return 0, fmt.Errorf("invalid content range %q", h)
	}
	total := h[idx+1:]
	if total == "*" {
		return 0, fmt.Errorf("content range %q carries no total", h)
	}
	n, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid content range %q: %w", h, err)
	}
	return n, nil
}

// Select fetches rows as JSON and converts them into records
func (s *Store) Select(ctx context.Context, table string, q datastore.Query) ([]datastore.Record, error) {
	if err := datastore.CheckIdentifiers(table, q); err != nil {
		return nil, err
	}

	params := url.Values{}
	if len(q.Columns) > 0 {
		params.Set("select", strings.Join(q.Columns, ","))
	} else {
		params.Set("select", "*")
	}
	if err := encodeFilters(params, q.Filters); err != nil {
		return nil, err
	}
	if len(q.Order) > 0 {
		parts := make([]string, len(q.Order))
		for i, o := range q.Order {
			dir := "asc"
			if o.Desc {
				dir = "desc"
			}
			parts[i] = o.Column + "." + dir
		}
		params.Set("order", strings.Join(parts, ","))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.FormatUint(q.Limit, 10))
	}

	resp, err := s.do(ctx, http.MethodGet, table, params, nil, "")
	if err != nil {
		return nil, fmt.Errorf("failed to select from %s: %w", table, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s rows: %w", table, err)
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("invalid JSON in %s response", table)
	}

	parsed := gjson.ParseBytes(raw)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("expected JSON array in %s response", table)
	}

	records := make([]datastore.Record, 0)
	for _, row := range parsed.Array() {
		rec := datastore.Record{}
		row.ForEach(func(key, value gjson.Result) bool {
			rec[key.String()] = value.Value()
			return true
		})
		records = append(records, rec)
	}
	return records, nil
}

func toJSONRecord(rec datastore.Record) map[string]interface{} {
	out := make(map[string]interface{}, len(rec))
	for k, v := range rec {
		if t, ok := v.(time.Time); ok {
			out[k] = t.UTC().Format(time.RFC3339Nano)
			continue
		}
		out[k] = v
	}
	return out
}

// Insert posts one row
func (s *Store) Insert(ctx context.Context, table string, rec datastore.Record) error {
	if len(rec) == 0 {
		return datastore.ErrEmptyRecord
	}
	if err := datastore.CheckIdentifiers(table, datastore.Query{Columns: rec.Columns()}); err != nil {
		return err
	}

	resp, err := s.do(ctx, http.MethodPost, table, nil, toJSONRecord(rec), "return=minimal")
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	resp.Body.Close()
	return nil
}

// Upsert posts one row, merging into the existing row on conflictKey
func (s *Store) Upsert(ctx context.Context, table string, rec datastore.Record, conflictKey string) error {
	if len(rec) == 0 {
		return datastore.ErrEmptyRecord
	}
	if !datastore.ValidIdentifier(conflictKey) {
		return fmt.Errorf("%w: conflict key %q", datastore.ErrInvalidIdentifier, conflictKey)
	}
	if _, ok := rec[conflictKey]; !ok {
		return fmt.Errorf("record is missing conflict key %s", conflictKey)
	}
	if err := datastore.CheckIdentifiers(table, datastore.Query{Columns: rec.Columns()}); err != nil {
		return err
	}

	params := url.Values{}
	params.Set("on_conflict", conflictKey)
	resp, err := s.do(ctx, http.MethodPost, table, params, toJSONRecord(rec), "resolution=merge-duplicates,return=minimal")
	if err != nil {
		return fmt.Errorf("failed to upsert into %s: %w", table, err)
	}
	resp.Body.Close()
	return nil
}

// Delete removes rows matching filters. At least one filter is required.
func (s *Store) Delete(ctx context.Context, table string, filters ...datastore.Condition) error {
	if len(filters) == 0 {
		return datastore.ErrUnfilteredDelete
	}
	if err := datastore.CheckIdentifiers(table, datastore.Query{Filters: filters}); err != nil {
		return err
	}

	params := url.Values{}
	if err := encodeFilters(params, filters); err != nil {
		return err
	}

	resp, err := s.do(ctx, http.MethodDelete, table, params, nil, "return=minimal")
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	resp.Body.Close()
	return nil
}
