package remote

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
)

// RESTStore talks to the hosted backend's row API. Collections map to
// /rest/v1/{collection}; filters become ?column=eq.value query params.
// The service key scopes access; per-user scoping is done explicitly
// with user_id filters by the callers.
type RESTStore struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewRESTStore(baseURL, apiKey string) *RESTStore {
	return &RESTStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *RESTStore) Select(ctx context.Context, collection string, filters ...Filter) ([]Row, error) {
	body, err := s.do(ctx, http.MethodGet, s.collectionURL(collection, filters), nil, nil)
	if err != nil {
		return nil, err
	}
	var rows []Row
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode %s rows: %w", collection, err)
	}
	return rows, nil
}

func (s *RESTStore) Insert(ctx context.Context, collection string, rows []Row) error {
	_, err := s.do(ctx, http.MethodPost, s.collectionURL(collection, nil), rows, map[string]string{
		"Prefer": "return=minimal",
	})
	return err
}

func (s *RESTStore) Update(ctx context.Context, collection string, patch Row, filters ...Filter) error {
	_, err := s.do(ctx, http.MethodPatch, s.collectionURL(collection, filters), patch, map[string]string{
		"Prefer": "return=minimal",
	})
	return err
}

// Upsert inserts the row, merging into the existing row on a unique
// conflict (last write wins).
func (s *RESTStore) Upsert(ctx context.Context, collection string, row Row) error {
	_, err := s.do(ctx, http.MethodPost, s.collectionURL(collection, nil), []Row{row}, map[string]string{
		"Prefer": "resolution=merge-duplicates,return=minimal",
	})
	return err
}

func (s *RESTStore) Delete(ctx context.Context, collection string, filters ...Filter) error {
	_, err := s.do(ctx, http.MethodDelete, s.collectionURL(collection, filters), nil, nil)
	return err
}

func (s *RESTStore) collectionURL(collection string, filters []Filter) string {
	u := s.baseURL + "/rest/v1/" + collection
	if len(filters) == 0 {
		return u
	}
	values := url.Values{}
	for _, f := range filters {
		values.Set(f.Column, "eq."+fmt.Sprint(f.Value))
	}
	return u + "?" + values.Encode()
}

func (s *RESTStore) do(ctx context.Context, method, rawURL string, payload any, headers map[string]string) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Status: resp.StatusCode, Message: errorMessage(data)}
	}
	return data, nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Msg     string `json:"msg"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Msg != "" {
			return payload.Msg
		}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = "request failed"
	}
	return msg
}
