// Package postal resolves 6-digit postal codes to district/state via
// the public postal directory. Lookup failures are non-fatal to
// callers; the address fields just stay unfilled.
package postal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var ErrInvalidCode = errors.New("postal code must be 6 digits")

type Locality struct {
	District string `json:"district"`
	State    string `json:"state"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Lookup returns the locality for a postal code, or nil when the
// directory has no entry for it.
func (c *Client) Lookup(ctx context.Context, code string) (*Locality, error) {
	if !isSixDigits(code) {
		return nil, ErrInvalidCode
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/pincode/"+code, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("postal lookup: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("postal directory returned %d", resp.StatusCode)
	}

	var payload []struct {
		Status     string `json:"Status"`
		PostOffice []struct {
			District string `json:"District"`
			State    string `json:"State"`
		} `json:"PostOffice"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(payload) == 0 || payload[0].Status != "Success" || len(payload[0].PostOffice) == 0 {
		return nil, nil
	}
	po := payload[0].PostOffice[0]
	return &Locality{District: po.District, State: po.State}, nil
}

func isSixDigits(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
