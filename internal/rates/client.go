// Package rates fetches exchange-rate snapshots and converts amounts to
// their USD equivalent.
//
// A snapshot is a single fetched mapping of currency code to units of that
// currency per 1 USD. Snapshots are never cached or versioned: every fetch
// is a fresh network round trip, and a snapshot belongs to the single
// operation that requested it.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"expenselite/internal/core"

	"github.com/shopspring/decimal"
)

const latestUSDPath = "/v6/latest/USD"

// DefaultBaseURL is the public open exchange-rate endpoint the original
// deployment targets. The base URL is configurable so tests can point the
// client at a local server.
const DefaultBaseURL = "https://open.er-api.com"

// Client fetches rate snapshots over plain JSON HTTP. No retries and no
// timeout policy beyond the injected http.Client's.
type Client struct {
	httpc   *http.Client
	baseURL string
}

type ratesResponse struct {
	Result   string                     `json:"result"`
	BaseCode string                     `json:"base_code"`
	Rates    map[string]decimal.Decimal `json:"rates"`
}

func NewClient(baseURL string, httpc *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &Client{httpc: httpc, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// FetchRates retrieves the latest USD-based snapshot. A response without a
// rates field is success with an empty snapshot, never nil. Transport,
// status and decode failures all wrap core.ErrNetwork.
func (c *Client) FetchRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+latestUSDPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build rates request: %w: %v", core.ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w: %v", core.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch rates: %w: unexpected status %d", core.ErrNetwork, resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode rates: %w: %v", core.ErrNetwork, err)
	}

	if body.Rates == nil {
		slog.DebugContext(ctx, "Rate response carried no rates field", "result", body.Result)
		return map[string]decimal.Decimal{}, nil
	}

	slog.DebugContext(ctx, "Fetched rate snapshot",
		"base_code", body.BaseCode,
		"currencies", len(body.Rates))

	return body.Rates, nil
}
