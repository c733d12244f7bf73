package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
)

const maxRateResponseSize = 64 << 10

type rateResponse struct {
	From string          `json:"from"`
	To   string          `json:"to"`
	Rate decimal.Decimal `json:"rate"`
}

// HTTPRateSource queries a JSON rate API:
//
//	GET {base}?from=EUR&to=USD  ->  {"from":"EUR","to":"USD","rate":1.08}
type HTTPRateSource struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPRateSource creates an API client. apiKey is sent as X-API-Key when set.
func NewHTTPRateSource(baseURL, apiKey string, client *http.Client) *HTTPRateSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPRateSource{baseURL: baseURL, apiKey: apiKey, client: client}
}

// Rate implements zakat.CurrencyRateSource
func (s *HTTPRateSource) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from, to, err := pair(from, to)
	if err != nil {
		return decimal.Zero, err
	}
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	u, err := url.Parse(s.baseURL)
	if err != nil {
		return decimal.Zero, fmt.Errorf("currency api: bad url: %w", err)
	}
	q := u.Query()
	q.Set("from", from)
	q.Set("to", to)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("currency api: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("X-API-Key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("currency api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRateResponseSize))
	if err != nil {
		return decimal.Zero, fmt.Errorf("currency api: failed to read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return decimal.Zero, fmt.Errorf("%w: %s->%s HTTP %d", ErrRateUnavailable, from, to, resp.StatusCode)
	}

	var out rateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return decimal.Zero, fmt.Errorf("currency api: decode: %w", err)
	}
	if !out.Rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s->%s non-positive rate", ErrRateUnavailable, from, to)
	}
	return out.Rate, nil
}
