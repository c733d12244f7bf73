package metals

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/slimatic/zakapp-sub001/internal/domain/zakat"
)

const maxAPIResponseSize = 1 << 20

// apiQuote is the JSON body returned by the price API
type apiQuote struct {
	Metal    string          `json:"metal"`
	Currency string          `json:"currency"`
	Price    decimal.Decimal `json:"price"`
	Unit     string          `json:"unit"`
}

// APISource queries a JSON price API:
//
//	GET {base}?metal=gold&currency=USD  ->  {"metal":"gold","currency":"USD","price":2345.6,"unit":"ounce"}
type APISource struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewAPISource creates an API client. apiKey is sent as X-API-Key when set.
func NewAPISource(baseURL, apiKey string, client *http.Client) *APISource {
	if client == nil {
		client = http.DefaultClient
	}
	return &APISource{baseURL: baseURL, apiKey: apiKey, client: client}
}

// Tier implements LiveSource
func (s *APISource) Tier() zakat.PriceTier {
	return zakat.PriceTierAPI
}

// PricePerGram implements LiveSource
func (s *APISource) PricePerGram(ctx context.Context, metal zakat.Metal, currency string) (decimal.Decimal, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return decimal.Zero, fmt.Errorf("metals api: bad url: %w", err)
	}
	q := u.Query()
	q.Set("metal", string(metal))
	q.Set("currency", strings.ToUpper(currency))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("metals api: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("X-API-Key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("metals api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIResponseSize))
	if err != nil {
		return decimal.Zero, fmt.Errorf("metals api: failed to read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return decimal.Zero, fmt.Errorf("metals api: HTTP %d", resp.StatusCode)
	}

	var quote apiQuote
	if err := json.Unmarshal(body, &quote); err != nil {
		return decimal.Zero, fmt.Errorf("metals api: decode: %w", err)
	}
	if quote.Currency != "" && !strings.EqualFold(quote.Currency, currency) {
		return decimal.Zero, fmt.Errorf("%w: api answered in %s", ErrUnsupportedCurrency, quote.Currency)
	}
	return perGram(quote.Price, quote.Unit)
}
