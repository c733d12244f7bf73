package metals

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
	"golang.org/x/sync/singleflight"

	"github.com/slimatic/zakapp-sub001/internal/domain/zakat"
)

const maxScrapeBody = 2 << 20

// DefaultPageTTL is how long a fetched page answers further lookups
const DefaultPageTTL = DefaultTierTimeout

// ScrapeSource reads prices from an HTML page. Price cells are marked with
// data attributes, for example:
//
//	<td data-metal="gold" data-unit="ounce">$2,345.60</td>
//
// The page is quoted in a single currency. One fetch serves both metals:
// concurrent lookups share a request and the parsed page is kept for the page TTL.
type ScrapeSource struct {
	url      string
	currency string
	client   *http.Client
	ttl      time.Duration
	now      func() time.Time

	fetches singleflight.Group
	mu      sync.Mutex
	page    *scrapedPage
}

type priceCell struct {
	text, unit string
}

type scrapedPage struct {
	cells     map[string]priceCell
	fetchedAt time.Time
}

// ScrapeOption configures a ScrapeSource
type ScrapeOption func(*ScrapeSource)

// WithPageTTL sets how long a page is reused. Zero fetches on every lookup
// apart from concurrent ones.
func WithPageTTL(ttl time.Duration) ScrapeOption {
	return func(s *ScrapeSource) { s.ttl = ttl }
}

// NewScrapeSource creates a scraper for a page quoted in currency
func NewScrapeSource(url, currency string, client *http.Client, opts ...ScrapeOption) *ScrapeSource {
	if client == nil {
		client = http.DefaultClient
	}
	s := &ScrapeSource{
		url:      url,
		currency: strings.ToUpper(currency),
		client:   client,
		ttl:      DefaultPageTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tier implements LiveSource
func (s *ScrapeSource) Tier() zakat.PriceTier {
	return zakat.PriceTierScrape
}

// PricePerGram implements LiveSource
func (s *ScrapeSource) PricePerGram(ctx context.Context, metal zakat.Metal, currency string) (decimal.Decimal, error) {
	if !strings.EqualFold(currency, s.currency) {
		return decimal.Zero, fmt.Errorf("%w: page quotes %s, asked for %s", ErrUnsupportedCurrency, s.currency, currency)
	}

	page, err := s.load(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	cell, ok := page.cells[string(metal)]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no %s cell on page", ErrPriceNotFound, metal)
	}
	price, err := parseDisplayedPrice(cell.text)
	if err != nil {
		return decimal.Zero, fmt.Errorf("metals scrape: %s price %q: %w", metal, cell.text, err)
	}
	return perGram(price, cell.unit)
}

func (s *ScrapeSource) load(ctx context.Context) (*scrapedPage, error) {
	if p := s.fresh(); p != nil {
		return p, nil
	}
	v, err, _ := s.fetches.Do(s.url, func() (any, error) {
		if p := s.fresh(); p != nil {
			return p, nil
		}
		p, err := s.fetch(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.page = p
		s.mu.Unlock()
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*scrapedPage), nil
}

func (s *ScrapeSource) fresh() *scrapedPage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page != nil && s.now().Sub(s.page.fetchedAt) < s.ttl {
		return s.page
	}
	return nil
}

func (s *ScrapeSource) fetch(ctx context.Context) (*scrapedPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("metals scrape: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metals scrape: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("metals scrape: HTTP %d", resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxScrapeBody))
	if err != nil {
		return nil, fmt.Errorf("metals scrape: parse page: %w", err)
	}
	page := &scrapedPage{cells: make(map[string]priceCell), fetchedAt: s.now()}
	collectPriceCells(doc, page.cells)
	return page, nil
}

// collectPriceCells records the first cell per data-metal value
func collectPriceCells(n *html.Node, cells map[string]priceCell) {
	if n.Type == html.ElementNode {
		if metal := strings.ToLower(attr(n, "data-metal")); metal != "" {
			if _, seen := cells[metal]; !seen {
				cells[metal] = priceCell{text: textContent(n), unit: attr(n, "data-unit")}
			}
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectPriceCells(c, cells)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

// parseDisplayedPrice reads a displayed amount in either "1,234.50" or
// "1.234,50" notation. When both separators appear the last one is the
// decimal point. A lone separator followed by exactly three digits groups
// thousands. A leading minus is kept so negative prices are rejected later.
func parseDisplayedPrice(s string) (decimal.Decimal, error) {
	var b strings.Builder
	negative := false
	for _, r := range s {
		switch {
		case unicode.IsDigit(r), r == '.', r == ',':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			negative = true
		}
	}
	cleaned := strings.Trim(b.String(), ".,")
	if cleaned == "" || strings.IndexFunc(cleaned, unicode.IsDigit) < 0 {
		return decimal.Zero, ErrPriceNotFound
	}

	decimalSep := rune(0)
	lastDot, lastComma := strings.LastIndexByte(cleaned, '.'), strings.LastIndexByte(cleaned, ',')
	switch {
	case lastDot >= 0 && lastComma >= 0:
		decimalSep = '.'
		if lastComma > lastDot {
			decimalSep = ','
		}
	case lastDot >= 0:
		decimalSep = loneSeparator(cleaned, '.')
	case lastComma >= 0:
		decimalSep = loneSeparator(cleaned, ',')
	}

	normalized := strings.Map(func(r rune) rune {
		switch {
		case r == decimalSep:
			return '.'
		case r == '.' || r == ',':
			return -1
		}
		return r
	}, cleaned)
	if negative {
		normalized = "-" + normalized
	}
	return decimal.NewFromString(normalized)
}

// loneSeparator decides whether sep, the only separator kind in s, marks decimals
func loneSeparator(s string, sep byte) rune {
	if strings.Count(s, string(sep)) > 1 {
		return 0
	}
	if len(s)-strings.LastIndexByte(s, sep)-1 == 3 {
		return 0
	}
	return rune(sep)
}
