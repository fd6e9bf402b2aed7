package retail

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	errx "github.com/retail-assistant/server/internal/core/error"
	"github.com/retail-assistant/server/internal/store"
	logx "github.com/retail-assistant/server/pkg/logger"
)

var (
	rangePattern = regexp.MustCompile(`\b(?:between|from)?\s*(\d+(?:\.\d+)?)\s*(k)?\s*(?:to|and|-)\s*(\d+(?:\.\d+)?)\s*(k)?\b`)
	underPattern = regexp.MustCompile(`\b(?:under|below|less than)\s*(\d+(?:\.\d+)?)\s*(k)?\b`)
	overPattern  = regexp.MustCompile(`\b(?:over|above|more than)\s*(\d+(?:\.\d+)?)\s*(k)?\b`)
	nonWord      = regexp.MustCompile(`[^a-z0-9\s]`)
)

var searchStopwords = map[string]struct{}{
	"show": {}, "find": {}, "list": {}, "give": {}, "me": {}, "under": {}, "below": {},
	"less": {}, "than": {}, "over": {}, "above": {}, "more": {}, "between": {}, "and": {},
	"to": {}, "from": {}, "price": {}, "priced": {}, "products": {}, "items": {}, "the": {},
	"of": {}, "for": {}, "with": {}, "in": {},
}

func amount(num, k string) float64 {
	v, _ := strconv.ParseFloat(num, 64)
	if k != "" {
		v *= 1000
	}
	return v
}

// ParsePriceFilter recognises "between 30k and 50k", "under 60k" and
// "over 30000" style phrases. A k suffix multiplies by 1000.
func ParsePriceFilter(text string) store.PriceFilter {
	t := strings.NewReplacer(",", "", "₹", "").Replace(strings.ToLower(text))

	if m := rangePattern.FindStringSubmatch(t); m != nil {
		lo, hi := amount(m[1], m[2]), amount(m[3], m[4])
		if lo > hi {
			lo, hi = hi, lo
		}
		return store.PriceFilter{Op: "between", Low: lo, High: hi}
	}
	if m := underPattern.FindStringSubmatch(t); m != nil {
		return store.PriceFilter{Op: "<", High: amount(m[1], m[2])}
	}
	if m := overPattern.FindStringSubmatch(t); m != nil {
		return store.PriceFilter{Op: ">", Low: amount(m[1], m[2])}
	}
	return store.PriceFilter{}
}

// ExtractTerms lowercases, drops punctuation, numbers and stopwords, then
// strips a plural s from words longer than three letters.
func ExtractTerms(text string) []string {
	t := strings.NewReplacer("₹", " ", ",", " ").Replace(strings.ToLower(text))
	t = nonWord.ReplaceAllString(t, " ")

	var terms []string
	for _, w := range strings.Fields(t) {
		if _, err := strconv.Atoi(w); err == nil {
			continue
		}
		if _, stop := searchStopwords[w]; stop {
			continue
		}
		if len(w) > 3 && strings.HasSuffix(w, "s") {
			w = w[:len(w)-1]
		}
		terms = append(terms, w)
	}
	return terms
}

func (s *Service) SearchProducts(ctx context.Context, text string) ProductList {
	rows, err := s.store.SearchProducts(ctx, ExtractTerms(text), ParsePriceFilter(text), ProductSearchLimit)
	return productList(text, rows, err)
}

func (s *Service) ProductsInCategory(ctx context.Context, category string) ProductList {
	rows, err := s.store.ProductsByCategory(ctx, category, ProductSearchLimit)
	return productList(category, rows, err)
}

// PriceOfProduct returns the closest name matches first.
func (s *Service) PriceOfProduct(ctx context.Context, name string) ProductList {
	rows, err := s.store.ProductsByName(ctx, name, PriceLookupLimit)
	return productList(name, rows, err)
}

func productList(query string, rows []store.Product, err error) ProductList {
	if err != nil {
		logx.Warn().Err(err).Str("query", query).Msg("Product lookup failed")
		return ProductList{Found: false, Query: query, Products: []ProductSummary{}, Error: errx.StoreErrorMessage}
	}
	out := make([]ProductSummary, 0, len(rows))
	for _, p := range rows {
		out = append(out, ProductSummary{ID: p.ID, Name: p.Name, Category: p.Category, Price: p.Price})
	}
	return ProductList{Found: len(out) > 0, Query: query, Products: out}
}
