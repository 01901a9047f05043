// Package serp turns provider-specific SERP responses into canonical records
// and classifies listings against a competitor list.
package serp

import (
	"encoding/json"
	"fmt"
	"strings"

	"serpwatch/models"
)

// Shape identifies the field-naming dialect of a provider response. Provider
// APIs are not contractually stable in field naming, so each shape carries an
// ordered fallback-key table per canonical field and extraction walks it
// instead of probing keys ad hoc.
type Shape int

const (
	// ShapeAds holds paid listings under "ads"; the provider supplies no
	// rank, so position is the 1-based response order.
	ShapeAds Shape = iota
	// ShapeOrganic holds organic listings under "organic_results" with an
	// explicit position when the provider supplies one.
	ShapeOrganic
)

// ParseShape maps a config value to a Shape.
func ParseShape(name string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ads":
		return ShapeAds, nil
	case "organic":
		return ShapeOrganic, nil
	}
	return 0, fmt.Errorf("unknown provider shape %q", name)
}

func (s Shape) String() string {
	if s == ShapeOrganic {
		return "organic"
	}
	return "ads"
}

// shapeSpec lists, per canonical field, the provider keys to try in order.
type shapeSpec struct {
	listings    []string
	position    []string // empty when the dialect never carries a rank
	title       []string
	description []string
	link        []string
}

var shapeSpecs = map[Shape]shapeSpec{
	ShapeAds: {
		listings:    []string{"ads", "ad_results"},
		title:       []string{"title"},
		description: []string{"description", "snippet"},
		link:        []string{"link", "url"},
	},
	ShapeOrganic: {
		listings:    []string{"organic_results", "organic"},
		position:    []string{"position", "rank"},
		title:       []string{"title"},
		description: []string{"snippet", "description"},
		link:        []string{"link", "url"},
	},
}

// Related searches use the same keys in both dialects.
var (
	relatedKeys = []string{"related_searches", "relatedSearches"}
	queryKeys   = []string{"query", "text"}
)

// Normalize extracts canonical listings and related searches from a raw
// provider response. It is total: missing or renamed keys resolve through the
// shape's fallback table and absent values become empty strings. Listing
// order follows the response, which also supplies the default position.
func Normalize(raw map[string]any, shape Shape) ([]models.Listing, []models.RelatedSearch) {
	spec := shapeSpecs[shape]

	items := firstList(raw, spec.listings)
	listings := make([]models.Listing, 0, len(items))
	for _, it := range items {
		item, ok := it.(map[string]any)
		if !ok {
			continue
		}
		position := len(listings) + 1
		if len(spec.position) > 0 {
			if p, ok := firstInt(item, spec.position); ok {
				position = p
			}
		}
		listings = append(listings, models.Listing{
			Position:    position,
			Title:       firstString(item, spec.title),
			Description: firstString(item, spec.description),
			Link:        firstString(item, spec.link),
		})
	}

	var related []models.RelatedSearch
	for _, it := range firstList(raw, relatedKeys) {
		query := ""
		switch item := it.(type) {
		case map[string]any:
			query = firstString(item, queryKeys)
		case string:
			query = item
		}
		if query == "" {
			// Absent query is not actionable data; drop silently.
			continue
		}
		related = append(related, models.RelatedSearch{Query: query})
	}

	return listings, related
}

func firstList(raw map[string]any, keys []string) []any {
	for _, key := range keys {
		if items, ok := raw[key].([]any); ok && len(items) > 0 {
			return items
		}
	}
	return nil
}

func firstString(item map[string]any, keys []string) string {
	for _, key := range keys {
		if s, ok := item[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstInt(item map[string]any, keys []string) (int, bool) {
	for _, key := range keys {
		switch v := item[key].(type) {
		case float64:
			if v > 0 {
				return int(v), true
			}
		case int:
			if v > 0 {
				return v, true
			}
		case json.Number:
			if n, err := v.Int64(); err == nil && n > 0 {
				return int(n), true
			}
		}
	}
	return 0, false
}
