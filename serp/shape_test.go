package serp

import (
	"encoding/json"
	"testing"

	"serpwatch/models"
)

func decode(t *testing.T, payload string) map[string]any {
	t.Helper()
	var raw map[string]any
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return raw
}

func TestParseShape(t *testing.T) {
	tests := []struct {
		name    string
		want    Shape
		wantErr bool
	}{
		{name: "ads", want: ShapeAds},
		{name: " Organic ", want: ShapeOrganic},
		{name: "maps", wantErr: true},
		{name: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseShape(tt.name)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.name)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("ParseShape(%q) = %v, %v", tt.name, got, err)
			}
		})
	}
}

func TestNormalizeAdsShape(t *testing.T) {
	raw := decode(t, `{
		"ads": [
			{"title": "ABC Dental", "link": "http://competitor-x.com/ad"},
			{"title": "Second", "snippet": "from snippet", "url": "http://other.example"}
		]
	}`)

	listings, related := Normalize(raw, ShapeAds)
	if len(listings) != 2 {
		t.Fatalf("listings = %d, want 2", len(listings))
	}
	if len(related) != 0 {
		t.Fatalf("related = %d, want 0", len(related))
	}

	first := listings[0]
	if first.Position != 1 || first.Title != "ABC Dental" || first.Link != "http://competitor-x.com/ad" {
		t.Fatalf("unexpected first listing: %+v", first)
	}
	if first.Description != "" {
		t.Fatalf("missing description should be empty, got %q", first.Description)
	}

	second := listings[1]
	if second.Position != 2 {
		t.Fatalf("position = %d, want enumeration index 2", second.Position)
	}
	if second.Description != "from snippet" {
		t.Fatalf("description fallback = %q, want snippet value", second.Description)
	}
	if second.Link != "http://other.example" {
		t.Fatalf("link fallback = %q, want url value", second.Link)
	}
}

func TestNormalizeAdsFallbackSection(t *testing.T) {
	raw := decode(t, `{"ad_results": [{"title": "Fallback Ad"}]}`)

	listings, _ := Normalize(raw, ShapeAds)
	if len(listings) != 1 || listings[0].Title != "Fallback Ad" {
		t.Fatalf("unexpected listings: %+v", listings)
	}
}

func TestNormalizeOrganicShape(t *testing.T) {
	raw := decode(t, `{
		"organic_results": [
			{"position": 3, "title": "Ranked", "snippet": "desc", "link": "http://a.example"},
			{"rank": 7, "title": "Rank fallback", "description": "alt desc", "url": "http://b.example"},
			{"title": "No rank"}
		],
		"related_searches": [
			{"query": "牙醫推薦"},
			{"text": "text fallback"},
			{"note": "neither key"},
			{}
		]
	}`)

	listings, related := Normalize(raw, ShapeOrganic)
	if len(listings) != 3 {
		t.Fatalf("listings = %d, want 3", len(listings))
	}
	if listings[0].Position != 3 {
		t.Fatalf("explicit position = %d, want 3", listings[0].Position)
	}
	if listings[1].Position != 7 {
		t.Fatalf("rank fallback position = %d, want 7", listings[1].Position)
	}
	if listings[1].Description != "alt desc" {
		t.Fatalf("description = %q, want alt desc", listings[1].Description)
	}
	if listings[2].Position != 3 {
		t.Fatalf("enumeration position = %d, want 3", listings[2].Position)
	}
	if listings[2].Link != "" || listings[2].Description != "" {
		t.Fatalf("absent fields should be empty strings: %+v", listings[2])
	}

	if len(related) != 2 {
		t.Fatalf("related = %d, want 2 (items without query dropped)", len(related))
	}
	if related[0].Query != "牙醫推薦" || related[1].Query != "text fallback" {
		t.Fatalf("unexpected related searches: %+v", related)
	}
}

func TestNormalizeOrganicSectionFallbacks(t *testing.T) {
	raw := decode(t, `{
		"organic": [{"title": "Old key"}],
		"relatedSearches": [{"query": "camelCase section"}]
	}`)

	listings, related := Normalize(raw, ShapeOrganic)
	if len(listings) != 1 || listings[0].Title != "Old key" {
		t.Fatalf("unexpected listings: %+v", listings)
	}
	if len(related) != 1 || related[0].Query != "camelCase section" {
		t.Fatalf("unexpected related searches: %+v", related)
	}
}

func TestNormalizeEmptyAndMalformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		shape   Shape
	}{
		{name: "empty document", payload: `{}`, shape: ShapeAds},
		{name: "empty sections", payload: `{"organic_results": [], "related_searches": []}`, shape: ShapeOrganic},
		{name: "unrelated keys", payload: `{"searchParameters": {"q": "x"}}`, shape: ShapeAds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listings, related := Normalize(decode(t, tt.payload), tt.shape)
			if len(listings) != 0 || len(related) != 0 {
				t.Fatalf("expected no records, got %d listings %d related", len(listings), len(related))
			}
		})
	}
}

func TestNormalizeSkipsNonObjectListings(t *testing.T) {
	raw := decode(t, `{"ads": ["bogus", {"title": "Real"}]}`)

	listings, _ := Normalize(raw, ShapeAds)
	if len(listings) != 1 {
		t.Fatalf("listings = %d, want 1", len(listings))
	}
	if listings[0].Position != 1 || listings[0].Title != "Real" {
		t.Fatalf("unexpected listing: %+v", listings[0])
	}
}

func TestNormalizePreservesOrder(t *testing.T) {
	raw := decode(t, `{"ads": [
		{"title": "first"}, {"title": "second"}, {"title": "third"}
	]}`)

	listings, _ := Normalize(raw, ShapeAds)
	want := []string{"first", "second", "third"}
	for i, title := range want {
		if listings[i].Title != title || listings[i].Position != i+1 {
			t.Fatalf("listing %d = %+v, want title %q position %d", i, listings[i], title, i+1)
		}
	}
}

func TestNormalizeStringRelatedSearch(t *testing.T) {
	raw := decode(t, `{"related_searches": ["plain string", ""]}`)

	_, related := Normalize(raw, ShapeAds)
	if len(related) != 1 || related[0].Query != "plain string" {
		t.Fatalf("unexpected related searches: %+v", related)
	}
	if (related[0] != models.RelatedSearch{Query: "plain string"}) {
		t.Fatalf("seed should be empty before the pipeline stamps it: %+v", related[0])
	}
}
