package sheets

import (
	"context"
	"reflect"
	"testing"
)

func TestReadConfig(t *testing.T) {
	store := NewMemStore()
	table := store.Seed("Config", [][]string{
		{"Keywords", "Competitors"},
		{" 牙醫診所 ", " Competitor-X "},
		{"植牙 費用", ""},
		{"", "ACME"},
		{"   ", "  "},
	})

	keywords, competitors, err := ReadConfig(context.Background(), table)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}

	wantKeywords := []string{"牙醫診所", "植牙 費用"}
	if !reflect.DeepEqual(keywords, wantKeywords) {
		t.Fatalf("keywords = %v, want %v", keywords, wantKeywords)
	}

	wantCompetitors := []string{"competitor-x", "acme"}
	if !reflect.DeepEqual(competitors, wantCompetitors) {
		t.Fatalf("competitors = %v, want %v", competitors, wantCompetitors)
	}
}

func TestReadConfigHeaderOnly(t *testing.T) {
	store := NewMemStore()
	table := store.Seed("Config", [][]string{{"Keywords", "Competitors"}})

	keywords, competitors, err := ReadConfig(context.Background(), table)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if len(keywords) != 0 || len(competitors) != 0 {
		t.Fatalf("expected empty config, got %v / %v", keywords, competitors)
	}
}

func TestReadConfigEmptyTable(t *testing.T) {
	store := NewMemStore()
	table := store.Seed("Config", nil)

	keywords, competitors, err := ReadConfig(context.Background(), table)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if keywords != nil || competitors != nil {
		t.Fatalf("expected nil slices, got %v / %v", keywords, competitors)
	}
}
