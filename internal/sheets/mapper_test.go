package sheets

import (
	"slices"
	"testing"
)

func TestMapRowsScenario(t *testing.T) {
	rows := ParseCSV("Date,Campaign Name,Spend,Impressions,Action Link Clicks\n2025-01-15,Black Friday,100,50,10\n")
	records, found := MapRows(rows)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.Date != "2025-01-15" {
		t.Errorf("date = %q", r.Date)
	}
	if r.CampaignName != "Black Friday" {
		t.Errorf("campaignName = %q", r.CampaignName)
	}
	if r.Spend != 100 {
		t.Errorf("spend = %v", r.Spend)
	}
	if r.Impressions != 50 {
		t.Errorf("impressions = %d", r.Impressions)
	}
	if r.LinkClicks != 10 {
		t.Errorf("linkClicks = %d", r.LinkClicks)
	}
	for _, f := range []string{"date", "campaignName", "spend", "impressions", "linkClicks"} {
		if !slices.Contains(found, f) {
			t.Errorf("columns found missing %q: %v", f, found)
		}
	}
}

func TestMapRowsDropsInvalidDates(t *testing.T) {
	rows := ParseCSV("Date,Spend\n2025-01-15,10\nTotal,999\n,5\n2025-01-16,20\n")
	records, _ := MapRows(rows)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for _, r := range records {
		if !IsISODate(r.Date) {
			t.Errorf("invalid date survived: %q", r.Date)
		}
	}
}

func TestMapRowsSortedDescending(t *testing.T) {
	rows := ParseCSV("Date,Spend\n2025-01-14,1\n2025-01-16,2\n2025-01-15,3\n")
	records, _ := MapRows(rows)
	want := []string{"2025-01-16", "2025-01-15", "2025-01-14"}
	for i, r := range records {
		if r.Date != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, r.Date, want[i])
		}
	}
}

func TestMapRowsMissingColumnsDefaultZero(t *testing.T) {
	rows := ParseCSV("Date\n2025-01-15\n")
	records, found := MapRows(rows)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Spend != 0 || records[0].Leads != 0 || records[0].CampaignName != "" {
		t.Errorf("missing columns should default to zero values: %+v", records[0])
	}
	if len(found) != 1 || found[0] != "date" {
		t.Errorf("columns found = %v, want [date]", found)
	}
}

func TestMapRowsBrazilianNumbers(t *testing.T) {
	rows := ParseCSV("Data,Valor usado,Cliques no link\n2025-02-01,\"1.234,56\",300\n")
	records, _ := MapRows(rows)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Spend != 1234.56 {
		t.Errorf("spend = %v, want 1234.56", records[0].Spend)
	}
	if records[0].LinkClicks != 300 {
		t.Errorf("linkClicks = %d, want 300", records[0].LinkClicks)
	}
}

func TestMapRowsEmpty(t *testing.T) {
	records, found := MapRows(nil)
	if records != nil || found != nil {
		t.Fatalf("expected nil results for nil input")
	}
}
