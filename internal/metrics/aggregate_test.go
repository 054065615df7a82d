package metrics

import (
	"math"
	"reflect"
	"testing"

	"github.com/viniruiz/dashgo/internal/models"
)

func sampleRows() []models.CampaignRow {
	return []models.CampaignRow{
		{Date: "2025-01-15", CampaignName: "Black Friday", AdName: "BF-1", Spend: 100, Impressions: 50, LinkClicks: 10, LandingPageViews: 8, Leads: 4, Purchases: 1, PurchaseValue: 500},
		{Date: "2025-01-16", CampaignName: "Black Friday", AdName: "BF-2", Spend: 50, Impressions: 100, LinkClicks: 20, LandingPageViews: 10, Leads: 1},
		{Date: "2025-01-17", CampaignName: "Always On", AdName: "AO-1", Spend: 200, Impressions: 400, LinkClicks: 40, Leads: 5, Purchases: 2, PurchaseValue: 300},
	}
}

func TestAggregateTotals(t *testing.T) {
	res := Aggregate(sampleRows(), nil)
	m := res.Metrics
	if m.TotalSpend != 350 {
		t.Errorf("totalSpend = %v, want 350", m.TotalSpend)
	}
	if m.TotalImpressions != 550 {
		t.Errorf("totalImpressions = %d, want 550", m.TotalImpressions)
	}
	if m.TotalLinkClicks != 70 {
		t.Errorf("totalLinkClicks = %d, want 70", m.TotalLinkClicks)
	}
	if m.TotalLeads != 10 {
		t.Errorf("totalLeads = %d, want 10", m.TotalLeads)
	}
	if m.UniqueCampaigns != 2 {
		t.Errorf("uniqueCampaigns = %d, want 2", m.UniqueCampaigns)
	}
	if m.UniqueAds != 3 {
		t.Errorf("uniqueAds = %d, want 3", m.UniqueAds)
	}
}

func TestAggregateScenarioCTR(t *testing.T) {
	rows := []models.CampaignRow{
		{Date: "2025-01-15", CampaignName: "Black Friday", Spend: 100, Impressions: 50, LinkClicks: 10},
	}
	res := Aggregate(rows, nil)
	if res.Metrics.AvgCTR != 20 {
		t.Fatalf("avgCtr = %v, want 20", res.Metrics.AvgCTR)
	}
	if res.Metrics.AvgCPC != 10 {
		t.Fatalf("avgCpc = %v, want 10", res.Metrics.AvgCPC)
	}
}

func TestAggregateDateFilterInclusive(t *testing.T) {
	res := Aggregate(sampleRows(), &DateRange{Start: "2025-01-15", End: "2025-01-16"})
	if res.Metrics.TotalSpend != 150 {
		t.Errorf("filtered totalSpend = %v, want 150", res.Metrics.TotalSpend)
	}
	if len(res.Daily) != 2 {
		t.Errorf("daily buckets = %d, want 2", len(res.Daily))
	}

	// outside-window rows contribute nothing
	res = Aggregate(sampleRows(), &DateRange{Start: "2024-01-01", End: "2024-12-31"})
	if res.Metrics.TotalSpend != 0 || res.Metrics.TotalLeads != 0 {
		t.Errorf("out-of-range rows leaked into metrics: %+v", res.Metrics)
	}
	if res.HasData {
		t.Error("hasData must be false for an empty window")
	}
}

func TestAggregateZeroDivisionSafety(t *testing.T) {
	for _, rows := range [][]models.CampaignRow{
		nil,
		{{Date: "2025-01-15", Spend: 0, Impressions: 0, LinkClicks: 0}},
	} {
		m := Aggregate(rows, nil).Metrics
		for name, v := range map[string]float64{
			"avgCtr": m.AvgCTR, "avgCpc": m.AvgCPC, "avgCpm": m.AvgCPM,
			"avgCpl": m.AvgCPL, "avgRoas": m.AvgROAS,
			"connectRate": m.ConnectRate, "conversionRate": m.ConversionRate,
		} {
			if v != 0 {
				t.Errorf("%s = %v, want 0", name, v)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("%s not finite: %v", name, v)
			}
		}
	}
}

func TestAggregateROASNeedsBothPositive(t *testing.T) {
	rows := []models.CampaignRow{{Date: "2025-01-15", Spend: 0, PurchaseValue: 500}}
	if roas := Aggregate(rows, nil).Metrics.AvgROAS; roas != 0 {
		t.Fatalf("roas = %v, want 0 with zero spend", roas)
	}
	rows = []models.CampaignRow{{Date: "2025-01-15", Spend: 100, PurchaseValue: 500}}
	if roas := Aggregate(rows, nil).Metrics.AvgROAS; roas != 5 {
		t.Fatalf("roas = %v, want 5", roas)
	}
}

func TestAggregateIdempotent(t *testing.T) {
	r := &DateRange{Start: "2025-01-15", End: "2025-01-17"}
	a := Aggregate(sampleRows(), r)
	b := Aggregate(sampleRows(), r)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("aggregate is not deterministic for identical input")
	}
}

func TestDailySortedAscending(t *testing.T) {
	res := Aggregate(sampleRows(), nil)
	for i := 1; i < len(res.Daily); i++ {
		if res.Daily[i-1].Date >= res.Daily[i].Date {
			t.Fatalf("daily data out of order: %s before %s", res.Daily[i-1].Date, res.Daily[i].Date)
		}
	}
}

func TestCampaignSummarySortedBySpend(t *testing.T) {
	res := Aggregate(sampleRows(), nil)
	if len(res.Campaigns) != 2 {
		t.Fatalf("campaigns = %d, want 2", len(res.Campaigns))
	}
	if res.Campaigns[0].Name != "Always On" || res.Campaigns[0].Spend != 200 {
		t.Errorf("top campaign = %+v, want Always On at 200", res.Campaigns[0])
	}
	// post-fold ratios on the Black Friday bucket: 30 clicks / 150 impressions
	bf := res.Campaigns[1]
	if bf.CTR != 20 {
		t.Errorf("bf ctr = %v, want 20", bf.CTR)
	}
	if bf.CPC != 5 {
		t.Errorf("bf cpc = %v, want 5", bf.CPC)
	}
	if bf.CPL != 30 {
		t.Errorf("bf cpl = %v, want 30", bf.CPL)
	}
}
