// Package metrics reduces campaign rows into the KPI, daily and per-campaign
// views the dashboard renders. Everything here is a pure function of its
// input: aggregates are never persisted and re-running on the same rows and
// range yields identical output.
package metrics

import (
	"sort"

	"github.com/viniruiz/dashgo/internal/models"
)

// DateRange bounds a query inclusively on both ends. Dates are fixed-width
// ISO strings, so plain string comparison is a valid order.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Result bundles the three views computed from one row set. HasData lets
// clients distinguish "no rows in range" from a genuinely all-zero period.
type Result struct {
	HasData   bool                     `json:"has_data"`
	Metrics   models.AggregatedMetrics `json:"metrics"`
	Daily     []models.DailyData       `json:"daily_data"`
	Campaigns []models.CampaignSummary `json:"campaign_summary"`
}

// FilterByDate returns the rows whose date falls inside r, inclusive. A nil
// range returns rows unchanged.
func FilterByDate(rows []models.CampaignRow, r *DateRange) []models.CampaignRow {
	if r == nil {
		return rows
	}
	out := make([]models.CampaignRow, 0, len(rows))
	for _, row := range rows {
		if row.Date >= r.Start && row.Date <= r.End {
			out = append(out, row)
		}
	}
	return out
}

// Aggregate folds the (optionally date-filtered) rows into totals, derived
// ratios, per-day rollups and per-campaign rollups. Zero rows produces a
// fully zeroed result, never nil fields.
func Aggregate(rows []models.CampaignRow, r *DateRange) Result {
	rows = FilterByDate(rows, r)

	var m models.AggregatedMetrics
	campaigns := map[string]struct{}{}
	ads := map[string]struct{}{}

	for _, row := range rows {
		m.TotalSpend += row.Spend
		m.TotalImpressions += row.Impressions
		m.TotalClicks += row.Clicks
		m.TotalLinkClicks += row.LinkClicks
		m.TotalLandingPageViews += row.LandingPageViews
		m.TotalLeads += row.Leads
		m.TotalReach += row.Reach
		m.TotalPurchases += row.Purchases
		m.TotalPurchaseValue += row.PurchaseValue
		m.TotalCheckouts += row.Checkouts
		m.TotalVideoViews += row.VideoViews
		if row.CampaignName != "" {
			campaigns[row.CampaignName] = struct{}{}
		}
		if row.AdName != "" {
			ads[row.AdName] = struct{}{}
		}
	}

	m.AvgCTR = safePct(float64(m.TotalLinkClicks), float64(m.TotalImpressions))
	m.AvgCPC = safeDiv(m.TotalSpend, float64(m.TotalLinkClicks))
	m.AvgCPM = safeDiv(m.TotalSpend, float64(m.TotalImpressions)) * 1000
	m.AvgCPL = safeDiv(m.TotalSpend, float64(m.TotalLeads))
	if m.TotalSpend > 0 && m.TotalPurchaseValue > 0 {
		m.AvgROAS = m.TotalPurchaseValue / m.TotalSpend
	}
	m.ConnectRate = safePct(float64(m.TotalLandingPageViews), float64(m.TotalLinkClicks))
	m.ConversionRate = safePct(float64(m.TotalLeads), float64(m.TotalLandingPageViews))
	m.UniqueCampaigns = len(campaigns)
	m.UniqueAds = len(ads)

	return Result{
		HasData:   len(rows) > 0,
		Metrics:   m,
		Daily:     dailyRollup(rows),
		Campaigns: campaignRollup(rows),
	}
}

func dailyRollup(rows []models.CampaignRow) []models.DailyData {
	byDay := map[string]*models.DailyData{}
	for _, row := range rows {
		d, ok := byDay[row.Date]
		if !ok {
			d = &models.DailyData{Date: row.Date}
			byDay[row.Date] = d
		}
		d.Spend += row.Spend
		d.Impressions += row.Impressions
		d.Clicks += row.Clicks
		d.LinkClicks += row.LinkClicks
		d.Leads += row.Leads
		d.Purchases += row.Purchases
		d.PurchaseValue += row.PurchaseValue
	}
	out := make([]models.DailyData, 0, len(byDay))
	for _, d := range byDay {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func campaignRollup(rows []models.CampaignRow) []models.CampaignSummary {
	byName := map[string]*models.CampaignSummary{}
	for _, row := range rows {
		name := row.CampaignName
		if name == "" {
			continue
		}
		c, ok := byName[name]
		if !ok {
			c = &models.CampaignSummary{Name: name}
			byName[name] = c
		}
		c.Spend += row.Spend
		c.Impressions += row.Impressions
		c.LinkClicks += row.LinkClicks
		c.Leads += row.Leads
		c.Purchases += row.Purchases
		c.PurchaseValue += row.PurchaseValue
	}

	out := make([]models.CampaignSummary, 0, len(byName))
	for _, c := range byName {
		// ratios only after the fold is complete
		c.CTR = safePct(float64(c.LinkClicks), float64(c.Impressions))
		c.CPC = safeDiv(c.Spend, float64(c.LinkClicks))
		c.CPL = safeDiv(c.Spend, float64(c.Leads))
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Spend != out[j].Spend {
			return out[i].Spend > out[j].Spend
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func safeDiv(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}

func safePct(num, den float64) float64 {
	return safeDiv(num, den) * 100
}
