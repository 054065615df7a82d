package sheets

import (
	"sort"
	"strings"

	"github.com/viniruiz/dashgo/internal/models"
)

// MapRows converts parsed CSV rows (first row = headers) into typed campaign
// records. Column indexes are resolved once against the header row; rows
// whose date cell is not a YYYY-MM-DD string are dropped silently, since
// trailing totals and repeated header rows are expected in exported sheets.
// The result is sorted descending by date. The second return value lists the
// canonical fields that resolved to a column, for the caller's diagnostics.
func MapRows(rows [][]string) ([]models.CampaignRow, []string) {
	if len(rows) == 0 {
		return nil, nil
	}
	headers := rows[0]

	idx := make(map[string]int, len(FieldNames))
	found := make([]string, 0, len(FieldNames))
	for _, f := range FieldNames {
		i := FindColumnIndex(headers, f)
		idx[f] = i
		if i >= 0 {
			found = append(found, f)
		}
	}

	cell := func(row []string, field string) string {
		i := idx[field]
		if i < 0 || i >= len(row) {
			return ""
		}
		return row[i]
	}

	out := make([]models.CampaignRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		date := strings.TrimSpace(cell(row, "date"))
		if !IsISODate(date) {
			continue
		}
		out = append(out, models.CampaignRow{
			Date:         date,
			AccountName:  cell(row, "accountName"),
			CampaignName: cell(row, "campaignName"),
			AdSetName:    cell(row, "adsetName"),
			AdName:       cell(row, "adName"),

			Spend:            ParseBrazilianNumber(cell(row, "spend")),
			Impressions:      ParseIntSafe(cell(row, "impressions")),
			Clicks:           ParseIntSafe(cell(row, "clicks")),
			LinkClicks:       ParseIntSafe(cell(row, "linkClicks")),
			LandingPageViews: ParseIntSafe(cell(row, "landingPageViews")),
			Leads:            ParseIntSafe(cell(row, "leads")),
			Reach:            ParseIntSafe(cell(row, "reach")),
			Frequency:        ParseBrazilianNumber(cell(row, "frequency")),
			Purchases:        ParseIntSafe(cell(row, "purchases")),
			PurchaseValue:    ParseBrazilianNumber(cell(row, "purchaseValue")),
			Checkouts:        ParseIntSafe(cell(row, "checkouts")),
			AddToCart:        ParseIntSafe(cell(row, "addToCart")),
			PageEngagement:   ParseIntSafe(cell(row, "pageEngagement")),
			PostEngagement:   ParseIntSafe(cell(row, "postEngagement")),
			PostReactions:    ParseIntSafe(cell(row, "postReactions")),
			Comments:         ParseIntSafe(cell(row, "comments")),
			Shares:           ParseIntSafe(cell(row, "shares")),
			VideoViews:       ParseIntSafe(cell(row, "videoViews")),
			VideoViews25:     ParseIntSafe(cell(row, "videoViews25")),
			VideoViews50:     ParseIntSafe(cell(row, "videoViews50")),
			VideoViews75:     ParseIntSafe(cell(row, "videoViews75")),
			VideoViews100:    ParseIntSafe(cell(row, "videoViews100")),
			ProfileVisits:    ParseIntSafe(cell(row, "profileVisits")),
			Follows:          ParseIntSafe(cell(row, "follows")),
			Results:          ParseIntSafe(cell(row, "results")),

			CostPerResult: ParseBrazilianNumber(cell(row, "costPerResult")),
			CTR:           ParseBrazilianNumber(cell(row, "ctr")),
			CPC:           ParseBrazilianNumber(cell(row, "cpc")),
			CPM:           ParseBrazilianNumber(cell(row, "cpm")),
			CPL:           ParseBrazilianNumber(cell(row, "cpl")),
			ROAS:          ParseBrazilianNumber(cell(row, "roas")),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, found
}
