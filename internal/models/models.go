package models

import "time"

// CampaignRow is one normalized line of a campaign-performance sheet.
// Numeric cells that are blank or unparseable come through as 0, never NaN.
type CampaignRow struct {
	Date         string `json:"date"` // YYYY-MM-DD
	AccountName  string `json:"account_name"`
	CampaignName string `json:"campaign_name"`
	AdSetName    string `json:"adset_name"`
	AdName       string `json:"ad_name"`

	Spend            float64 `json:"spend"`
	Impressions      int     `json:"impressions"`
	Clicks           int     `json:"clicks"`
	LinkClicks       int     `json:"link_clicks"`
	LandingPageViews int     `json:"landing_page_views"`
	Leads            int     `json:"leads"`
	Reach            int     `json:"reach"`
	Frequency        float64 `json:"frequency"`
	Purchases        int     `json:"purchases"`
	PurchaseValue    float64 `json:"purchase_value"`
	Checkouts        int     `json:"checkouts"`
	AddToCart        int     `json:"add_to_cart"`
	PageEngagement   int     `json:"page_engagement"`
	PostEngagement   int     `json:"post_engagement"`
	PostReactions    int     `json:"post_reactions"`
	Comments         int     `json:"comments"`
	Shares           int     `json:"shares"`
	VideoViews       int     `json:"video_views"`
	VideoViews25     int     `json:"video_views_25"`
	VideoViews50     int     `json:"video_views_50"`
	VideoViews75     int     `json:"video_views_75"`
	VideoViews100    int     `json:"video_views_100"`
	ProfileVisits    int     `json:"profile_visits"`
	Follows          int     `json:"follows"`
	Results          int     `json:"results"`

	// Ratios precomputed by the source sheet; kept as-is for display.
	CostPerResult float64 `json:"cost_per_result"`
	CTR           float64 `json:"ctr"`
	CPC           float64 `json:"cpc"`
	CPM           float64 `json:"cpm"`
	CPL           float64 `json:"cpl"`
	ROAS          float64 `json:"roas"`
}

// AggregatedMetrics is the KPI block derived from a set of campaign rows.
// Every ratio guards its denominator: zero volume yields 0, never Inf/NaN.
type AggregatedMetrics struct {
	TotalSpend            float64 `json:"total_spend"`
	TotalImpressions      int     `json:"total_impressions"`
	TotalClicks           int     `json:"total_clicks"`
	TotalLinkClicks       int     `json:"total_link_clicks"`
	TotalLandingPageViews int     `json:"total_landing_page_views"`
	TotalLeads            int     `json:"total_leads"`
	TotalReach            int     `json:"total_reach"`
	TotalPurchases        int     `json:"total_purchases"`
	TotalPurchaseValue    float64 `json:"total_purchase_value"`
	TotalCheckouts        int     `json:"total_checkouts"`
	TotalVideoViews       int     `json:"total_video_views"`

	AvgCTR         float64 `json:"avg_ctr"`
	AvgCPC         float64 `json:"avg_cpc"`
	AvgCPM         float64 `json:"avg_cpm"`
	AvgCPL         float64 `json:"avg_cpl"`
	AvgROAS        float64 `json:"avg_roas"`
	ConnectRate    float64 `json:"connect_rate"`    // landing views / link clicks
	ConversionRate float64 `json:"conversion_rate"` // leads / landing views

	UniqueCampaigns int `json:"unique_campaigns"`
	UniqueAds       int `json:"unique_ads"`
}

// DailyData is one day's rollup, ordered ascending by date.
type DailyData struct {
	Date          string  `json:"date"`
	Spend         float64 `json:"spend"`
	Impressions   int     `json:"impressions"`
	Clicks        int     `json:"clicks"`
	LinkClicks    int     `json:"link_clicks"`
	Leads         int     `json:"leads"`
	Purchases     int     `json:"purchases"`
	PurchaseValue float64 `json:"purchase_value"`
}

// CampaignSummary is one campaign's rollup, ordered descending by spend.
type CampaignSummary struct {
	Name          string  `json:"name"`
	Spend         float64 `json:"spend"`
	Impressions   int     `json:"impressions"`
	LinkClicks    int     `json:"link_clicks"`
	Leads         int     `json:"leads"`
	Purchases     int     `json:"purchases"`
	PurchaseValue float64 `json:"purchase_value"`
	CTR           float64 `json:"ctr"`
	CPC           float64 `json:"cpc"`
	CPL           float64 `json:"cpl"`
}

type Pipeline struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	Stages      []Stage   `json:"stages,omitempty"`
}

type Stage struct {
	ID           string   `json:"id"`
	PipelineID   string   `json:"pipeline_id"`
	Name         string   `json:"name"`
	Color        string   `json:"color"`
	OrderIndex   int      `json:"order_index"`
	DefaultValue *float64 `json:"default_value,omitempty"`
	LeadCount    int      `json:"lead_count"` // computed at read time, not stored
}

type Lead struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	PipelineID   string         `json:"pipeline_id"`
	StageID      *string        `json:"stage_id"` // nil = "no stage"
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone"`
	Company      string         `json:"company"`
	Origin       string         `json:"origin"`
	UTMSource    string         `json:"utm_source"`
	UTMMedium    string         `json:"utm_medium"`
	UTMCampaign  string         `json:"utm_campaign"`
	UTMTerm      string         `json:"utm_term"`
	UTMContent   string         `json:"utm_content"`
	CustomFields map[string]any `json:"custom_fields,omitempty"`
	AssignedTo   string         `json:"assigned_to"`
	DealValue    *float64       `json:"deal_value,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Tags         []Tag          `json:"tags,omitempty"`
}

// StageHistory is the append-only log of stage transitions. The lead's
// current stage_id is a cache of the most recent ToStageID here.
type StageHistory struct {
	ID          int64     `json:"id"`
	LeadID      string    `json:"lead_id"`
	FromStageID *string   `json:"from_stage_id"` // nil for initial placement
	ToStageID   string    `json:"to_stage_id"`
	MovedAt     time.Time `json:"moved_at"`
	MovedBy     string    `json:"moved_by"` // "api", "webhook", "system", "user", "bulk_recovery"
}

type Tag struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
}

// FunnelStage is one bucket of a cohort funnel: leads created inside the
// window whose current stage is this one.
type FunnelStage struct {
	StageID    string `json:"stage_id"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	OrderIndex int    `json:"order_index"`
	Count      int    `json:"count"`
}
