package model

// AnalyzeResult is the full explanation for one user.
type AnalyzeResult struct {
	CardID      string      `json:"card_id"`
	Score       int         `json:"risk_score"`
	Band        Band        `json:"risk_band"`
	Breakdown   Vector      `json:"score_breakdown"`
	TopDrivers  []string    `json:"top_drivers"`
	Profile     Persona     `json:"profile"`
	ChartSeries ChartSeries `json:"chart_series"`
	Evidence    []string    `json:"evidence"`
}

// ChartSeries are chart ready aggregates for the presentation layer.
type ChartSeries struct {
	DailySpend []DailyPoint    `json:"daily_spend"`
	Hourly     []HourCount     `json:"hourly_counts"`
	Categories []CategoryShare `json:"category_distribution"`
	EOM        EOMComparison   `json:"eom_comparison"`
}

// DailyPoint is the spend of one calendar day.
type DailyPoint struct {
	Date    string  `json:"date"`
	Value   float64 `json:"value"`
	IsSpike bool    `json:"is_spike"`
}

// HourCount is the number of transactions in one hour of the day.
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// CategoryShare is the share of spend for one category.
type CategoryShare struct {
	Category string  `json:"category"`
	Share    float64 `json:"share"`
}

// EOMComparison contrasts end-of-month spend with the rest of the month.
type EOMComparison struct {
	Last5Days   float64 `json:"last_5_days"`
	RestOfMonth float64 `json:"rest_of_month"`
}
