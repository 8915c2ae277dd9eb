package model

// Nudge is a behavioural suggestion for the user.
type Nudge struct {
	Title      string  `json:"title"`
	Message    string  `json:"message"`
	WhyThis    string  `json:"why_this"`
	ActionStep string  `json:"action_step"`
	Confidence float64 `json:"confidence"`
}

// Valid checks that all text fields are populated and confidence is within range.
func (n Nudge) Valid() bool {
	return n.Title != "" && n.Message != "" && n.WhyThis != "" && n.ActionStep != "" &&
		n.Confidence >= 0 && n.Confidence <= 1
}

// Summary is the aggregate view of an analysis shared with external nudge services.
// It never carries the card id or any transaction.
type Summary struct {
	Score      int                `json:"risk_score"`
	Band       Band               `json:"risk_band"`
	Profile    string             `json:"profile_label"`
	TopDrivers []string           `json:"top_drivers"`
	Metrics    map[string]float64 `json:"metrics"`
}
