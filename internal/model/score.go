package model

// Band is the risk band of an impulse score.
type Band string

const (
	Low      Band = "Low"
	Medium   Band = "Medium"
	High     Band = "High"
	Critical Band = "Critical"
)

// Bands lists the bands from lowest to highest.
var Bands = []Band{Low, Medium, High, Critical}

// BandOf maps a score to its band.
// Thresholds are inclusive on the upper side: Low [0,25], Medium (25,50], High (50,75], Critical (75,100].
func BandOf(score int) Band {
	switch {
	case score <= 25:
		return Low
	case score <= 50:
		return Medium
	case score <= 75:
		return High
	default:
		return Critical
	}
}

// RiskScore is the composite impulse score of a user.
type RiskScore struct {
	CardID    string `json:"card_id"`
	Value     int    `json:"value"`
	Band      Band   `json:"band"`
	Breakdown Vector `json:"breakdown"`
}
