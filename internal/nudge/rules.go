package nudge

import (
	"fmt"
	"math"

	"github.com/drakos74/impulse/internal/model"
)

const (
	// MaxNudges is the maximum number of nudges returned for one user.
	MaxNudges = 5
	// decay is the confidence lost for every rank position.
	decay = 0.05
	// minConfidence is the lowest confidence a ranked rule nudge can decay to.
	minConfidence = 0.5
)

var rules = map[model.Component]model.Nudge{
	model.Spike: {
		Title:      "Pause before big days",
		Message:    "Some days your spending jumps well above your usual level.",
		WhyThis:    "Your daily spend or transaction count shows pronounced spikes.",
		ActionStep: "Sleep on any unplanned purchase above your usual daily spend.",
		Confidence: 0.8,
	},
	model.Burst: {
		Title:      "Cooldown after bursts",
		Message:    "You tend to make several purchases in quick succession. A short pause can help.",
		WhyThis:    "Your burst buying pattern suggests impulse clustering.",
		ActionStep: "Wait 15-30 minutes before a second purchase in the same session.",
		Confidence: 0.85,
	},
	model.EOM: {
		Title:      "End-of-month cap",
		Message:    "Spending often rises in the last days of the month.",
		WhyThis:    "Your end-of-month surge ratio is elevated.",
		ActionStep: "Set a weekly discretionary cap in the last week of the month.",
		Confidence: 0.8,
	},
	model.Timing: {
		Title:      "Sleep-mode spending",
		Message:    "Late-night transactions can be more impulsive.",
		WhyThis:    "A notable share of your transactions occur late at night.",
		ActionStep: "Avoid making non-essential purchases between 22:00 and 05:00.",
		Confidence: 0.8,
	},
	model.Category: {
		Title:      "Category budget",
		Message:    "Spending is concentrated in few categories.",
		WhyThis:    "High category concentration can reflect habit-driven spending.",
		ActionStep: "Set a monthly limit for your top 1-2 categories.",
		Confidence: 0.75,
	},
}

func elevated(band model.Band) model.Nudge {
	return model.Nudge{
		Title:      "Review spending patterns",
		Message:    "Several impulse indicators are elevated. Small changes can help.",
		WhyThis:    fmt.Sprintf("Your impulse risk band is %s.", band),
		ActionStep: "Review one behavioural driver per week and pick one action to try.",
		Confidence: 0.9,
	}
}

// Fallback is the generic nudge returned when no rule applies.
var Fallback = model.Nudge{
	Title:      "Stay aware",
	Message:    "Awareness of when and how you spend helps reduce impulse.",
	WhyThis:    "Knowing your own patterns is the first step to changing them.",
	ActionStep: "Check your transaction history once a week.",
	Confidence: 0.7,
}

// Select returns the deterministic nudges for the band and the ordered driver labels.
// There is always at least one nudge.
func Select(band model.Band, drivers []string) []model.Nudge {
	nudges := make([]model.Nudge, 0, MaxNudges)
	seen := make(map[model.Component]bool)
	for _, d := range drivers {
		c, ok := model.ParseLabel(d)
		if !ok || seen[c] {
			continue
		}
		seen[c] = true
		nudges = append(nudges, rules[c])
	}
	if band == model.High || band == model.Critical {
		nudges = append(nudges, elevated(band))
	}
	if len(nudges) == 0 {
		return []model.Nudge{Fallback}
	}
	if len(nudges) > MaxNudges {
		nudges = nudges[:MaxNudges]
	}
	for i := range nudges {
		nudges[i].Confidence = math.Max(minConfidence, nudges[i].Confidence-decay*float64(i))
	}
	return nudges
}
