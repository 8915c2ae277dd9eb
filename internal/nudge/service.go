package nudge

import (
	"context"
	"errors"
	"time"

	"github.com/drakos74/impulse/internal/metrics"
	"github.com/drakos74/impulse/internal/model"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds a generator call.
const DefaultTimeout = 8 * time.Second

// Source tells where the nudges came from.
type Source string

const (
	Generated Source = "generated"
	Rules     Source = "rules"
)

// Service returns nudges from the generator if available, or from the rule table otherwise.
type Service struct {
	generator Generator
	timeout   time.Duration
}

// NewService creates a new nudge service.
// A nil generator always uses the rule table.
func NewService(generator Generator, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		generator: generator,
		timeout:   timeout,
	}
}

// Nudges returns at least one nudge for the summary.
// Generator failures are absorbed by the rule table.
func (s *Service) Nudges(ctx context.Context, summary model.Summary) ([]model.Nudge, Source) {
	if s.generator == nil {
		return s.fallback(summary, "disabled", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	nudges, err := s.generator.Generate(ctx, summary)
	if err != nil {
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			reason = "timeout"
		}
		return s.fallback(summary, reason, err)
	}
	valid := make([]model.Nudge, 0, len(nudges))
	for _, n := range nudges {
		if n.Title != "" && n.Message != "" {
			valid = append(valid, n)
		}
	}
	if len(valid) == 0 {
		return s.fallback(summary, "empty", nil)
	}
	if len(valid) > MaxNudges {
		valid = valid[:MaxNudges]
	}
	metrics.Observer.Nudged(string(Generated), "ok")
	return valid, Generated
}

func (s *Service) fallback(summary model.Summary, reason string, err error) ([]model.Nudge, Source) {
	metrics.Observer.Nudged(string(Rules), reason)
	if err != nil {
		log.Warn().Err(err).Str("reason", reason).Msg("nudge generation failed, using rules")
	} else {
		log.Debug().Str("reason", reason).Msg("using rule nudges")
	}
	return Select(summary.Band, summary.TopDrivers), Rules
}
