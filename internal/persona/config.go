package persona

import "fmt"

const (
	// DefaultClusters is the default number of personas.
	DefaultClusters = 5
	// DefaultSeed is the default seed of the clustering.
	DefaultSeed = 42
	// DefaultIterations is the default iteration bound of the clustering.
	DefaultIterations = 100
	// MaxFitUsers is the population size above which the fit runs on a sample.
	MaxFitUsers = 50_000
	// MaxClusters is the largest number of personas that can be configured.
	MaxClusters = 10
)

// Config configures the persona clustering.
type Config struct {
	Clusters      int   `json:"clusters"`
	Seed          int64 `json:"seed"`
	MaxIterations int   `json:"max_iterations"`
	MaxFitUsers   int   `json:"max_fit_users"`
}

// DefaultConfig returns the default clustering configuration.
func DefaultConfig() Config {
	return Config{
		Clusters:      DefaultClusters,
		Seed:          DefaultSeed,
		MaxIterations: DefaultIterations,
		MaxFitUsers:   MaxFitUsers,
	}
}

// Validate checks the bounds of the configuration.
func (c Config) Validate() error {
	if c.Clusters < 1 || c.Clusters > MaxClusters {
		return fmt.Errorf("clusters must be within [1,%d]: %d", MaxClusters, c.Clusters)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("max iterations must be positive: %d", c.MaxIterations)
	}
	if c.MaxFitUsers < 1 {
		return fmt.Errorf("max fit users must be positive: %d", c.MaxFitUsers)
	}
	return nil
}
