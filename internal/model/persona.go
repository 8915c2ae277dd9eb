package model

// Unclassified is the persona label used when the population cannot be clustered.
const Unclassified = "Unclassified"

// Persona is the behavioural profile assigned to a user.
type Persona struct {
	ClusterID      int                `json:"cluster_id"`
	Label          string             `json:"profile_label"`
	Interpretation string             `json:"interpretation"`
	KeyStats       map[string]float64 `json:"key_stats"`
}

// Insights is the aggregate view over all scores and personas of a dataset.
type Insights struct {
	Users         int            `json:"users"`
	MeanScore     float64        `json:"mean_score"`
	P50           int            `json:"p50_score"`
	P75           int            `json:"p75_score"`
	P90           int            `json:"p90_score"`
	BandCounts    map[Band]int   `json:"band_counts"`
	ClusterCounts map[string]int `json:"cluster_counts"`
}
