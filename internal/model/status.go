package model

import "errors"

// Status is the externally visible state of a dataset.
type Status string

const (
	Loading  Status = "loading"
	Training Status = "training"
	Ready    Status = "ready"
	Failed   Status = "error"
)

// TrainingStatus reports the state of a dataset and the error, if any.
type TrainingStatus struct {
	DatasetID string `json:"dataset_id"`
	Status    Status `json:"status"`
	Error     string `json:"error,omitempty"`
}

var (
	// ErrUnknownDataset is returned for dataset ids that are not known.
	ErrUnknownDataset = errors.New("unknown dataset")
	// ErrDatasetNotReady is returned for queries on datasets that are still loading or training.
	ErrDatasetNotReady = errors.New("dataset not ready")
	// ErrUnknownCard is returned for card ids that are not part of the dataset.
	ErrUnknownCard = errors.New("unknown card")
)
