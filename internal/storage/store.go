package storage

import (
	"errors"
	"fmt"
)

// DefaultDir is the default root directory of the file storage.
const DefaultDir = "file-storage"

// ModelTable holds the fitted model snapshots of the datasets.
const ModelTable = "models"

// Shard creates a new storage implementation for the given shard.
type Shard func(shard string) (Persistence, error)

var (
	NotFoundErr     = errors.New("not found")
	CouldNotLoadErr = errors.New("could not load")
)

// Key is the storage key of a dataset artifact.
type Key struct {
	Dataset string `json:"dataset"`
	Label   string `json:"label"`
}

// Path is the flat file name of the key.
func (k Key) Path() string {
	return fmt.Sprintf("%s_%s", k.Dataset, k.Label)
}

// Persistence stores and loads values by key.
type Persistence interface {
	Store(k Key, value interface{}) error
	Load(k Key, value interface{}) error
}
