package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/drakos74/impulse/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Memory keeps the datasets in memory.
type Memory struct {
	datasets map[string]*Dataset
	mutex    *sync.RWMutex
}

// NewMemory creates a new in-memory provider.
func NewMemory() *Memory {
	return &Memory{
		datasets: make(map[string]*Dataset),
		mutex:    new(sync.RWMutex),
	}
}

// Add stores the transactions as a new dataset under a generated id.
func (m *Memory) Add(txs []model.Transaction) *Dataset {
	d := NewDataset(uuid.New().String(), txs)
	m.Put(d)
	return d
}

// Put stores the dataset under its own id.
func (m *Memory) Put(d *Dataset) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.datasets[d.ID] = d
	log.Info().
		Str("dataset", d.ID).
		Int("rows", d.Rows).
		Int("users", d.Users).
		Str("from", d.Range.From).
		Str("to", d.Range.To).
		Msg("stored dataset")
}

// Remove drops the dataset.
func (m *Memory) Remove(id string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.datasets, id)
}

// Dataset returns the dataset for the given id.
func (m *Memory) Dataset(_ context.Context, id string) (*Dataset, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	d, ok := m.datasets[id]
	if !ok {
		return nil, fmt.Errorf("dataset '%s': %w", id, model.ErrUnknownDataset)
	}
	return d, nil
}
