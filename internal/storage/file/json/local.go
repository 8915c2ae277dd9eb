package json

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/drakos74/impulse/internal/storage"
)

// LocalShard creates in-memory storages that keep the json encoding of the values.
func LocalShard() storage.Shard {
	return func(shard string) (storage.Persistence, error) {
		return NewLocalStorage(), nil
	}
}

// LocalStorage keeps the json encoding of every value in memory.
type LocalStorage struct {
	files map[storage.Key]string
	mutex *sync.RWMutex
}

// NewLocalStorage creates a new in-memory storage.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{
		files: make(map[storage.Key]string),
		mutex: new(sync.RWMutex),
	}
}

func (l LocalStorage) Store(k storage.Key, value interface{}) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	bb, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("could not marshal value: %w", err)
	}

	l.files[k] = string(bb)
	return nil
}

func (l LocalStorage) Load(k storage.Key, value interface{}) error {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	v, ok := l.files[k]
	if !ok {
		return fmt.Errorf("not found '%v': %w", k, storage.NotFoundErr)
	}
	if err := json.Unmarshal([]byte(v), value); err != nil {
		return fmt.Errorf("could not unmarshal value: %v: %w", err, storage.CouldNotLoadErr)
	}
	return nil
}

// Keys returns the number of stored keys.
func (l LocalStorage) Keys() int {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return len(l.files)
}
