package storage

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// VoidStorage drops every value, for runs that keep their models in memory only.
type VoidStorage struct{}

func (d VoidStorage) Store(k Key, _ interface{}) error {
	log.Debug().Str("key", k.Path()).Msg("skipped storing value")
	return nil
}

func (d VoidStorage) Load(k Key, _ interface{}) error {
	return fmt.Errorf("nothing stored for '%s': %w", k.Path(), NotFoundErr)
}

// NewVoidStorage creates a new noop storage
func NewVoidStorage() *VoidStorage {
	return &VoidStorage{}
}

// VoidShard creates noop storages for every shard.
func VoidShard() Shard {
	return func(string) (Persistence, error) {
		return NewVoidStorage(), nil
	}
}
