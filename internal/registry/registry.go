package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/drakos74/impulse/internal/concurrent"
	"github.com/drakos74/impulse/internal/metrics"
	"github.com/drakos74/impulse/internal/model"
	"github.com/drakos74/impulse/internal/pipeline"
	"github.com/drakos74/impulse/internal/provider"
	"github.com/drakos74/impulse/internal/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// ModelLabel is the storage label of the model snapshots.
const ModelLabel = "model"

// Remover is implemented by providers that can drop a dataset.
type Remover interface {
	Remove(id string)
}

// entry is the state of one registered dataset.
// A training run publishes only into the entry it started from.
type entry struct {
	id         string
	generation uint64
	status     model.Status
	err        error
	result     *pipeline.Result
}

// Registry tracks the datasets and their training results.
type Registry struct {
	mutex      *sync.RWMutex
	entries    map[string]*entry
	generation uint64
	group      *singleflight.Group
	provider   provider.Provider
	options    pipeline.Options
	store      storage.Persistence
}

// New creates a new registry.
func New(p provider.Provider, opts pipeline.Options, store storage.Persistence) *Registry {
	if store == nil {
		store = storage.NewVoidStorage()
	}
	return &Registry{
		mutex:    new(sync.RWMutex),
		entries:  make(map[string]*entry),
		group:    new(singleflight.Group),
		provider: p,
		options:  opts,
		store:    store,
	}
}

// Register adds a dataset in the loading state.
// An existing entry for the same id is replaced.
func (r *Registry) Register(id string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.generation++
	r.entries[id] = &entry{
		id:         id,
		generation: r.generation,
		status:     model.Loading,
	}
	log.Info().Str("dataset", id).Msg("registered dataset")
}

// Start trains the dataset in the background.
// Callers follow the progress through Status.
func (r *Registry) Start(id string) {
	concurrent.Async(func() {
		if _, err := r.Train(context.Background(), id); err != nil {
			log.Error().Err(err).Str("dataset", id).Msg("could not train dataset")
		}
	})
}

// Train trains the dataset, or returns the existing result if it is ready.
// Concurrent calls for the same dataset share a single run.
func (r *Registry) Train(ctx context.Context, id string) (*pipeline.Result, error) {
	return r.train(ctx, id, false)
}

// Retrain fits the dataset again and replaces its result.
func (r *Registry) Retrain(ctx context.Context, id string) (*pipeline.Result, error) {
	return r.train(ctx, id, true)
}

func (r *Registry) train(ctx context.Context, id string, force bool) (*pipeline.Result, error) {
	e, err := r.entry(id)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%s/%d", e.id, e.generation)
	v, err, shared := r.group.Do(key, func() (interface{}, error) {
		return r.run(ctx, e, force)
	})
	if shared {
		log.Debug().Str("dataset", id).Msg("joined training run")
	}
	if err != nil {
		return nil, err
	}
	return v.(*pipeline.Result), nil
}

func (r *Registry) run(ctx context.Context, e *entry, force bool) (*pipeline.Result, error) {
	r.mutex.Lock()
	if !r.current(e) {
		r.mutex.Unlock()
		return nil, fmt.Errorf("dataset '%s': %w", e.id, model.ErrUnknownDataset)
	}
	if !force && e.result != nil {
		result := e.result
		r.mutex.Unlock()
		return result, nil
	}
	e.status = model.Training
	e.err = nil
	r.mutex.Unlock()

	start := time.Now()
	log.Info().Str("dataset", e.id).Bool("retrain", force).Msg("training dataset")
	result, err := r.fit(ctx, e.id)

	r.mutex.Lock()
	if !r.current(e) {
		r.mutex.Unlock()
		metrics.Observer.Trained(e.id, metrics.Discarded, 0, time.Since(start))
		log.Warn().Str("dataset", e.id).Msg("discarding result of superseded dataset")
		return nil, fmt.Errorf("dataset '%s' was superseded: %w", e.id, model.ErrUnknownDataset)
	}
	if err != nil {
		e.err = err
		e.status = model.Failed
		if e.result != nil {
			e.status = model.Ready
		}
		r.mutex.Unlock()
		metrics.Observer.Trained(e.id, metrics.Failure, 0, time.Since(start))
		return nil, err
	}
	e.result = result
	e.status = model.Ready
	r.mutex.Unlock()

	metrics.Observer.Trained(e.id, metrics.Success, result.Size(), time.Since(start))
	if err := r.store.Store(storage.Key{Dataset: e.id, Label: ModelLabel}, result.Model()); err != nil {
		log.Error().Err(err).Str("dataset", e.id).Msg("could not store model")
	}
	return result, nil
}

func (r *Registry) fit(ctx context.Context, id string) (*pipeline.Result, error) {
	d, err := r.provider.Dataset(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("could not load dataset '%s': %w", id, err)
	}
	return pipeline.Train(ctx, d, r.options)
}

// current checks if the entry is still the one registered for its id.
func (r *Registry) current(e *entry) bool {
	return r.entries[e.id] == e
}

func (r *Registry) entry(id string) (*entry, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("dataset '%s': %w", id, model.ErrUnknownDataset)
	}
	return e, nil
}

// Supersede registers the new dataset and evicts the old one.
// A run of the old dataset that completes later is discarded.
func (r *Registry) Supersede(oldID, newID string) {
	r.Register(newID)
	if oldID != "" && oldID != newID {
		r.Evict(oldID)
	}
}

// Evict drops the dataset and its result.
func (r *Registry) Evict(id string) bool {
	r.mutex.Lock()
	_, ok := r.entries[id]
	delete(r.entries, id)
	r.mutex.Unlock()
	if !ok {
		return false
	}
	if remover, ok := r.provider.(Remover); ok {
		remover.Remove(id)
	}
	metrics.Observer.Evicted(id)
	log.Info().Str("dataset", id).Msg("evicted dataset")
	return true
}

// Status reports the training state of the dataset.
func (r *Registry) Status(id string) (model.TrainingStatus, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return model.TrainingStatus{}, fmt.Errorf("dataset '%s': %w", id, model.ErrUnknownDataset)
	}
	status := model.TrainingStatus{
		DatasetID: id,
		Status:    e.status,
	}
	if e.err != nil {
		status.Error = e.err.Error()
	}
	return status, nil
}

// Result returns the published training result of the dataset.
func (r *Registry) Result(id string) (*pipeline.Result, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("dataset '%s': %w", id, model.ErrUnknownDataset)
	}
	if e.result == nil {
		if e.err != nil {
			return nil, fmt.Errorf("dataset '%s' failed: %v: %w", id, e.err, model.ErrDatasetNotReady)
		}
		return nil, fmt.Errorf("dataset '%s' is %s: %w", id, e.status, model.ErrDatasetNotReady)
	}
	return e.result, nil
}

// Analyze explains the score of a user of the dataset.
func (r *Registry) Analyze(id, cardID string) (result model.AnalyzeResult, err error) {
	defer func() { metrics.Observer.Queried("analyze", err) }()
	res, err := r.Result(id)
	if err != nil {
		return model.AnalyzeResult{}, err
	}
	return res.Analyze(cardID)
}

// Insights aggregates the scores and personas of the dataset.
func (r *Registry) Insights(id string) (insights model.Insights, err error) {
	defer func() { metrics.Observer.Queried("insights", err) }()
	res, err := r.Result(id)
	if err != nil {
		return model.Insights{}, err
	}
	return res.Insights(), nil
}

// Users lists the users of the dataset.
func (r *Registry) Users(id string) (users []model.User, err error) {
	defer func() { metrics.Observer.Queried("users", err) }()
	res, err := r.Result(id)
	if err != nil {
		return nil, err
	}
	return res.Users(), nil
}

// Model returns the fitted parameters of the dataset, from the stored snapshot if not trained in this process.
func (r *Registry) Model(id string) (pipeline.Snapshot, error) {
	res, err := r.Result(id)
	if err == nil {
		return res.Model(), nil
	}
	if !errors.Is(err, model.ErrDatasetNotReady) && !errors.Is(err, model.ErrUnknownDataset) {
		return pipeline.Snapshot{}, err
	}
	var snapshot pipeline.Snapshot
	if loadErr := r.store.Load(storage.Key{Dataset: id, Label: ModelLabel}, &snapshot); loadErr != nil {
		return pipeline.Snapshot{}, err
	}
	return snapshot, nil
}
