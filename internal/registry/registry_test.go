package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/drakos74/impulse/internal/concurrent"
	"github.com/drakos74/impulse/internal/model"
	"github.com/drakos74/impulse/internal/pipeline"
	"github.com/drakos74/impulse/internal/provider"
	"github.com/drakos74/impulse/internal/storage"
	"github.com/drakos74/impulse/internal/storage/file/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transactions(users int) []model.Transaction {
	txs := make([]model.Transaction, 0)
	start := time.Date(2023, time.March, 1, 9, 0, 0, 0, time.UTC)
	for u := 0; u < users; u++ {
		for i := 0; i < 10+u; i++ {
			txs = append(txs, model.Transaction{
				CardID:    fmt.Sprintf("card_%d", u),
				Time:      start.Add(time.Duration(i*(u+1)) * 7 * time.Hour),
				Amount:    float64(10 + i*u),
				Category3: fmt.Sprintf("%d", i%(u+1)),
			})
		}
	}
	return txs
}

// blocking holds every dataset request until released.
type blocking struct {
	*provider.Memory
	calls   *concurrent.Counter
	started chan string
	release chan struct{}
	err     error
}

func newBlocking() *blocking {
	return &blocking{
		Memory:  provider.NewMemory(),
		calls:   concurrent.NewCounter(nil),
		started: make(chan string, 10),
		release: make(chan struct{}),
	}
}

func (b *blocking) Dataset(ctx context.Context, id string) (*provider.Dataset, error) {
	b.calls.Track()
	b.started <- id
	<-b.release
	if b.err != nil {
		return nil, b.err
	}
	return b.Memory.Dataset(ctx, id)
}

func TestRegistry_Lifecycle(t *testing.T) {
	p := provider.NewMemory()
	p.Put(provider.NewDataset("ds", transactions(6)))
	store := json.NewLocalStorage()
	r := New(p, pipeline.DefaultOptions(), store)

	_, err := r.Status("ds")
	assert.ErrorIs(t, err, model.ErrUnknownDataset)

	r.Register("ds")
	status, err := r.Status("ds")
	require.NoError(t, err)
	assert.Equal(t, model.TrainingStatus{DatasetID: "ds", Status: model.Loading}, status)

	_, err = r.Result("ds")
	assert.ErrorIs(t, err, model.ErrDatasetNotReady)
	assert.False(t, errors.Is(err, model.ErrUnknownDataset))
	_, err = r.Analyze("ds", "card_1")
	assert.ErrorIs(t, err, model.ErrDatasetNotReady)

	r.Start("ds")
	assert.Eventually(t, func() bool {
		status, err := r.Status("ds")
		return err == nil && status.Status == model.Ready
	}, 5*time.Second, 10*time.Millisecond)

	result, err := r.Analyze("ds", "card_1")
	require.NoError(t, err)
	assert.Equal(t, "card_1", result.CardID)
	_, err = r.Analyze("ds", "card_99")
	assert.ErrorIs(t, err, model.ErrUnknownCard)

	insights, err := r.Insights("ds")
	require.NoError(t, err)
	assert.Equal(t, 6, insights.Users)

	users, err := r.Users("ds")
	require.NoError(t, err)
	assert.Len(t, users, 6)

	assert.Equal(t, 1, store.Keys())
	snapshot, err := r.Model("ds")
	require.NoError(t, err)
	assert.Equal(t, "ds", snapshot.DatasetID)
	assert.Equal(t, 6, snapshot.Users)

	assert.True(t, r.Evict("ds"))
	assert.False(t, r.Evict("ds"))
	_, err = r.Result("ds")
	assert.ErrorIs(t, err, model.ErrUnknownDataset)
	_, err = p.Dataset(context.Background(), "ds")
	assert.ErrorIs(t, err, model.ErrUnknownDataset)

	// the snapshot outlives the entry
	snapshot, err = r.Model("ds")
	require.NoError(t, err)
	assert.Equal(t, 6, snapshot.Users)
	require.NotNil(t, snapshot.Personas)
	assert.NotEmpty(t, snapshot.Personas.Clusters)
}

func TestRegistry_SingleFlight(t *testing.T) {
	p := newBlocking()
	p.Put(provider.NewDataset("ds", transactions(5)))
	r := New(p, pipeline.DefaultOptions(), nil)
	r.Register("ds")

	const callers = 5
	results := make([]*pipeline.Result, callers)
	wg := new(sync.WaitGroup)
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		i := i
		go func() {
			defer wg.Done()
			res, err := r.Train(context.Background(), "ds")
			assert.NoError(t, err)
			results[i] = res
		}()
	}

	<-p.started
	status, err := r.Status("ds")
	require.NoError(t, err)
	assert.Equal(t, model.Training, status.Status)
	_, err = r.Result("ds")
	assert.ErrorIs(t, err, model.ErrDatasetNotReady)

	// give the other callers time to join the run
	time.Sleep(50 * time.Millisecond)
	close(p.release)
	wg.Wait()

	assert.Equal(t, 1, p.calls.Get())
	require.NotNil(t, results[0])
	for _, res := range results {
		assert.Same(t, results[0], res)
	}

	// a ready dataset does not fit again
	res, err := r.Train(context.Background(), "ds")
	require.NoError(t, err)
	assert.Same(t, results[0], res)
	assert.Equal(t, 1, p.calls.Get())
}

func TestRegistry_Supersede(t *testing.T) {
	p := newBlocking()
	p.Put(provider.NewDataset("old", transactions(4)))
	p.Put(provider.NewDataset("new", transactions(5)))
	store := json.NewLocalStorage()
	r := New(p, pipeline.DefaultOptions(), store)
	r.Register("old")

	done := make(chan error)
	go func() {
		_, err := r.Train(context.Background(), "old")
		done <- err
	}()
	assert.Equal(t, "old", <-p.started)

	r.Supersede("old", "new")
	close(p.release)

	err := <-done
	assert.ErrorIs(t, err, model.ErrUnknownDataset)
	_, err = r.Status("old")
	assert.ErrorIs(t, err, model.ErrUnknownDataset)
	assert.Equal(t, 0, store.Keys())

	status, err := r.Status("new")
	require.NoError(t, err)
	assert.Equal(t, model.Loading, status.Status)

	res, err := r.Train(context.Background(), "new")
	require.NoError(t, err)
	assert.Equal(t, "new", res.DatasetID())
	assert.Equal(t, 5, res.Size())
}

func TestRegistry_ReRegister(t *testing.T) {
	p := newBlocking()
	p.Put(provider.NewDataset("ds", transactions(4)))
	store := json.NewLocalStorage()
	r := New(p, pipeline.DefaultOptions(), store)
	r.Register("ds")

	done := make(chan error)
	go func() {
		_, err := r.Train(context.Background(), "ds")
		done <- err
	}()
	assert.Equal(t, "ds", <-p.started)

	// the same id is registered again while its first run is in flight
	r.Register("ds")
	close(p.release)

	err := <-done
	assert.ErrorIs(t, err, model.ErrUnknownDataset)
	assert.Equal(t, 0, store.Keys())

	status, err := r.Status("ds")
	require.NoError(t, err)
	assert.Equal(t, model.TrainingStatus{DatasetID: "ds", Status: model.Loading}, status)
	_, err = r.Result("ds")
	assert.ErrorIs(t, err, model.ErrDatasetNotReady)

	res, err := r.Train(context.Background(), "ds")
	require.NoError(t, err)
	assert.Equal(t, 4, res.Size())
	assert.Equal(t, 2, p.calls.Get())
	assert.Equal(t, 1, store.Keys())

	status, err = r.Status("ds")
	require.NoError(t, err)
	assert.Equal(t, model.Ready, status.Status)
}

func TestRegistry_Retrain(t *testing.T) {
	p := provider.NewMemory()
	p.Put(provider.NewDataset("ds", transactions(4)))
	r := New(p, pipeline.DefaultOptions(), nil)
	r.Register("ds")

	first, err := r.Train(context.Background(), "ds")
	require.NoError(t, err)
	second, err := r.Retrain(context.Background(), "ds")
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	res, err := r.Result("ds")
	require.NoError(t, err)
	assert.Same(t, second, res)
	assert.Equal(t, first.Insights(), second.Insights())
}

func TestRegistry_Failure(t *testing.T) {
	p := newBlocking()
	p.err = errors.New("disk on fire")
	close(p.release)
	r := New(p, pipeline.DefaultOptions(), storage.NewVoidStorage())
	r.Register("ds")

	_, err := r.Train(context.Background(), "ds")
	assert.Error(t, err)

	status, err := r.Status("ds")
	require.NoError(t, err)
	assert.Equal(t, model.Failed, status.Status)
	assert.Contains(t, status.Error, "disk on fire")

	_, err = r.Insights("ds")
	assert.ErrorIs(t, err, model.ErrDatasetNotReady)
	_, err = r.Model("ds")
	assert.ErrorIs(t, err, model.ErrDatasetNotReady)
}

func TestRegistry_Unknown(t *testing.T) {
	r := New(provider.NewMemory(), pipeline.DefaultOptions(), nil)

	_, err := r.Train(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrUnknownDataset)
	_, err = r.Analyze("missing", "card")
	assert.ErrorIs(t, err, model.ErrUnknownDataset)
	assert.False(t, errors.Is(err, model.ErrDatasetNotReady))

	// registered but without data
	r.Register("missing")
	_, err = r.Train(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrUnknownDataset)
	status, err := r.Status("missing")
	require.NoError(t, err)
	assert.Equal(t, model.Failed, status.Status)
}
