package concurrent

import (
	"context"
	"sync"
)

// Each runs exec for every index in [0,n) on at most the given number of workers.
// No new index is handed out once the context is done, in that case the context error is returned
// after the running executions complete.
func Each(ctx context.Context, n int, workers int, exec func(i int)) error {
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	jobs := make(chan int)
	wg := new(sync.WaitGroup)
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				exec(i)
			}
		}()
	}

	var err error
loop:
	for i := 0; i < n; i++ {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break loop
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	return err
}
