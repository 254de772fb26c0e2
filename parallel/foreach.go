// Package parallel contains the bounded-concurrency ForEach used for
// hyperparameter trials and batched predictions.
package parallel

import "sync"

// ForEach executes body(i) for every i in [0, length) on at most limit
// concurrent workers and returns once all iterations are done.
func ForEach(length, limit int, body func(i int)) {
	if length <= 0 {
		return
	}
	if limit <= 0 {
		limit = 1
	}
	if limit > length {
		limit = length
	}

	next := make(chan int)
	var wg sync.WaitGroup
	wg.Add(limit)
	for w := 0; w < limit; w++ {
		go func() {
			defer wg.Done()
			for i := range next {
				body(i)
			}
		}()
	}
	for i := 0; i < length; i++ {
		next <- i
	}
	close(next)
	wg.Wait()
}
