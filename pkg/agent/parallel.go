/*
Copyright 2025 The Inkwell Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package agent

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
)

// ParallelTask is one unit of fan-out work producing a value of type T.
type ParallelTask[T any] func(ctx context.Context) (T, error)

// RunParallel fans tasks out over a bounded worker pool and joins them.
// Results and errors are positional: result[i] and errs[i] belong to
// tasks[i]. A non-positive deadline means the caller's context governs; a
// positive deadline bounds the whole join, and tasks still running at
// expiry observe a cancelled context and are reported as timed out. This
// is the one join-with-timeout primitive; every parallel section in the
// orchestrator goes through it.
func RunParallel[T any](ctx context.Context, deadline time.Duration, concurrency int, tasks []ParallelTask[T]) ([]T, []error) {
	if concurrency <= 0 {
		concurrency = 4
	}
	if deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}

	type outcome struct {
		index int
		value T
		err   error
	}

	results := make([]T, len(tasks))
	errs := make([]error, len(tasks))
	sem := semaphore.NewWeighted(int64(concurrency))
	completions := make(chan outcome, len(tasks))

	for i, task := range tasks {
		go func(i int, task ParallelTask[T]) {
			if err := sem.Acquire(ctx, 1); err != nil {
				completions <- outcome{index: i, err: err}
				return
			}
			defer sem.Release(1)
			if err := ctx.Err(); err != nil {
				completions <- outcome{index: i, err: err}
				return
			}
			value, err := task(ctx)
			completions <- outcome{index: i, value: value, err: err}
		}(i, task)
	}

	// The join is owned by this loop, not by the tasks' goodwill: once the
	// context expires, stragglers — including tasks that swallow
	// cancellation internally — are abandoned and reported as timed out.
	// Their eventual sends land in the buffered channel and are dropped
	// with it.
	seen := make([]bool, len(tasks))
	remaining := len(tasks)
	for remaining > 0 {
		select {
		case o := <-completions:
			results[o.index] = o.value
			errs[o.index] = o.err
			seen[o.index] = true
			remaining--
		case <-ctx.Done():
			for i := range errs {
				if !seen[i] {
					errs[i] = ctx.Err()
				}
			}
			return results, errs
		}
	}
	return results, errs
}

// Partition splits items into batches of at most size elements, preserving
// order.
func Partition[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = 5
	}
	var batches [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}
