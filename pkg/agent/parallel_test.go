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
	"errors"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("RunParallel", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("should preserve positional results", func() {
		tasks := make([]ParallelTask[int], 10)
		for i := range tasks {
			i := i
			tasks[i] = func(ctx context.Context) (int, error) {
				return i * 2, nil
			}
		}

		results, errs := RunParallel(ctx, 0, 3, tasks)
		for i := range tasks {
			Expect(errs[i]).ToNot(HaveOccurred())
			Expect(results[i]).To(Equal(i * 2))
		}
	})

	It("should isolate task failures positionally", func() {
		boom := errors.New("boom")
		tasks := []ParallelTask[string]{
			func(ctx context.Context) (string, error) { return "ok", nil },
			func(ctx context.Context) (string, error) { return "", boom },
			func(ctx context.Context) (string, error) { return "also ok", nil },
		}

		results, errs := RunParallel(ctx, 0, 2, tasks)
		Expect(errs[0]).ToNot(HaveOccurred())
		Expect(errs[1]).To(MatchError(boom))
		Expect(errs[2]).ToNot(HaveOccurred())
		Expect(results[0]).To(Equal("ok"))
		Expect(results[2]).To(Equal("also ok"))
	})

	It("should bound concurrency", func() {
		var active, peak int64
		tasks := make([]ParallelTask[struct{}], 12)
		for i := range tasks {
			tasks[i] = func(ctx context.Context) (struct{}, error) {
				n := atomic.AddInt64(&active, 1)
				for {
					p := atomic.LoadInt64(&peak)
					if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt64(&active, -1)
				return struct{}{}, nil
			}
		}

		_, errs := RunParallel(ctx, 0, 3, tasks)
		for _, err := range errs {
			Expect(err).ToNot(HaveOccurred())
		}
		Expect(atomic.LoadInt64(&peak)).To(BeNumerically("<=", 3))
	})

	It("should return at the deadline even when a task ignores cancellation", func() {
		started := time.Now()
		tasks := []ParallelTask[int]{
			func(ctx context.Context) (int, error) {
				return 1, nil
			},
			func(ctx context.Context) (int, error) {
				// Deliberately ignores ctx.
				time.Sleep(2 * time.Second)
				return 2, nil
			},
		}

		results, errs := RunParallel(ctx, 150*time.Millisecond, 4, tasks)
		elapsed := time.Since(started)

		Expect(elapsed).To(BeNumerically("<", time.Second))
		Expect(errs[0]).ToNot(HaveOccurred())
		Expect(results[0]).To(Equal(1))
		Expect(errs[1]).To(HaveOccurred())
	})

	It("should not start queued tasks after cancellation", func() {
		var startedCount int64
		blocker := make(chan struct{})
		tasks := make([]ParallelTask[struct{}], 8)
		for i := range tasks {
			tasks[i] = func(ctx context.Context) (struct{}, error) {
				atomic.AddInt64(&startedCount, 1)
				<-blocker
				return struct{}{}, nil
			}
		}

		_, errs := RunParallel(ctx, 100*time.Millisecond, 1, tasks)
		close(blocker)

		// Exactly one task held the single worker slot; the rest were denied
		// at the semaphore once the deadline passed.
		Expect(atomic.LoadInt64(&startedCount)).To(Equal(int64(1)))
		failures := 0
		for _, err := range errs {
			if err != nil {
				failures++
			}
		}
		Expect(failures).To(Equal(len(tasks)))
	})
})

var _ = Describe("Partition", func() {
	It("should split into bounded batches preserving order", func() {
		items := []int{1, 2, 3, 4, 5, 6, 7}
		batches := Partition(items, 3)

		Expect(batches).To(HaveLen(3))
		Expect(batches[0]).To(Equal([]int{1, 2, 3}))
		Expect(batches[1]).To(Equal([]int{4, 5, 6}))
		Expect(batches[2]).To(Equal([]int{7}))
	})

	It("should return no batches for empty input", func() {
		Expect(Partition([]string{}, 5)).To(BeEmpty())
	})

	It("should default the batch size when non-positive", func() {
		batches := Partition(make([]int, 12), 0)
		Expect(batches).To(HaveLen(3))
	})
})
