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

package provider

import (
	"sync"
	"time"
)

// UsageCounters is a point-in-time snapshot of a provider's request
// accounting.
type UsageCounters struct {
	TotalRequests      int64
	SuccessfulRequests int64
	FailedRequests     int64
	LastRequestAt      time.Time
	AverageLatency     time.Duration
	TotalWaitTime      time.Duration
}

// usageTracker accumulates monotonic per-provider counters.
type usageTracker struct {
	mu           sync.Mutex
	total        int64
	successful   int64
	failed       int64
	lastRequest  time.Time
	totalLatency time.Duration
	totalWait    time.Duration
}

func (u *usageTracker) recordSuccess(latency time.Duration) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.total++
	u.successful++
	u.lastRequest = time.Now()
	u.totalLatency += latency
}

func (u *usageTracker) recordFailure(latency time.Duration) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.total++
	u.failed++
	u.lastRequest = time.Now()
	u.totalLatency += latency
}

func (u *usageTracker) recordWait(wait time.Duration) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.totalWait += wait
}

func (u *usageTracker) snapshot() UsageCounters {
	u.mu.Lock()
	defer u.mu.Unlock()
	counters := UsageCounters{
		TotalRequests:      u.total,
		SuccessfulRequests: u.successful,
		FailedRequests:     u.failed,
		LastRequestAt:      u.lastRequest,
		TotalWaitTime:      u.totalWait,
	}
	if u.total > 0 {
		counters.AverageLatency = u.totalLatency / time.Duration(u.total)
	}
	return counters
}
