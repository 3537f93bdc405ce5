package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// FanOut runs independent tasks on a bounded pool, paced by an optional rate limiter.
// A failing task never cancels its siblings; every task reports its own outcome.
type FanOut struct {
	workers  int
	interval time.Duration
	burst    int
}

// NewFanOut creates a pool of workers goroutines. interval <= 0 disables pacing.
func NewFanOut(workers int, interval time.Duration, burst int) *FanOut {
	if workers <= 0 {
		workers = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &FanOut{workers: workers, interval: interval, burst: burst}
}

// TaskResult is the outcome of task Index.
type TaskResult[T any] struct {
	Index int
	Value T
	Err   error
}

// RunTasks executes fn for i in [0, n) and returns results in index order.
func RunTasks[T any](ctx context.Context, f *FanOut, n int, fn func(ctx context.Context, i int) (T, error)) []TaskResult[T] {
	results := make([]TaskResult[T], n)

	var limiter *rate.Limiter
	if f.interval > 0 {
		limiter = rate.NewLimiter(rate.Every(f.interval), f.burst)
	}

	var eg errgroup.Group
	eg.SetLimit(f.workers)
	for i := 0; i < n; i++ {
		i := i
		eg.Go(func() error {
			results[i].Index = i
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					results[i].Err = err
					return nil
				}
			}
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Value, results[i].Err = fn(ctx, i)
			return nil
		})
	}
	_ = eg.Wait()

	return results
}

// TaskFailure is one failed task as reported to callers.
type TaskFailure struct {
	Index int    `json:"index"`
	Item  string `json:"item,omitempty"`
	Error string `json:"error"`
}

// Failures collects the failed results; label names the input of task i.
func Failures[T any](results []TaskResult[T], label func(i int) string) []TaskFailure {
	var out []TaskFailure
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		f := TaskFailure{Index: r.Index, Error: r.Err.Error()}
		if label != nil {
			f.Item = label(r.Index)
		}
		out = append(out, f)
	}
	return out
}
