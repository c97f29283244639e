// Package worker runs independent upstream fetches concurrently.
package worker

import (
	"context"
	"sync"
	"time"

	"netfusion-go/pkg/logger"
)

// Task is one unit of work. Fn writes its output through a closure.
type Task struct {
	ID      string
	Fn      func(ctx context.Context) error
	Timeout time.Duration
}

// Result represents the result of task execution
type Result struct {
	TaskID   string
	Error    error
	Duration time.Duration
}

// FanOut runs every task on its own goroutine and waits for all of them.
// Results come back in input order. A failing or panicking task never
// cancels its siblings.
func FanOut(ctx context.Context, tasks ...Task) []Result {
	results := make([]Result, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	log := logger.GetLogger().WithField("component", "fanout")

	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, task := range tasks {
		go func(i int, task Task) {
			defer wg.Done()
			results[i] = runTask(ctx, task, log)
		}(i, task)
	}
	wg.Wait()

	return results
}

// Failed counts results that carry an error
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Error != nil {
			n++
		}
	}
	return n
}
