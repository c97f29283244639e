package worker

import (
	"context"
	"fmt"
	"time"

	"netfusion-go/pkg/logger"
)

// runTask executes a single task with its timeout and panic recovery
func runTask(ctx context.Context, task Task, log *logger.Logger) Result {
	start := time.Now()

	taskCtx := ctx
	if task.Timeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, task.Timeout)
		defer cancel()
	}

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(map[string]interface{}{
					"task_id": task.ID,
					"panic":   r,
				}).Error("Task panicked")
				err = &PanicError{Value: r}
			}
		}()

		err = task.Fn(taskCtx)
	}()

	duration := time.Since(start)

	logFields := map[string]interface{}{
		"task_id":     task.ID,
		"duration_ms": duration.Milliseconds(),
	}
	if err != nil {
		logFields["error"] = err.Error()
		log.WithFields(logFields).Warn("Task completed with error")
	} else {
		log.WithFields(logFields).Debug("Task completed successfully")
	}

	return Result{TaskID: task.ID, Error: err, Duration: duration}
}

// PanicError wraps a panic value as an error
type PanicError struct {
	Value interface{}
}

func (pe *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", pe.Value)
}
