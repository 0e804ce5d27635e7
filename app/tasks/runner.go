package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

var _ TaskRunnerInterface = (*Runner)(nil)

type Runner struct {
	tasks []TaskInterface
}

func NewRunner() *Runner {
	return &Runner{}
}

func (r *Runner) Add(task TaskInterface) {
	r.tasks = append(r.tasks, task)
}

// Run executes every task in order. A failed task is logged and does not
// stop later tasks; Run reports how many failed.
func (r *Runner) Run(ctx context.Context) error {
	failed := 0

	for _, task := range r.tasks {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		task.Start()
		if err := task.Execute(ctx); err != nil {
			slog.Error("Task failed",
				"type", task.GetType(),
				"supplier", task.GetSupplierName(),
				"duration", task.GetDuration(),
				"error", err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d tasks failed", failed, len(r.tasks))
	}

	return nil
}
