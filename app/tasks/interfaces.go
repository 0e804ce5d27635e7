package tasks

import (
	"context"
	"time"
)

type TaskInterface interface {
	Execute(ctx context.Context) error
	GetID() string
	GetType() TaskType
	GetSupplierName() string
	Start()
	GetDuration() time.Duration
}

// TaskRunnerInterface runs queued tasks sequentially, in insertion order.
// This is a batch job: one task at a time, no worker pool.
type TaskRunnerInterface interface {
	Add(task TaskInterface)
	Run(ctx context.Context) error
}
