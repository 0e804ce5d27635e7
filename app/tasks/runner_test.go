package tasks

import (
	"context"
	"errors"
	"testing"
)

type stubTask struct {
	Task
	err      error
	executed *[]string
}

func (t *stubTask) Execute(ctx context.Context) error {
	*t.executed = append(*t.executed, t.SupplierName)
	return t.err
}

func TestRunner_Run_ExecutesInOrder(t *testing.T) {
	var executed []string

	runner := NewRunner()
	runner.Add(&stubTask{Task: NewTask(TaskTypeSyncCatalog, "first"), executed: &executed})
	runner.Add(&stubTask{Task: NewTask(TaskTypeSyncCatalog, "second"), executed: &executed})

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(executed) != 2 || executed[0] != "first" || executed[1] != "second" {
		t.Errorf("Expected in-order execution, got %v", executed)
	}
}

func TestRunner_Run_FailedTaskDoesNotStopLaterTasks(t *testing.T) {
	var executed []string

	runner := NewRunner()
	runner.Add(&stubTask{Task: NewTask(TaskTypeSyncCatalog, "broken"), err: errors.New("boom"), executed: &executed})
	runner.Add(&stubTask{Task: NewTask(TaskTypeSyncCatalog, "healthy"), executed: &executed})

	err := runner.Run(context.Background())
	if err == nil {
		t.Fatal("Expected aggregate failure error")
	}

	if len(executed) != 2 {
		t.Errorf("Later tasks must still run, got %v", executed)
	}
}

func TestRunner_Run_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var executed []string
	runner := NewRunner()
	runner.Add(&stubTask{Task: NewTask(TaskTypeSyncCatalog, "never"), executed: &executed})

	if err := runner.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if len(executed) != 0 {
		t.Errorf("No tasks should run after cancellation, got %v", executed)
	}
}
