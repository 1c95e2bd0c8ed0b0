package migrate

import (
	"context"
	"errors"
	"sync"

	"github.com/leoyy0316/incubator-paimon/internal/logging"
	"github.com/leoyy0316/incubator-paimon/internal/metrics"
	"github.com/leoyy0316/incubator-paimon/internal/table"
)

// taskResult is one task's terminal state.
type taskResult struct {
	task *MigrateTask
	msg  *table.CommitMessage
	err  error
}

// runTasks executes all tasks on a bounded worker pool and collects every
// result. On the first failure the shared context is cancelled; remaining
// queued tasks are drained and reported as cancelled rather than executed.
// The result channel closes only after every worker has returned, so by the
// time runTasks returns, every task has truly reached a terminal state — no
// polling, just a blocking join.
func runTasks(ctx context.Context, workers int, tasks []*MigrateTask) ([]table.CommitMessage, error) {
	if workers < 1 {
		workers = 1
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workQueue := make(chan *MigrateTask)
	resultChan := make(chan taskResult, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			log := logging.WorkerLogger(workerID)
			for task := range workQueue {
				if err := ctx.Err(); err != nil {
					// Drain without executing so every task terminates.
					resultChan <- taskResult{task: task, err: err}
					continue
				}
				msg, err := task.Execute(ctx)
				if err != nil {
					log.Warn("task failed", "partition", task.partition.String(), "error", err)
					if mm := metrics.Get(); mm != nil {
						mm.PartitionsFailed.WithLabelValues(task.format).Inc()
					}
				}
				resultChan <- taskResult{task: task, msg: msg, err: err}
			}
		}(i)
	}

	go func() {
		defer close(workQueue)
		for _, task := range tasks {
			workQueue <- task
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	messages := make([]table.CommitMessage, 0, len(tasks))
	var errs []error
	for res := range resultChan {
		if res.err != nil {
			if len(errs) == 0 {
				cancel()
			}
			errs = append(errs, res.err)
			continue
		}
		messages = append(messages, *res.msg)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return messages, nil
}
