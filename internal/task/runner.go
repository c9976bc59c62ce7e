package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// RunnerConfig holds configuration for the task runner
type RunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int

	// StuckTaskAge defines how long a task can stay in processing state
	// before it is considered stuck and reset
	StuckTaskAge time.Duration

	// StuckTaskCheckInterval defines how often to check for stuck tasks.
	// If zero, defaults to 5 minutes
	StuckTaskCheckInterval time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount:            2,
		QueueSize:              100,
		StuckTaskAge:           30 * time.Minute,
		StuckTaskCheckInterval: 5 * time.Minute,
	}
}

// Runner manages background task processing: a persistent queue drained by
// a fixed worker pool, with crash recovery on startup.
type Runner struct {
	store      TaskStore
	factories  map[string]Factory
	taskChan   chan Task
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     RunnerConfig
	logger     *slog.Logger
}

// NewRunner creates a new Runner
func NewRunner(store TaskStore, config RunnerConfig, logger *slog.Logger) *Runner {
	if config.StuckTaskCheckInterval == 0 {
		config.StuckTaskCheckInterval = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		store:      store,
		factories:  make(map[string]Factory),
		taskChan:   make(chan Task, config.QueueSize),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger.With(slog.String("component", "task_runner")),
	}
}

// RegisterFactory associates a task type with a factory used to rebuild
// persisted tasks during recovery. Must be called before Start.
func (r *Runner) RegisterFactory(taskType string, factory Factory) {
	r.factories[taskType] = factory
}

// Submit persists a task and adds it to the queue
func (r *Runner) Submit(ctx context.Context, task Task) error {
	if err := r.store.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	select {
	case r.taskChan <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full, try again later")
	}
}

// Start recovers unfinished tasks and launches the worker pool
func (r *Runner) Start() error {
	if err := r.recover(); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.wg.Add(1)
	go r.stuckTaskMonitor()

	return nil
}

// Stop gracefully shuts down the task runner
func (r *Runner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
	close(r.taskChan)
}

// recover reloads unfinished tasks from the store. Tasks interrupted
// mid-processing by a crash are reset to pending and requeued.
func (r *Runner) recover() error {
	ctx := context.Background()

	pending, err := r.store.ListByStatus(ctx, TaskStatusPending, 0)
	if err != nil {
		return fmt.Errorf("failed to list pending tasks: %w", err)
	}

	processing, err := r.store.ListByStatus(ctx, TaskStatusProcessing, 0)
	if err != nil {
		return fmt.Errorf("failed to list processing tasks: %w", err)
	}

	r.logger.Info("recovering unfinished tasks",
		slog.Int("pending_count", len(pending)),
		slog.Int("processing_count", len(processing)))

	for _, rec := range pending {
		r.requeueRecord(ctx, rec, false)
	}
	for _, rec := range processing {
		r.requeueRecord(ctx, rec, true)
	}

	return nil
}

// requeueRecord rebuilds a task from its record and puts it back on the
// queue. Records with no registered factory are marked failed rather than
// retried forever.
func (r *Runner) requeueRecord(ctx context.Context, rec Record, resetStatus bool) {
	factory, ok := r.factories[rec.Type]
	if !ok {
		r.logger.Error("no factory registered for task type",
			slog.String("task_id", rec.ID.String()),
			slog.String("task_type", rec.Type))
		_ = r.store.UpdateTaskStatus(ctx, rec.ID, TaskStatusFailed, "no factory registered for task type")
		return
	}

	task, err := factory(rec.ID, rec.Payload)
	if err != nil {
		r.logger.Error("failed to rebuild task from record",
			slog.String("task_id", rec.ID.String()),
			slog.String("task_type", rec.Type),
			slog.String("error", err.Error()))
		_ = r.store.UpdateTaskStatus(ctx, rec.ID, TaskStatusFailed, err.Error())
		return
	}

	if resetStatus {
		if err := r.store.UpdateTaskStatus(ctx, rec.ID, TaskStatusPending, "reset after recovery"); err != nil {
			r.logger.Error("failed to reset task status",
				slog.String("task_id", rec.ID.String()),
				slog.String("error", err.Error()))
			return
		}
	}

	select {
	case r.taskChan <- task:
	default:
		r.logger.Error("failed to requeue task, queue is full",
			slog.String("task_id", rec.ID.String()),
			slog.String("task_type", rec.Type))
	}
}

// worker processes tasks from the queue
func (r *Runner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", slog.Int("worker_id", id))

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", slog.Int("worker_id", id))
			return

		case task, ok := <-r.taskChan:
			if !ok {
				return
			}
			r.processTask(task, id)
		}
	}
}

// processTask handles execution of a single task, including panic recovery
// so one bad task cannot take a worker down.
func (r *Runner) processTask(task Task, workerID int) {
	ctx := context.Background()
	log := r.logger.With(
		slog.String("task_id", task.ID().String()),
		slog.String("task_type", task.Type()),
		slog.Int("worker_id", workerID),
	)

	if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusProcessing, ""); err != nil {
		log.Error("failed to update task status to processing", slog.String("error", err.Error()))
		return
	}

	log.Info("processing task")

	var err error
	func() {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("task panicked: %v", p)
			}
		}()
		err = task.Execute(ctx)
	}()

	if err != nil {
		log.Error("task execution failed", slog.String("error", err.Error()))
		if updateErr := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusFailed, err.Error()); updateErr != nil {
			log.Error("failed to update task status to failed", slog.String("error", updateErr.Error()))
		}
		return
	}

	log.Info("task completed")
	if updateErr := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusCompleted, ""); updateErr != nil {
		log.Error("failed to update task status to completed", slog.String("error", updateErr.Error()))
	}
}

// stuckTaskMonitor periodically resets tasks stuck in processing state
func (r *Runner) stuckTaskMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckTaskCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			ctx := context.Background()

			stuck, err := r.store.ListByStatus(ctx, TaskStatusProcessing, r.config.StuckTaskAge)
			if err != nil {
				r.logger.Error("failed to check for stuck tasks", slog.String("error", err.Error()))
				continue
			}
			if len(stuck) == 0 {
				continue
			}

			r.logger.Info("found stuck tasks", slog.Int("count", len(stuck)))
			for _, rec := range stuck {
				r.requeueRecord(ctx, rec, true)
			}
		}
	}
}
