package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Queue wraps the asynq client for enqueueing tasks.
type Queue struct {
	client *asynq.Client
}

func NewQueue(redisURL string) (*Queue, error) {
	if redisURL == "" {
		return nil, errors.New("queue: redis url is not set")
	}
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("queue: parse redis url: %w", err)
	}
	return &Queue{client: asynq.NewClient(opt)}, nil
}

// EnqueueMemeRefresh schedules a refresh. Duplicate requests inside the
// uniqueness window are dropped; that is treated as success.
func (q *Queue) EnqueueMemeRefresh(ctx context.Context) error {
	_, err := q.client.EnqueueContext(ctx, NewMemeRefreshTask(),
		asynq.MaxRetry(2),
		asynq.Unique(refreshUniqueTTL),
	)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

func (q *Queue) Close() error {
	return q.client.Close()
}

// Worker runs the asynq server that consumes background tasks.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

func NewWorker(redisURL string, concurrency int, refresh *MemeRefreshHandler, logger *zap.Logger) (*Worker, error) {
	if redisURL == "" {
		return nil, errors.New("worker: redis url is not set")
	}
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("worker: parse redis url: %w", err)
	}
	if concurrency <= 0 {
		concurrency = 4
	}

	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			logger.Error("task failed", zap.String("type", task.Type()), zap.Error(err))
		}),
	})

	mux := asynq.NewServeMux()
	mux.Handle(TypeMemeRefresh, refresh)

	return &Worker{server: srv, mux: mux, logger: logger}, nil
}

// Start launches the worker loop without blocking.
func (w *Worker) Start() error {
	return w.server.Start(w.mux)
}

func (w *Worker) Stop() {
	w.server.Shutdown()
}
