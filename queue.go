package tocloud

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rafaeljusto/tocloud/internal/cloud"
)

// Request is a file waiting to be synced in background. When ActivityID is
// empty the file is synced as a plain file.
type Request struct {
	Filename     string
	ActivityID   string
	ActivityName string
}

// Result is the outcome of a background sync. The local file must be kept
// untouched until the result is delivered.
type Result struct {
	Request Request
	Uploads []cloud.Upload
	Err     error
}

type queueItem struct {
	request Request
	result  chan Result
}

// Queue syncs files in background with a fixed number of workers, so the
// caller is never blocked by a slow cloud.
type Queue struct {
	toCloud *ToCloud
	workers int

	requests chan queueItem

	closedLock sync.Mutex
	closed     bool

	shutdownComplete chan struct{}
}

// NewQueue constructs a Queue. The size is the number of requests that can
// wait for a worker.
func NewQueue(toCloud *ToCloud, workers, size int) *Queue {
	if workers < 1 {
		workers = 1
	}
	if size < 0 {
		size = 0
	}

	return &Queue{
		toCloud:          toCloud,
		workers:          workers,
		requests:         make(chan queueItem, size),
		shutdownComplete: make(chan struct{}),
	}
}

// Start runs the workers until the context is done. In-flight uploads are
// abandoned and requests still waiting are completed with the context error.
// It should be called in a goroutine.
func (q *Queue) Start(ctx context.Context) {
	defer close(q.shutdownComplete)

	var wg sync.WaitGroup
	for i := 0; i < q.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.work(ctx)
		}()
	}

	<-ctx.Done()
	wg.Wait()

	q.closedLock.Lock()
	q.closed = true
	q.closedLock.Unlock()

	for {
		select {
		case item := <-q.requests:
			queueDepthGauge.Dec()
			item.result <- Result{
				Request: item.request,
				Err:     errors.WithStack(newError(item.request.ActivityID, ErrorCodeQueueClosed, ctx.Err())),
			}
		default:
			return
		}
	}
}

func (q *Queue) work(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		select {
		case <-ctx.Done():
			return

		case item := <-q.requests:
			queueDepthGauge.Dec()

			result := Result{Request: item.request}
			if item.request.ActivityID != "" {
				result.Uploads, result.Err = q.toCloud.SyncActivity(ctx, item.request.Filename, item.request.ActivityID, item.request.ActivityName)
			} else {
				result.Uploads, result.Err = q.toCloud.SyncFile(ctx, item.request.Filename)
			}

			item.result <- result
		}
	}
}

// Enqueue schedules the sync of a file. The returned channel receives exactly
// one result. It fails when the queue is full or was already shut down.
func (q *Queue) Enqueue(ctx context.Context, request Request) (<-chan Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(newError(request.ActivityID, ErrorCodeQueueClosed, err))
	}

	q.closedLock.Lock()
	defer q.closedLock.Unlock()

	if q.closed {
		return nil, errors.WithStack(newError(request.ActivityID, ErrorCodeQueueClosed, nil))
	}

	item := queueItem{
		request: request,
		result:  make(chan Result, 1),
	}

	queueDepthGauge.Inc()

	select {
	case q.requests <- item:
		return item.result, nil
	default:
		queueDepthGauge.Dec()
		return nil, errors.WithStack(newError(request.ActivityID, ErrorCodeQueueFull, nil))
	}
}

// Wait blocks until the queue stops.
func (q *Queue) Wait() {
	<-q.shutdownComplete
}
