package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/clientiq/internal/adapters/mq/queue"
	"github.com/okian/clientiq/internal/adapters/mq/worker"
	logging "github.com/okian/clientiq/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type recorder struct {
	mu    sync.Mutex
	seen  []string
	fail  map[string]error
	block chan struct{}
}

func newRecorder() *recorder {
	return &recorder{fail: map[string]error{}}
}

func (r *recorder) Handle(ctx context.Context, j queue.Job) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, j.CustomerID)
	return r.fail[j.CustomerID]
}

func (r *recorder) handled() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen...)
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading from a queue", t, func() {
		_ = logging.Init()
		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		rec := newRecorder()
		rec.fail["broken"] = errors.New("store unavailable")
		w := worker.NewInMemoryWorker(q, rec, worker.WithName("test-worker"))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When jobs are enqueued", func() {
			convey.So(q.Enqueue(ctx, queue.Job{CustomerID: "c-1"}), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, queue.Job{CustomerID: "broken"}), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, queue.Job{CustomerID: "c-2"}), convey.ShouldBeNil)

			convey.Convey("Then every job is handled in order and failures do not stop the loop", func() {
				convey.So(waitFor(func() bool { return len(rec.handled()) == 3 }), convey.ShouldBeTrue)
				convey.So(rec.handled(), convey.ShouldResemble, []string{"c-1", "broken", "c-2"})
			})
		})

		convey.Convey("When the worker is shut down", func() {
			err := w.Shutdown(context.Background())

			convey.Convey("Then Run returns", func() {
				convey.So(err, convey.ShouldBeNil)
				<-w.Done()
			})

			convey.Convey("Then a second shutdown is harmless", func() {
				convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a worker stuck in a job", t, func() {
		_ = logging.Init()
		q := queue.NewInMemoryQueue()
		rec := newRecorder()
		rec.block = make(chan struct{})
		defer close(rec.block)
		w := worker.NewInMemoryWorker(q, rec)

		ctx := context.Background()
		go w.Run(ctx)
		convey.So(q.Enqueue(ctx, queue.Job{CustomerID: "slow"}), convey.ShouldBeNil)
		time.Sleep(20 * time.Millisecond)

		convey.Convey("When shutdown has a short deadline", func() {
			sctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()

			convey.Convey("Then it reports the timeout", func() {
				convey.So(w.Shutdown(sctx), convey.ShouldNotBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of three workers", t, func() {
		_ = logging.Init()
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		var count sync.Map
		handler := worker.HandlerFunc(func(_ context.Context, j queue.Job) error {
			count.Store(j.CustomerID, true)
			return nil
		})
		p := worker.NewPool(3, q, handler)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		p.Start(ctx)

		convey.So(p.Size(), convey.ShouldEqual, 3)

		convey.Convey("When jobs are queued and the pool is shut down", func() {
			ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
			for _, id := range ids {
				convey.So(q.Enqueue(ctx, queue.Job{CustomerID: id}), convey.ShouldBeNil)
			}
			err := p.Shutdown(context.Background())

			convey.Convey("Then buffered jobs are drained first", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(p.Processed(), convey.ShouldEqual, int64(len(ids)))
				for _, id := range ids {
					_, ok := count.Load(id)
					convey.So(ok, convey.ShouldBeTrue)
				}
			})

			convey.Convey("Then the queue is closed", func() {
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a non-positive worker count", t, func() {
		_ = logging.Init()
		p := worker.NewPool(0, queue.NewInMemoryQueue(), worker.HandlerFunc(func(context.Context, queue.Job) error { return nil }))

		convey.Convey("Then at least one worker is created", func() {
			convey.So(p.Size(), convey.ShouldBeGreaterThanOrEqualTo, 1)
		})
	})
}
