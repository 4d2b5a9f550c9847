package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/okian/ganalytics/internal/adapters/mq/queue"
	"github.com/okian/ganalytics/internal/adapters/mq/worker"
	"github.com/okian/ganalytics/internal/adapters/sink"
	"github.com/okian/ganalytics/pkg/ganalytics"
	"github.com/okian/ganalytics/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

// mockQueue hands out one shared channel.
type mockQueue struct {
	envelopes chan queue.Envelope
	closeOnce sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{envelopes: make(chan queue.Envelope, 10)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Envelope {
	return mq.envelopes
}

func (mq *mockQueue) Close() error {
	mq.closeOnce.Do(func() { close(mq.envelopes) })
	return nil
}

func (mq *mockQueue) add(action string) {
	mq.envelopes <- queue.NewEnvelope(ganalytics.Event{Category: "test", Action: action})
}

// panicSink panics on the action "boom" and records everything else.
type panicSink struct {
	*sink.Recorder
}

func (p panicSink) Provide(e ganalytics.Event) {
	if e.Action == "boom" {
		panic("boom")
	}
	p.Recorder.Provide(e)
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func testMetrics() *metrics.Manager {
	return metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker delivering to a recorder", t, func() {
		q := newMockQueue()
		rec := sink.NewRecorder()
		w := worker.NewInMemoryWorker(q, panicSink{rec}, worker.WithName("test-worker"), worker.WithMetrics(testMetrics()))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go w.Run(ctx)

		convey.Convey("When envelopes are queued", func() {
			q.add("login")
			q.add("logout")

			convey.Convey("Then they reach the sink in order", func() {
				convey.So(eventually(func() bool { return rec.Len() == 2 }), convey.ShouldBeTrue)
				convey.So(rec.Events()[0].Action, convey.ShouldEqual, "login")
				convey.So(rec.Events()[1].Action, convey.ShouldEqual, "logout")
				convey.So(w.Delivered(), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When the sink panics", func() {
			q.add("boom")
			q.add("after")

			convey.Convey("Then the worker keeps delivering", func() {
				convey.So(eventually(func() bool { return rec.Len() == 1 }), convey.ShouldBeTrue)
				convey.So(rec.Events()[0].Action, convey.ShouldEqual, "after")
				convey.So(w.Delivered(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When shutting down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer shutdownCancel()

			convey.Convey("Then it stops gracefully and twice is harmless", func() {
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a worker that was never started", t, func() {
		w := worker.NewInMemoryWorker(newMockQueue(), sink.Discard)

		convey.Convey("When shutting down with a short deadline", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer cancel()

			convey.Convey("Then it times out", func() {
				convey.So(w.Shutdown(ctx), convey.ShouldNotBeNil)
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {
		q := newMockQueue()
		rec := sink.NewRecorder()

		convey.Convey("When created with the default count", func() {
			pool := worker.NewPool(0, q, rec)

			convey.Convey("Then it has at least one worker", func() {
				convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When started with three workers", func() {
			pool := worker.NewPool(3, q, rec, worker.WithMetrics(testMetrics()))
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)

			for _, action := range []string{"a", "b", "c", "d"} {
				q.add(action)
			}

			convey.Convey("Then every envelope is delivered once", func() {
				convey.So(eventually(func() bool { return pool.Delivered() == 4 }), convey.ShouldBeTrue)
				convey.So(rec.Len(), convey.ShouldEqual, 4)
			})

			convey.Convey("And Shutdown closes the queue and drains it", func() {
				q.add("e")
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
				defer shutdownCancel()

				convey.So(pool.Shutdown(shutdownCtx), convey.ShouldBeNil)
				convey.So(rec.Len(), convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When stopped", func() {
			pool := worker.NewPool(2, q, rec)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)

			stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
			defer stopCancel()
			pool.Stop(stopCtx)

			convey.Convey("Then later envelopes are left queued", func() {
				q.add("late")
				time.Sleep(20 * time.Millisecond)
				convey.So(rec.Len(), convey.ShouldEqual, 0)
				convey.So(len(q.envelopes), convey.ShouldEqual, 1)
			})
		})
	})
}

func TestPoolWithInMemoryQueue(t *testing.T) {
	convey.Convey("Given a queue sink feeding a pool", t, func() {
		m := testMetrics()
		q := queue.NewInMemoryQueue(queue.WithCapacity(100), queue.WithMetrics(m))
		rec := sink.NewRecorder()
		pool := worker.NewPool(4, q, rec, worker.WithMetrics(m))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)
		publisher := queue.NewSink(q, nil)

		convey.Convey("When events are provided concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 5; j++ {
						publisher.Provide(ganalytics.Event{Category: "load", Action: "tick", Value: int64(j)})
					}
				}()
			}
			wg.Wait()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()

			convey.Convey("Then shutdown delivers all of them", func() {
				convey.So(pool.Shutdown(shutdownCtx), convey.ShouldBeNil)
				convey.So(rec.Len(), convey.ShouldEqual, 50)
				convey.So(pool.Delivered(), convey.ShouldEqual, 50)
			})
		})

		convey.Convey("When the pool is stopped before an event arrives", func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
			defer stopCancel()
			pool.Stop(stopCtx)
			publisher.Provide(ganalytics.Event{Category: "load", Action: "late"})
			time.Sleep(20 * time.Millisecond)

			convey.Convey("Then the event stays in the queue", func() {
				convey.So(rec.Len(), convey.ShouldEqual, 0)
				convey.So(q.Len(context.Background()), convey.ShouldEqual, 1)
			})
		})
	})
}
