package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/okian/ganalytics/internal/adapters/sink"
	app "github.com/okian/ganalytics/internal/app"
	"github.com/okian/ganalytics/internal/config"
	"github.com/okian/ganalytics/pkg/ganalytics"
	"github.com/okian/ganalytics/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("GANALYTICS_ADDR", ":8080")
			_ = os.Setenv("GANALYTICS_QUEUE_SIZE", "1000")
			_ = os.Setenv("GANALYTICS_WORKER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("GANALYTICS_ADDR")
				_ = os.Unsetenv("GANALYTICS_QUEUE_SIZE")
				_ = os.Unsetenv("GANALYTICS_WORKER_COUNT")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.EventQueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When the runtime surface is described", func() {
			d, err := ganalytics.Describe[AnalyticsRuntime]()

			convey.Convey("Then every func field is a method", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(d.Name, convey.ShouldEqual, "AnalyticsRuntime")
				convey.So(len(d.Methods), convey.ShouldEqual, 3)
			})
		})
	})
}

func TestMux(t *testing.T) {
	convey.Convey("Given the HTTP mux", t, func() {
		svc := app.New(app.WithSink(sink.Discard), app.WithWorkerCount(1))
		mux := newMux(svc)

		convey.Convey("When the service is not started", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			convey.Convey("Then health reports unavailable", func() {
				convey.So(rec.Code, convey.ShouldEqual, http.StatusServiceUnavailable)
			})
		})

		convey.Convey("When the service is started", func() {
			ctx := context.Background()
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer func() { _ = svc.Stop(ctx) }()

			health := httptest.NewRecorder()
			mux.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			scrape := httptest.NewRecorder()
			mux.ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			convey.Convey("Then health is ok and metrics are exposed", func() {
				convey.So(health.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(scrape.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(scrape.Body.String(), convey.ShouldContainSubstring, "ganalytics_events_queue_capacity")
			})
		})
	})
}

func TestHeartbeat(t *testing.T) {
	convey.Convey("Given a runtime bound to a recording service", t, func() {
		rec := sink.NewRecorder()
		svc := app.New(app.WithSink(rec), app.WithWorkerCount(1))
		ctx := context.Background()
		convey.So(svc.Start(ctx), convey.ShouldBeNil)

		rt, err := app.Bind[AnalyticsRuntime](ctx, svc)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When the heartbeat runs for a while", func() {
			hbCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
			defer cancel()
			heartbeat(hbCtx, rt, 5*time.Millisecond)
			convey.So(rt.Stopping("test"), convey.ShouldBeNil)
			convey.So(svc.Stop(ctx), convey.ShouldBeNil)

			convey.Convey("Then heartbeat and shutdown events are delivered", func() {
				events := rec.Events()
				convey.So(len(events), convey.ShouldBeGreaterThan, 1)
				first := events[0]
				convey.So(first.Category, convey.ShouldEqual, "analytics_runtime")
				convey.So(first.Action, convey.ShouldEqual, "heartbeat")
				convey.So(first.Value, convey.ShouldEqual, 1)
				last := events[len(events)-1]
				convey.So(last.Action, convey.ShouldEqual, "shutdown")
				convey.So(last.Label, convey.ShouldEqual, "test")
			})
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a config listening on a free port", t, func() {
		cfg := config.New()
		cfg.Addr = "127.0.0.1:0"
		cfg.WorkerCount = 1

		convey.Convey("When the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.Convey("Then run shuts down cleanly", func() {
				convey.So(run(ctx, cfg, logger.Nop()), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the convention is unknown", func() {
			cfg.DefaultConvention = "nope"

			convey.Convey("Then run fails before starting", func() {
				convey.So(run(context.Background(), cfg, logger.Nop()), convey.ShouldNotBeNil)
			})
		})
	})
}
