package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	service "github.com/okian/ganalytics/internal/app"
	"github.com/okian/ganalytics/internal/adapters/sink"
	"github.com/okian/ganalytics/pkg/ganalytics"
	"github.com/okian/ganalytics/pkg/ganalytics/naming"
	"github.com/okian/ganalytics/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

type AnalyticsStore struct {
	_ struct{} `analytics:"category=store"`

	OpenProduct func(sku string)
	AddToCart   func(sku string, quantity int) error
	Checkout    func(ctx context.Context, total float64) error `analytics:"prefix=order"`
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a started service recording delivered events", t, func() {
		rec := sink.NewRecorder()
		settings := ganalytics.DefaultSettings()
		settings.CutOffPrefix = true
		svc := service.New(
			service.WithWorkerCount(2),
			service.WithQueueSize(1000),
			service.WithSink(rec),
			service.WithSettings(settings),
			service.WithDefaultMetadata(ganalytics.WithConvention(naming.LowerSnake)),
			service.WithMetrics(metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When a bound interface is called", func() {
			store, err := service.Bind[AnalyticsStore](ctx, svc)
			So(err, ShouldBeNil)

			store.OpenProduct("sku-1")
			So(store.AddToCart("sku-1", 3), ShouldBeNil)
			So(store.Checkout(ctx, 42.5), ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then every event is delivered after shutdown", func() {
				events := rec.Events()
				So(len(events), ShouldEqual, 3)
				So(events, ShouldContain, ganalytics.Event{Category: "store", Action: "open_product", Label: "sku-1"})
				So(events, ShouldContain, ganalytics.Event{Category: "store", Action: "add_to_cart", Label: "sku-1", Value: 3})
				So(events, ShouldContain, ganalytics.Event{Category: "store", Action: "order_checkout", Label: "42.5"})
			})
		})

		Convey("When a descriptor is activated and invoked concurrently", func() {
			inst, err := svc.Activate(ctx, ganalytics.Interface("AnalyticsPlayer").
				Method("Play", ganalytics.Params(ganalytics.Param("track"))))
			So(err, ShouldBeNil)

			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_ = inst.Invoke(ctx, "Play", "intro")
				}()
			}
			wg.Wait()
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then all of them arrive with the cut-off category", func() {
				So(rec.Len(), ShouldEqual, 20)
				So(rec.Events()[0], ShouldResemble, ganalytics.Event{Category: "player", Action: "play", Label: "intro"})
				So(svc.GetStats()["delivered"], ShouldEqual, int64(20))
			})
		})
	})
}
