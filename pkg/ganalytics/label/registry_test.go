package label_test

import (
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/okian/ganalytics/pkg/ganalytics/label"
	. "github.com/smartystreets/goconvey/convey"
)

type dummyEnum int

const (
	one dummyEnum = iota + 1
	two
)

func (d dummyEnum) String() string {
	switch d {
	case one:
		return "ONE"
	case two:
		return "TWO"
	default:
		return "UNKNOWN"
	}
}

type dummyData struct {
	ID   int
	Name string
}

type identified interface{ Identity() string }

type user struct{ id string }

func (u *user) Identity() string { return "user:" + u.id }

func constant(s string) label.Converter {
	return label.ConverterFunc(func(any) string { return s })
}

func TestDefaultConverter(t *testing.T) {
	Convey("Given the default converter", t, func() {
		Convey("Then it uses the natural string form", func() {
			So(label.Default.Convert(101), ShouldEqual, "101")
			So(label.Default.Convert("Holy world!"), ShouldEqual, "Holy world!")
			So(label.Default.Convert(two), ShouldEqual, "TWO")
			So(label.Default.Convert(dummyData{ID: 101, Name: "Holy world!"}), ShouldEqual, "{101 Holy world!}")
			So(label.Default.Convert(nil), ShouldEqual, "")
		})

		Convey("And the other built-ins decorate it", func() {
			So(label.Quoted.Convert("a b"), ShouldEqual, `"a b"`)
			So(label.Lower.Convert(two), ShouldEqual, "two")
		})
	})
}

func TestRegistryResolve(t *testing.T) {
	Convey("Given a registry with type and interface converters", t, func() {
		r := label.NewRegistry(
			label.WithConverter(reflect.TypeOf(dummyData{}), constant("data")),
		)
		label.RegisterFor[identified](r, constant("identified"))
		label.RegisterFor[any](r, constant("anything"))

		Convey("When an explicit converter is supplied", func() {
			Convey("Then it always wins", func() {
				So(r.Convert(dummyData{}, constant("explicit"), true), ShouldEqual, "explicit")
				So(r.Convert(dummyData{}, constant("explicit"), false), ShouldEqual, "explicit")
			})
		})

		Convey("When looking up the exact type only", func() {
			Convey("Then registered exact types match", func() {
				So(r.Convert(dummyData{ID: 1}, nil, false), ShouldEqual, "data")
			})

			Convey("And pointers or interfaces do not", func() {
				So(r.Convert(&dummyData{ID: 1}, nil, false), ShouldEqual, "&{1 }")
				So(r.Convert(&user{id: "7"}, nil, false), ShouldEqual, fmt.Sprint(&user{id: "7"}))
			})
		})

		Convey("When walking the type hierarchy", func() {
			Convey("Then pointer element types match", func() {
				So(r.Convert(&dummyData{ID: 1}, nil, true), ShouldEqual, "data")
			})

			Convey("And implemented interfaces match before any", func() {
				So(r.Convert(&user{id: "7"}, nil, true), ShouldEqual, "identified")
			})

			Convey("And any catches the rest", func() {
				So(r.Convert(42, nil, true), ShouldEqual, "anything")
			})
		})

		Convey("When listing the hierarchy of a pointer", func() {
			types := r.Hierarchy(&user{})

			Convey("Then it goes from most to least specific", func() {
				So(len(types), ShouldEqual, 4)
				So(types[0], ShouldEqual, reflect.TypeOf(&user{}))
				So(types[1], ShouldEqual, reflect.TypeOf(user{}))
				So(types[2], ShouldEqual, reflect.TypeOf((*identified)(nil)).Elem())
				So(types[3], ShouldEqual, reflect.TypeOf((*any)(nil)).Elem())
			})
		})
	})

	Convey("Given an empty or nil registry", t, func() {
		var nilRegistry *label.Registry
		empty := label.NewRegistry()

		Convey("Then Default is used", func() {
			So(nilRegistry.Convert(3, nil, true), ShouldEqual, "3")
			So(empty.Convert(3, nil, false), ShouldEqual, "3")
			So(empty.Len(), ShouldEqual, 0)
			_, ok := nilRegistry.Lookup(reflect.TypeOf(3))
			So(ok, ShouldBeFalse)
		})
	})
}

func TestRegistryConcurrentReads(t *testing.T) {
	Convey("Given a registry shared across goroutines", t, func() {
		r := label.NewRegistry()
		label.RegisterFor[dummyEnum](r, label.Lower)

		var wg sync.WaitGroup
		results := make([]string, 64)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = r.Convert(one, nil, false)
			}(i)
		}
		wg.Wait()

		Convey("Then every reader sees the same converter", func() {
			for _, res := range results {
				So(res, ShouldEqual, "one")
			}
		})
	})
}
