package ganalytics

import (
	"context"
	"fmt"
	"reflect"
)

// Bind describes struct type T, activates it on w and returns a T whose
// func fields emit events. A call returns the invocation error when the
// field's func type returns error, and panics with it otherwise. A leading
// context.Context argument is used for logging and not classified.
func Bind[T any](ctx context.Context, w *Wrapper, opts ...DescribeOption) (T, error) {
	var out T
	t := reflect.TypeOf(out)
	if t == nil || t.Kind() != reflect.Struct {
		return out, fmt.Errorf("bind %T: not a struct: %w", out, ErrInvalidDescriptor)
	}

	d, err := describe(t, opts...)
	if err != nil {
		return out, err
	}
	in, err := w.Activate(ctx, d)
	if err != nil {
		return out, err
	}

	v := reflect.ValueOf(&out).Elem()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if _, ok := in.routes[f.Name]; !ok || f.Type.Kind() != reflect.Func {
			continue
		}
		v.Field(i).Set(reflect.MakeFunc(f.Type, in.dispatcher(f.Name, f.Type)))
	}
	return out, nil
}

// dispatcher adapts Invoke to the calling convention of a func field.
func (in *Instance) dispatcher(method string, ft reflect.Type) func([]reflect.Value) []reflect.Value {
	skip := leadingContext(ft)
	returnsError := ft.NumOut() == 1

	return func(values []reflect.Value) []reflect.Value {
		ctx := context.Background()
		if skip == 1 {
			if c, ok := values[0].Interface().(context.Context); ok && c != nil {
				ctx = c
			}
		}
		args := make([]any, 0, len(values)-skip)
		for _, v := range values[skip:] {
			args = append(args, v.Interface())
		}

		err := in.Invoke(ctx, method, args...)
		if !returnsError {
			if err != nil {
				panic(err)
			}
			return nil
		}
		if err != nil {
			return []reflect.Value{reflect.ValueOf(&err).Elem()}
		}
		return []reflect.Value{reflect.Zero(errorType)}
	}
}
