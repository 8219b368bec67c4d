package traverse

import (
	"cmp"
	"context"
	"encoding"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"
	"sync"
)

// Policy selects which non-primitive categories Coerce converts. A disabled
// category turns matching values into Undefined so the traverser skips them.
type Policy struct {
	Promises  bool // Awaiter values are resolved
	Buffers   bool // byte slices become UTF-8 strings
	Maps      bool // map-like values become Object
	Iterables bool // sequences and channels become []any
}

func DefaultPolicy() Policy {
	return Policy{Promises: true, Buffers: true, Maps: true, Iterables: true}
}

func (p Policy) disabled() bool {
	return !p.Promises && !p.Buffers && !p.Maps && !p.Iterables
}

// Undefined has no JSON representation. Object members holding it are omitted
// and array elements holding it become null.
var Undefined any = undefined{}

type undefined struct{}

// Awaiter is a value that settles asynchronously.
type Awaiter interface {
	Await(ctx context.Context) (any, error)
}

// AwaitFunc adapts a function to Awaiter.
type AwaitFunc func(ctx context.Context) (any, error)

func (f AwaitFunc) Await(ctx context.Context) (any, error) {
	return f(ctx)
}

// Ranger is a map-like collection such as *sync.Map.
type Ranger interface {
	Range(fn func(key, value any) bool)
}

// JSONer replaces a value with its JSON form before traversal.
type JSONer interface {
	ToJSON() (any, error)
}

// Member is a single key/value pair of an Object.
type Member struct {
	Key   string
	Value any
}

// Object is an object whose members are traversed in slice order.
type Object []Member

// Get returns the value of the first member named key.
func (o Object) Get(key string) (any, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

var objectType = reflect.TypeFor[Object]()

// Coerce normalises datum according to p. Awaiters are resolved and their
// result coerced again; byte slices, map-like values and iterables are
// converted; JSONer and encoding.TextMarshaler values are replaced by their
// JSON form. Everything else, including slices, string-keyed maps and
// structs, is returned unchanged for structural traversal.
func Coerce(ctx context.Context, datum any, p Policy) (any, error) {
	if p.disabled() || datum == nil || isPrimitive(datum) {
		return datum, nil
	}

	switch v := datum.(type) {
	case Awaiter:
		if !p.Promises {
			return Undefined, nil
		}
		resolved, err := v.Await(ctx)
		if err != nil {
			return nil, err
		}
		return Coerce(ctx, resolved, p)
	case Object:
		return v, nil
	case Ranger:
		if !p.Maps {
			return Undefined, nil
		}
		return rangeObject(v), nil
	}

	rv := reflect.ValueOf(datum)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			if !p.Buffers {
				return Undefined, nil
			}
			if rv.Kind() == reflect.Slice && rv.IsNil() {
				return nil, nil
			}
			return string(bytesOf(rv)), nil
		}
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			if !p.Maps {
				return Undefined, nil
			}
			if rv.IsNil() {
				return nil, nil
			}
			return mapObject(rv), nil
		}
	case reflect.Func:
		switch {
		case rv.IsNil():
			return datum, nil
		case isSeq(rv.Type(), 1):
			if !p.Iterables {
				return Undefined, nil
			}
			return collectSeq(rv), nil
		case isSeq(rv.Type(), 2):
			if !p.Maps {
				return Undefined, nil
			}
			return collectSeq2(rv), nil
		}
	case reflect.Chan:
		if !rv.IsNil() && rv.Type().ChanDir()&reflect.RecvDir != 0 {
			if !p.Iterables {
				return Undefined, nil
			}
			return collectChan(ctx, rv)
		}
	}

	switch v := datum.(type) {
	case JSONer:
		return v.ToJSON()
	case encoding.TextMarshaler:
		text, err := v.MarshalText()
		if err != nil {
			return nil, err
		}
		return string(text), nil
	}

	return datum, nil
}

func isPrimitive(datum any) bool {
	switch reflect.TypeOf(datum).Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// isInvalid reports coerced values that never produce an event. Funcs and
// channels still present after coercion were not converted by the policy.
func isInvalid(datum any) bool {
	if datum == nil {
		return false
	}
	if datum == Undefined {
		return true
	}

	rv := reflect.ValueOf(datum)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return math.IsNaN(f) || math.IsInf(f, 0)
	case reflect.Complex64, reflect.Complex128, reflect.UnsafePointer,
		reflect.Func, reflect.Chan:
		return true
	}
	return false
}

// isSeq matches iter.Seq (arity 1) and iter.Seq2 (arity 2) shaped functions.
func isSeq(t reflect.Type, arity int) bool {
	if t.NumIn() != 1 || t.NumOut() != 0 {
		return false
	}
	yield := t.In(0)
	return yield.Kind() == reflect.Func &&
		yield.NumIn() == arity &&
		yield.NumOut() == 1 &&
		yield.Out(0).Kind() == reflect.Bool
}

func bytesOf(rv reflect.Value) []byte {
	if rv.Kind() == reflect.Slice {
		return rv.Bytes()
	}
	b := make([]byte, rv.Len())
	reflect.Copy(reflect.ValueOf(b), rv)
	return b
}

func mapObject(rv reflect.Value) Object {
	obj := make(Object, 0, rv.Len())
	for it := rv.MapRange(); it.Next(); {
		obj = append(obj, Member{Key: fmt.Sprint(it.Key().Interface()), Value: it.Value().Interface()})
	}
	slices.SortStableFunc(obj, func(a, b Member) int { return cmp.Compare(a.Key, b.Key) })
	return obj
}

func rangeObject(r Ranger) Object {
	var obj Object
	r.Range(func(key, value any) bool {
		obj = append(obj, Member{Key: fmt.Sprint(key), Value: value})
		return true
	})
	return obj
}

func collectSeq(rv reflect.Value) []any {
	items := []any{}
	yield := reflect.MakeFunc(rv.Type().In(0), func(args []reflect.Value) []reflect.Value {
		items = append(items, args[0].Interface())
		return []reflect.Value{reflect.ValueOf(true)}
	})
	rv.Call([]reflect.Value{yield})
	return items
}

func collectSeq2(rv reflect.Value) Object {
	obj := Object{}
	yield := reflect.MakeFunc(rv.Type().In(0), func(args []reflect.Value) []reflect.Value {
		obj = append(obj, Member{Key: fmt.Sprint(args[0].Interface()), Value: args[1].Interface()})
		return []reflect.Value{reflect.ValueOf(true)}
	})
	rv.Call([]reflect.Value{yield})
	return obj
}

func collectChan(ctx context.Context, rv reflect.Value) ([]any, error) {
	items := []any{}
	cases := []reflect.SelectCase{
		{Dir: reflect.SelectRecv, Chan: rv},
		{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())},
	}
	for {
		chosen, v, ok := reflect.Select(cases)
		if chosen == 1 {
			return nil, ctx.Err()
		}
		if !ok {
			return items, nil
		}
		items = append(items, v.Interface())
	}
}

// mapMembers lists a string-keyed map in key order.
func mapMembers(rv reflect.Value) Object {
	keys := rv.MapKeys()
	obj := make(Object, 0, len(keys))
	for _, k := range keys {
		obj = append(obj, Member{Key: k.String(), Value: rv.MapIndex(k).Interface()})
	}
	slices.SortFunc(obj, func(a, b Member) int { return cmp.Compare(a.Key, b.Key) })
	return obj
}

type field struct {
	name      string
	index     []int
	omitEmpty bool
}

var fieldCache sync.Map // reflect.Type -> []field

// structMembers lists exported fields honouring json tag names, "-" and omitempty.
// Untagged embedded structs are flattened.
func structMembers(rv reflect.Value) Object {
	fields := cachedFields(rv.Type())
	obj := make(Object, 0, len(fields))
	for _, f := range fields {
		fv, err := rv.FieldByIndexErr(f.index)
		if err != nil || !fv.CanInterface() {
			continue
		}
		if f.omitEmpty && isEmptyValue(fv) {
			continue
		}
		obj = append(obj, Member{Key: f.name, Value: fv.Interface()})
	}
	return obj
}

func cachedFields(t reflect.Type) []field {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]field)
	}
	fields := typeFields(t, nil)
	fieldCache.Store(t, fields)
	return fields
}

func typeFields(t reflect.Type, prefix []int) []field {
	var fields []field
	for i := range t.NumField() {
		sf := t.Field(i)
		index := append(slices.Clone(prefix), i)

		tag := sf.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")

		if sf.Anonymous && name == "" {
			ft := sf.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				fields = append(fields, typeFields(ft, index)...)
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		fields = append(fields, field{name: name, index: index, omitEmpty: slices.Contains(strings.Split(opts, ","), "omitempty")})
	}
	return fields
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Interface, reflect.Pointer:
		return v.IsZero()
	}
	return false
}
