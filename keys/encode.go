package keys

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// nilMarker stands for a nil value. Encoded segments always start with a
// length digit, so the marker can never be confused with a real value.
const nilMarker = "~"

// Canonical returns the stable textual form of v used inside cache keys.
// Values that compare equal in the store encode identically: every integer
// kind renders as plain decimal, pointers are dereferenced and maps are
// emitted with sorted keys.
func Canonical(v any) string {
	return canonicalEncoder{}.encode(v)
}

// Equal reports whether a and b are the same value. Numbers compare by value
// across kinds as they do in Canonical, but values of different classes never
// match: nil is not "~", 0 is not "0" and []byte is not string.
func Equal(a, b any) bool {
	return valueClass(a) == valueClass(b) && Canonical(a) == Canonical(b)
}

func valueClass(v any) string {
	if isNil(v) {
		return "nil"
	}
	switch v.(type) {
	case []byte:
		return "bytes"
	case time.Time:
		return "time"
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		return valueClass(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return "number"
	}
	return rv.Kind().String()
}

// segment length-prefixes an encoded value so that separator characters
// inside values cannot shift field boundaries.
func segment(v any) string {
	if isNil(v) {
		return nilMarker
	}
	s := Canonical(v)
	return strconv.Itoa(len(s)) + ":" + s
}

type canonicalEncoder struct{}

func (e canonicalEncoder) encode(v any) string {
	if v == nil {
		return nilMarker
	}

	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	}

	rv := reflect.ValueOf(v)
	rt := rv.Type()

	switch rt.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.String:
		return rv.String()
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nilMarker
		}
		return e.encode(rv.Elem().Interface())
	case reflect.Func:
		return fmt.Sprintf("func:%p", v)
	case reflect.Chan:
		return fmt.Sprintf("chan:%p", v)
	case reflect.Slice:
		if rv.IsNil() {
			return nilMarker
		}
		return e.encodeList(rv)
	case reflect.Array:
		return e.encodeList(rv)
	case reflect.Map:
		if rv.IsNil() {
			return nilMarker
		}
		return e.encodeMap(rv)
	case reflect.Struct:
		return e.encodeStruct(rv, rt)
	}

	return e.jsonFallback(v)
}

func (e canonicalEncoder) encodeList(rv reflect.Value) string {
	parts := make([]string, rv.Len())
	for i := range parts {
		parts[i] = segment(rv.Index(i).Interface())
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// encodeMap sorts entries by their encoded key for determinism.
func (e canonicalEncoder) encodeMap(rv reflect.Value) string {
	type pair struct{ k, v string }
	pairs := make([]pair, 0, rv.Len())

	iter := rv.MapRange()
	for iter.Next() {
		pairs = append(pairs, pair{
			k: segment(iter.Key().Interface()),
			v: segment(iter.Value().Interface()),
		})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].k < pairs[j].k })

	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.k + "=" + p.v
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func (e canonicalEncoder) encodeStruct(rv reflect.Value, rt reflect.Type) string {
	parts := make([]string, 0, rv.NumField())
	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		fv := rv.Field(i)
		if !fv.CanInterface() {
			continue
		}
		parts = append(parts, field.Name+"="+segment(fv.Interface()))
	}
	return "(" + strings.Join(parts, ",") + ")"
}

func (e canonicalEncoder) jsonFallback(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "fallback:" + reflect.TypeOf(v).String()
	}
	return "json:" + string(data)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
