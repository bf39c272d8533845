package cache

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// KeySeparator delimits the segments of a fingerprint's canonical key.
const KeySeparator = "::"

// canonicalize produces a deterministic textual encoding of an arbitrary
// value. Two values that are structurally equal encode to the same string,
// so canonical encodings stand in for structural comparison wherever a
// comparable representation is required (map keys, element equality).
//
// Determinism rules:
//   - nil encodes to a fixed sentinel
//   - functions and channels encode by pointer, stable within a process
//   - pointers are dereferenced
//   - slices and arrays encode recursively in element order
//   - maps encode with entries sorted by encoded key
//   - structs encode exported fields in declaration order; structs without
//     exported fields fall back to msgpack, which handles types like
//     time.Time natively
//   - strings are quoted so they never collide with numeric encodings
func canonicalize(v any) string {
	if v == nil {
		return "nil"
	}

	rv := reflect.ValueOf(v)
	rt := reflect.TypeOf(v)

	switch rt.Kind() {
	case reflect.Func:
		return fmt.Sprintf("func:%p", v)

	case reflect.Chan:
		return fmt.Sprintf("chan:%p", v)

	case reflect.Ptr:
		if rv.IsNil() {
			return "nil"
		}
		return canonicalize(rv.Elem().Interface())

	case reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return canonicalize(rv.Elem().Interface())

	case reflect.Slice:
		if rv.IsNil() {
			return "slice:nil"
		}
		return canonicalizeSequence("slice", rv)

	case reflect.Array:
		return canonicalizeSequence("array", rv)

	case reflect.Map:
		if rv.IsNil() {
			return "map:nil"
		}
		return canonicalizeMap(rv)

	case reflect.Struct:
		return canonicalizeStruct(rv, rt)

	case reflect.String:
		return strconv.Quote(rv.String())

	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return fmt.Sprintf("%v", v)
	}

	return msgpackFallback(v)
}

// canonicalizeSequence encodes slices and arrays element by element.
func canonicalizeSequence(kind string, rv reflect.Value) string {
	length := rv.Len()
	parts := make([]string, length)
	for i := 0; i < length; i++ {
		parts[i] = canonicalize(rv.Index(i).Interface())
	}
	return fmt.Sprintf("%s[%d]:{%s}", kind, length, strings.Join(parts, ","))
}

// canonicalizeMap encodes map entries sorted by their encoded key so the
// result does not depend on Go's randomized map iteration order.
func canonicalizeMap(rv reflect.Value) string {
	keys := rv.MapKeys()
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = canonicalize(k.Interface()) + "=" + canonicalize(rv.MapIndex(k).Interface())
	}
	sort.Strings(pairs)
	return fmt.Sprintf("map[%d]:{%s}", len(pairs), strings.Join(pairs, ","))
}

// canonicalizeStruct encodes exported fields in declaration order. Types
// whose state is entirely unexported (time.Time being the common case) would
// all encode identically, so those take the msgpack fallback instead.
func canonicalizeStruct(rv reflect.Value, rt reflect.Type) string {
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
		parts = append(parts, field.Name+":"+canonicalize(fv.Interface()))
	}
	if len(parts) == 0 {
		return msgpackFallback(rv.Interface())
	}
	return fmt.Sprintf("struct:{%s}", strings.Join(parts, ","))
}

// msgpackFallback encodes values the reflection walk does not special-case.
// msgpack keeps struct fields in declaration order, so the encoding stays
// deterministic for a given type.
func msgpackFallback(v any) string {
	data, err := msgpack.Marshal(v)
	if err != nil {
		// Last resort: type identity only. Stability matters more than
		// precision here; a degenerate key still caches correctly, just
		// coarsely.
		return fmt.Sprintf("opaque:%T", v)
	}
	return fmt.Sprintf("msgpack:%x", data)
}
