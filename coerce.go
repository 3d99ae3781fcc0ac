package ringo

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Keyer lets a type control its own cache-key form. It takes precedence
// over every built-in coercion rule.
type Keyer interface {
	CacheKey() string
}

// Coerce renders an argument value into its canonical cache-key form.
// The rendering is deterministic: identical logical values always produce
// identical strings regardless of field declaration or map iteration
// order. Values the rules cannot express (channels, funcs) are rejected
// so a silently unstable key can never be built.
func Coerce(v any) (string, error) {
	return coerceValue(reflect.ValueOf(v), nil)
}

// ignore applies to the top level only: it names struct fields excluded
// from key derivation (Options.IgnorableKeys).
func coerceValue(v reflect.Value, ignore map[string]bool) (string, error) {
	if !v.IsValid() {
		return "", fmt.Errorf("cannot derive a key from an untyped nil")
	}
	// nil check first: a nil pointer may still satisfy Keyer through a
	// value receiver and would panic inside CacheKey.
	if (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) && v.IsNil() {
		return "nil", nil
	}
	if v.CanInterface() {
		if k, ok := v.Interface().(Keyer); ok {
			return k.CacheKey(), nil
		}
	}

	switch v.Kind() {
	case reflect.String:
		return v.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'g', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64), nil
	case reflect.Pointer, reflect.Interface:
		return coerceValue(v.Elem(), ignore)
	}

	// []byte before the generic slice rule: bytes go in verbatim.
	if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
		return string(v.Bytes()), nil
	}
	if v.CanInterface() {
		// time.Time before the Stringer rule: Time.String() leaks the
		// monotonic-clock reading, which would tie the key to process
		// state. Wall-clock-equal times must render identically.
		if ts, ok := v.Interface().(time.Time); ok {
			return ts.UTC().Format(time.RFC3339Nano), nil
		}
		if s, ok := v.Interface().(fmt.Stringer); ok {
			return s.String(), nil
		}
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		parts := make([]string, v.Len())
		for i := range parts {
			p, err := coerceValue(v.Index(i), nil)
			if err != nil {
				return "", err
			}
			parts[i] = p
		}
		return "[" + strings.Join(parts, ",") + "]", nil

	case reflect.Map:
		parts := make([]string, 0, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			k, err := coerceValue(iter.Key(), nil)
			if err != nil {
				return "", err
			}
			val, err := coerceValue(iter.Value(), nil)
			if err != nil {
				return "", err
			}
			parts = append(parts, k+":"+val)
		}
		sort.Strings(parts)
		return "{" + strings.Join(parts, ",") + "}", nil

	case reflect.Struct:
		return coerceStruct(v, ignore)
	}

	return "", fmt.Errorf("cannot derive a key from %s", v.Type())
}

// coerceStruct renders a struct as TypeName{field=value,...} with fields in
// sorted name order, exported fields only.
func coerceStruct(v reflect.Value, ignore map[string]bool) (string, error) {
	t := v.Type()
	names := make([]string, 0, t.NumField())
	values := make(map[string]string, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || ignore[f.Name] {
			continue
		}
		val, err := coerceValue(v.Field(i), nil)
		if err != nil {
			return "", fmt.Errorf("field %s: %w", f.Name, err)
		}
		names = append(names, f.Name)
		values[f.Name] = val
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(t.Name())
	b.WriteByte('{')
	for i, n := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(n)
		b.WriteByte('=')
		b.WriteString(values[n])
	}
	b.WriteByte('}')
	return b.String(), nil
}
