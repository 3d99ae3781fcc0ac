package ringo

import (
	"reflect"
	"runtime"
)

// KeyFunc derives the canonical key suffix for one argument set. Override
// via Options.KeyFunc when the default coercion does not fit.
type KeyFunc[A any] func(args A) (string, error)

// keyBuilder is pure: the same (prefix, args) always yields the same key.
type keyBuilder[A any] struct {
	prefix string
	fn     KeyFunc[A]
}

func (b keyBuilder[A]) key(args A) (string, error) {
	s, err := b.fn(args)
	if err != nil {
		return "", &KeyError{Prefix: b.prefix, Err: err}
	}
	return b.prefix + ":" + s, nil
}

// keyMany derives keys for many argument sets, preserving input order.
func (b keyBuilder[A]) keyMany(argsList []A) ([]string, error) {
	keys := make([]string, len(argsList))
	for i, a := range argsList {
		k, err := b.key(a)
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}
	return keys, nil
}

func defaultKeyFunc[A any](ignorable []string) KeyFunc[A] {
	var ignore map[string]bool
	if len(ignorable) > 0 {
		ignore = make(map[string]bool, len(ignorable))
		for _, name := range ignorable {
			ignore[name] = true
		}
	}
	return func(args A) (string, error) {
		return coerceValue(reflect.ValueOf(args), ignore)
	}
}

// funcPrefix names the wrapped function's symbol, used as the key prefix
// when Options.KeyPrefix is empty.
func funcPrefix(fn any) string {
	pc := reflect.ValueOf(fn).Pointer()
	if f := runtime.FuncForPC(pc); f != nil {
		return f.Name()
	}
	return "ringo"
}
