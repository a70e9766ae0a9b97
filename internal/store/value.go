package store

import (
	"reflect"
	"strings"
	"time"
)

// normalize folds named and sized scalar types onto float64, string, bool
// or time.Time so values written by different callers compare equal.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	if t, ok := v.(time.Time); ok {
		return t
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	}
	return v
}

// compare orders two values. ok is false when they are not comparable.
// nil sorts before everything else.
func compare(a, b any) (int, bool) {
	a, b = normalize(a), normalize(b)
	switch {
	case a == nil && b == nil:
		return 0, true
	case a == nil:
		return -1, true
	case b == nil:
		return 1, true
	}
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	case time.Time:
		y, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	}
	return 0, false
}

func equal(a, b any) bool {
	c, ok := compare(a, b)
	return ok && c == 0
}

// matches evaluates cond against rec. A nil condition matches everything.
func matches(rec Record, cond Condition) bool {
	switch c := cond.(type) {
	case nil:
		return true
	case eqCond:
		v, present := rec[c.field]
		if c.value == nil || normalize(c.value) == nil {
			return !present || normalize(v) == nil
		}
		return present && equal(v, c.value)
	case inCond:
		v, present := rec[c.field]
		if !present {
			return false
		}
		for _, want := range c.values {
			if equal(v, want) {
				return true
			}
		}
		return false
	case orCond:
		for _, sub := range c.conds {
			if matches(rec, sub) {
				return true
			}
		}
		return false
	case andCond:
		for _, sub := range c.conds {
			if !matches(rec, sub) {
				return false
			}
		}
		return true
	}
	return false
}
