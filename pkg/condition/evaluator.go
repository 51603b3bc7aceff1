// Package condition evaluates rule conditions against event payloads and snapshot records.
package condition

import (
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/saviser/automation/pkg/models"
	"github.com/saviser/automation/pkg/payload"
)

const day = 24 * time.Hour

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// Evaluator is a pure predicate over payloads. It never fails: anything it cannot interpret
// evaluates to false.
type Evaluator struct {
	clock clockwork.Clock
}

func NewEvaluator(clock clockwork.Clock) *Evaluator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Evaluator{clock: clock}
}

// Evaluate reports whether every condition holds. An empty list holds.
func (e *Evaluator) Evaluate(conditions []models.Condition, p payload.Payload) bool {
	for _, c := range conditions {
		if !e.Holds(c, p) {
			return false
		}
	}

	return true
}

// Holds evaluates a single condition.
func (e *Evaluator) Holds(c models.Condition, p payload.Payload) bool {
	value, found := p.Lookup(c.Field)
	if !found {
		return false
	}

	switch c.Operator {
	case models.OperatorEquals:
		return equals(value, c.Value)
	case models.OperatorGreaterThan:
		return compare(value, c.Value, func(a, b float64) bool { return a > b })
	case models.OperatorLessThan:
		return compare(value, c.Value, func(a, b float64) bool { return a < b })
	case models.OperatorContains:
		return contains(value, c.Value)
	case models.OperatorDaysAgo:
		return e.daysAgo(value, c.Value)
	default:
		return false
	}
}

func equals(actual, expected any) bool {
	if a, ok := toFloat(actual); ok {
		b, ok := toFloat(expected)

		return ok && a == b
	}

	switch a := actual.(type) {
	case nil:
		return expected == nil
	case string:
		b, ok := expected.(string)

		return ok && a == b
	case bool:
		b, ok := expected.(bool)

		return ok && a == b
	case time.Time:
		b, ok := expected.(time.Time)

		return ok && a.Equal(b)
	default:
		// composite values have no strict equality
		return false
	}
}

func compare(actual, expected any, op func(a, b float64) bool) bool {
	a, ok := toFloat(actual)
	if !ok {
		return false
	}

	b, ok := toFloat(expected)
	if !ok {
		return false
	}

	return op(a, b)
}

func contains(actual, expected any) bool {
	switch a := actual.(type) {
	case string:
		sub, ok := expected.(string)

		return ok && strings.Contains(a, sub)
	case []string:
		for _, item := range a {
			if equals(item, expected) {
				return true
			}
		}

		return false
	case []any:
		for _, item := range a {
			if equals(item, expected) {
				return true
			}
		}

		return false
	default:
		rv := reflect.ValueOf(actual)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return false
		}

		for i := range rv.Len() {
			if equals(rv.Index(i).Interface(), expected) {
				return true
			}
		}

		return false
	}
}

func (e *Evaluator) daysAgo(actual, expected any) bool {
	ts, ok := toTime(actual)
	if !ok {
		return false
	}

	want, ok := toFloat(expected)
	if !ok || want != math.Trunc(want) {
		return false
	}

	elapsed := e.clock.Now().Sub(ts)

	return math.Floor(float64(elapsed)/float64(day)) == want
}

func toFloat(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) {
			return 0, false
		}

		return f, true
	default:
		return 0, false
	}
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}

		return *t, !t.IsZero()
	case string:
		for _, layout := range timestampLayouts {
			parsed, err := time.Parse(layout, t)
			if err == nil {
				return parsed, true
			}
		}

		return time.Time{}, false
	default:
		millis, ok := toFloat(v)
		if !ok {
			return time.Time{}, false
		}

		return time.UnixMilli(int64(millis)), true
	}
}
