package reports

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Helpers that read untrusted backend values. Each returns ok=false when the
// value cannot be used, and the caller substitutes its default.

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case FormInput:
		return map[string]any(t), true
	}
	return nil, false
}

func asList(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	case []float64:
		out := make([]any, len(t))
		for i, f := range t {
			out[i] = f
		}
		return out, true
	case []int:
		out := make([]any, len(t))
		for i, n := range t {
			out[i] = n
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = m
		}
		return out, true
	}
	return nil, false
}

func asText(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func asNumber(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func inRange(v any, lo, hi float64) (float64, bool) {
	f, ok := asNumber(v)
	if !ok || f < lo || f > hi {
		return 0, false
	}
	return f, true
}

// textList accepts an array of strings or a single string. Blank and
// non-string items are dropped.
func textList(v any) ([]string, bool) {
	if s, ok := asText(v); ok {
		return []string{s}, true
	}
	items, ok := asList(v)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := asText(item); ok {
			out = append(out, s)
		}
	}
	return out, len(out) > 0
}

func textListOr(v any, def []string) []string {
	if out, ok := textList(v); ok {
		return out
	}
	return append([]string(nil), def...)
}

// numbersAt reads n numbers from v. Slots that are missing, mistyped or
// outside [lo, hi] take def(i).
func numbersAt(v any, n int, lo, hi float64, def func(i int) float64) []float64 {
	items, _ := asList(v)
	out := make([]float64, n)
	for i := range out {
		if i < len(items) {
			if f, ok := inRange(items[i], lo, hi); ok {
				out[i] = f
				continue
			}
		}
		out[i] = def(i)
	}
	return out
}

func intsAt(v any, n int, lo, hi float64, def func(i int) int) []int {
	floats := numbersAt(v, n, lo, hi, func(i int) float64 { return float64(def(i)) })
	out := make([]int, n)
	for i, f := range floats {
		out[i] = int(math.Round(f))
	}
	return out
}

// cycle returns a default lookup that repeats base when the series is longer
// than the built-in defaults.
func cycle(base []float64) func(int) float64 {
	return func(i int) float64 { return base[i%len(base)] }
}

func cycleInts(base []int) func(int) int {
	return func(i int) int { return base[i%len(base)] }
}

// fitTexts truncates or pads to n entries, padding with pad(i).
func fitTexts(in []string, n int, pad func(i int) string) []string {
	out := make([]string, n)
	for i := range out {
		if i < len(in) {
			out[i] = in[i]
		} else {
			out[i] = pad(i)
		}
	}
	return out
}

// normalizePercentages scales weights to integers that sum to exactly 100
// using largest-remainder rounding. It reports false when no weight is
// positive.
func normalizePercentages(weights []float64) ([]int, bool) {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 || len(weights) == 0 {
		return nil, false
	}
	out := make([]int, len(weights))
	remainders := make([]float64, len(weights))
	assigned := 0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		exact := w * 100 / total
		out[i] = int(math.Floor(exact))
		remainders[i] = exact - float64(out[i])
		assigned += out[i]
	}
	for assigned < 100 {
		best := -1
		for i, r := range remainders {
			if weights[i] <= 0 {
				continue
			}
			if best == -1 || r > remainders[best] {
				best = i
			}
		}
		out[best]++
		remainders[best] = -1
		assigned++
	}
	return out, true
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
