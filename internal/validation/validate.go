package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"
)

// patterns caches compiled full-match expressions keyed by source.
var patterns sync.Map

// Validate checks payload against fields and returns the problems found.
// A nil or empty result means the payload is valid.
func Validate(payload map[string]any, fields []Field) []string {
	var missing, invalid []string

	for _, f := range fields {
		value, ok := payload[f.Name]
		if !ok {
			missing = append(missing, fmt.Sprintf("Param `%s` required but not received", f.Name))
			continue
		}
		if msg := check(value, f.Constraint); msg != "" {
			invalid = append(invalid, fmt.Sprintf("Param `%s` %s", f.Name, msg))
		}
	}

	return append(missing, invalid...)
}

// check returns the first violation of c by value, or "".
func check(value any, c Constraint) string {
	if !hasType(value, c.Type()) {
		return fmt.Sprintf("has to be `%s` type", c.Type())
	}

	switch c := c.(type) {
	case Enum:
		if !contains(c.Values, value) {
			quoted := make([]string, len(c.Values))
			for i, v := range c.Values {
				quoted[i] = fmt.Sprintf("'%v'", v)
			}
			return "can only have one of the values: " + strings.Join(quoted, ", ")
		}
	case Range:
		n, _ := toFloat(value)
		return checkRange(n, c)
	case Pattern:
		return checkString(value.(string), c) //nolint:forcetypeassert // hasType guarantees string
	}
	return ""
}

func checkRange(n float64, r Range) string {
	switch {
	case r.Min != nil && r.Max != nil && (n < r.Min.Value || n > r.Max.Value):
		return fmt.Sprintf("has to be in range from `%s` to `%s` inclusive", r.Min, r.Max)
	case r.Min != nil && n < r.Min.Value:
		return fmt.Sprintf("has to be greater than `%s`", r.Min)
	case r.Max != nil && n > r.Max.Value:
		return fmt.Sprintf("has to be less than `%s`", r.Max)
	}
	return ""
}

func checkString(s string, p Pattern) string {
	length := utf8.RuneCountInString(s)

	switch {
	case p.MinLength > 0 && p.MinLength == p.MaxLength && length != p.MinLength:
		return fmt.Sprintf("has to be `%d` char(s)", p.MinLength)
	case p.MinLength > 0 && length < p.MinLength:
		return fmt.Sprintf("too short, has to be at least `%d` char(s)", p.MinLength)
	case p.MaxLength > 0 && length > p.MaxLength:
		return fmt.Sprintf("too long, has to be at most `%d` char(s)", p.MaxLength)
	}

	if p.Expr != "" && !fullMatch(p.Expr, s) {
		return fmt.Sprintf("doesn't match `%s` limitation pattern", strings.ReplaceAll(p.Expr, `\`, `\\`))
	}
	return ""
}

// fullMatch reports whether expr matches all of s.
// An expression that does not compile matches nothing.
func fullMatch(expr, s string) bool {
	if re, ok := patterns.Load(expr); ok {
		return re.(*regexp.Regexp).MatchString(s) //nolint:forcetypeassert // cache only holds *regexp.Regexp
	}
	re, err := regexp.Compile(`^(?:` + expr + `)$`)
	if err != nil {
		return false
	}
	patterns.Store(expr, re)
	return re.MatchString(s)
}

func hasType(value any, t Type) bool {
	switch t {
	case String:
		_, ok := value.(string)
		return ok
	case Number:
		_, ok := toFloat(value)
		return ok
	case Boolean:
		_, ok := value.(bool)
		return ok
	default:
		return false
	}
}

// toFloat converts the numeric kinds a decoder can produce.
func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func contains(values []any, value any) bool {
	n, numeric := toFloat(value)
	for _, v := range values {
		if numeric {
			if m, ok := toFloat(v); ok && m == n {
				return true
			}
			continue
		}
		if v == value {
			return true
		}
	}
	return false
}

// FormatNumber renders n with `_` between thousands, as in 1_000_000 or
// 12_345.5.
func FormatNumber(n float64) string {
	var s string
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		s = strconv.FormatInt(int64(n), 10)
	} else {
		s = strconv.FormatFloat(n, 'f', -1, 64)
	}

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}

	out := sign + b.String()
	if hasFrac {
		out += "." + frac
	}
	return out
}
