package sqlfunc

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lucasjones/reggen"
)

// randomRepeatLimit caps unbounded repetition (*, +) in generated strings.
const randomRepeatLimit = 10

func stringFunctions() []Function {
	return []Function{
		{
			// Backs the REGEXP operator: "x REGEXP p" calls REGEXP(p, x).
			Name: "regexp", Params: []Param{str("pattern"), str("string")}, Returns: TypeBoolean, Pure: true,
			Doc:  "Checks if string matches regex pattern.",
			Impl: matchPrefix,
		},
		{
			Name: "contains", Params: []Param{str("string"), str("substring")}, Returns: TypeBoolean, Pure: true,
			Doc:  "Checks if substring contains in string.",
			Impl: strings.Contains,
		},
		{
			Name: "startswith", Params: []Param{str("string"), str("substring")}, Returns: TypeBoolean, Pure: true,
			Doc:  "Checks if string starts with substring.",
			Impl: strings.HasPrefix,
		},
		{
			Name: "endswith", Params: []Param{str("string"), str("substring")}, Returns: TypeBoolean, Pure: true,
			Doc:  "Checks if string ends with substring.",
			Impl: strings.HasSuffix,
		},
		{
			Name: "substring", Params: []Param{str("string"), integer("start"), integer("stop")}, Returns: TypeString, Pure: true,
			Doc:  "Retrieves substring from string using start and stop indexes.",
			Impl: substring,
		},
		{
			Name: "random_regexp_string", Params: []Param{str("pattern")}, Returns: TypeString,
			Doc:  "Generates random string matching given regexp pattern.",
			Impl: randomRegexpString,
		},
		{
			Name: "reverse", Params: []Param{str("string")}, Returns: TypeString, Pure: true,
			Doc:  "Reverses string.",
			Impl: reverse,
		},
		{
			Name: "replace", Params: []Param{str("string"), str("old"), str("new"), integer("times")}, Returns: TypeString, Pure: true,
			Doc:  "Replaces substring in string N times. Replaces all substrings if `times` is `-1`.",
			Impl: func(s, old, repl string, times int64) string { return strings.Replace(s, old, repl, int(times)) },
		},
		{
			Name: "strip", Params: []Param{str("string")}, Returns: TypeString, Pure: true,
			Doc:  "Deletes all escape and space chars from the end and start of the string.",
			Impl: strings.TrimSpace,
		},
		{
			Name: "to_lower", Params: []Param{str("string")}, Returns: TypeString, Pure: true,
			Doc:  "Converts string to lowercase.",
			Impl: strings.ToLower,
		},
		{
			Name: "to_upper", Params: []Param{str("string")}, Returns: TypeString, Pure: true,
			Doc:  "Converts string to uppercase.",
			Impl: strings.ToUpper,
		},
		{
			Name: "to_capital", Params: []Param{str("string")}, Returns: TypeString, Pure: true,
			Doc:  "Converts first char of the string to uppercase, another ones to lowercase.",
			Impl: capitalize,
		},
	}
}

// matchPrefix reports whether pattern matches at the start of s.
func matchPrefix(pattern, s string) (bool, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)`)
	if err != nil {
		return false, fmt.Errorf("invalid pattern: %w", err)
	}
	return re.MatchString(s), nil
}

// substring slices s by character index with Python slice rules:
// negative indexes count from the end and -1 leaves that side open,
// except when both are -1, which drops the last character.
func substring(s string, start, stop int64) string {
	runes := []rune(s)
	n := int64(len(runes))

	clamp := func(i int64) int64 {
		if i < 0 {
			i += n
		}
		return max(0, min(i, n))
	}

	lo, hi := int64(0), n
	switch {
	case start != -1 && stop != -1:
		lo, hi = clamp(start), clamp(stop)
	case start != -1:
		lo = clamp(start)
	default:
		hi = clamp(stop)
	}
	if lo >= hi {
		return ""
	}
	return string(runes[lo:hi])
}

func randomRegexpString(pattern string) (string, error) {
	out, err := reggen.Generate(pattern, randomRepeatLimit)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoPattern, err)
	}
	return out, nil
}

func reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

func capitalize(s string) string {
	first, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(first)) + strings.ToLower(s[size:])
}
