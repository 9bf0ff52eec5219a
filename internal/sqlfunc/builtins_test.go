package sqlfunc

import (
	"context"
	"database/sql"
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	r, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}

	want := []string{
		"MD5", "SHA1", "SHA224", "SHA256", "SHA384", "SHA512",
		"REGEXP", "CONTAINS", "STARTSWITH", "ENDSWITH", "SUBSTRING", "RANDOM_REGEXP_STRING",
		"REVERSE", "REPLACE", "STRIP", "TO_LOWER", "TO_UPPER", "TO_CAPITAL",
		"NOW_UNIX", "NOW_TIMESTAMP", "UNIX_FROM_TIMESTAMP", "TIMESTAMP_FROM_UNIX",
		"AFTER_UNIX", "BEFORE_UNIX", "AFTER_TIMESTAMP", "BEFORE_TIMESTAMP", "TIME_DIFFERENCE",
		"FUNCTIONS", "FUNCTION_DOCUMENTATION", "FUNCTION_ANNOTATIONS",
	}
	got := r.Names()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Names() = %v\nwant %v", got, want)
	}
}

func TestBuiltins_SQL(t *testing.T) {
	r, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	sess := installed(t, r)

	tests := []struct {
		query string
		want  string
	}{
		{"SELECT MD5('abc')", "900150983cd24fb0d6963f7d28e17f72"},
		{"SELECT SHA1('abc')", "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{"SELECT SHA256('abc')", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"SELECT CAST('abc' REGEXP '^a' AS TEXT)", "1"},
		{"SELECT CAST('abc' REGEXP 'c' AS TEXT)", "0"},
		{"SELECT CAST(CONTAINS('haystack', 'st') AS TEXT)", "1"},
		{"SELECT CAST(STARTSWITH('haystack', 'hay') AS TEXT)", "1"},
		{"SELECT CAST(ENDSWITH('haystack', 'hay') AS TEXT)", "0"},
		{"SELECT SUBSTRING('hello', 1, 3)", "el"},
		{"SELECT REVERSE('abc')", "cba"},
		{"SELECT REPLACE('a-a-a', '-', '+', 1)", "a+a-a"},
		{"SELECT REPLACE('a-a-a', '-', '+', -1)", "a+a+a"},
		{"SELECT STRIP('  x  ')", "x"},
		{"SELECT TO_LOWER('AbC')", "abc"},
		{"SELECT TO_UPPER('AbC')", "ABC"},
		{"SELECT TO_CAPITAL('hELLO')", "Hello"},
		{"SELECT FUNCTION_DOCUMENTATION('md5')", "Hashes string using md5 algorithm."},
		{"SELECT FUNCTION_ANNOTATIONS('substring')", "(string<string>, start<integer>, stop<integer>) -> <string>"},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got string
			if err := sess.QueryRowxContext(ctx, tt.query).Scan(&got); err != nil {
				t.Fatalf("query error = %v", err)
			}
			if got != tt.want {
				t.Errorf("%s = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestBuiltins_Reflection(t *testing.T) {
	r, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	sess := installed(t, r)
	ctx := context.Background()

	var list string
	if err := sess.QueryRowxContext(ctx, "SELECT FUNCTIONS()").Scan(&list); err != nil {
		t.Fatalf("FUNCTIONS() error = %v", err)
	}
	if !strings.HasPrefix(list, "MD5, SHA1") || !strings.HasSuffix(list, "FUNCTION_ANNOTATIONS") {
		t.Errorf("FUNCTIONS() = %q", list)
	}

	var missing sql.NullString
	if err := sess.QueryRowxContext(ctx, "SELECT FUNCTION_DOCUMENTATION('nope')").Scan(&missing); err != nil {
		t.Fatalf("FUNCTION_DOCUMENTATION() error = %v", err)
	}
	if missing.Valid {
		t.Errorf("FUNCTION_DOCUMENTATION('nope') = %q, want NULL", missing.String)
	}
}

func TestRandomRegexpString(t *testing.T) {
	pattern := `[a-f]{4}-\d{2}`
	re := regexp.MustCompile(`^` + pattern + `$`)

	for n := 0; n < 20; n++ {
		got, err := randomRegexpString(pattern)
		if err != nil {
			t.Fatalf("randomRegexpString() error = %v", err)
		}
		if !re.MatchString(got) {
			t.Errorf("randomRegexpString() = %q does not match %s", got, pattern)
		}
	}

	if _, err := randomRegexpString(`(`); err == nil {
		t.Error("invalid pattern should fail")
	}
}

func TestSubstring(t *testing.T) {
	tests := []struct {
		s           string
		start, stop int64
		want        string
	}{
		{"hello", 1, 3, "el"},
		{"hello", 2, -1, "llo"},
		{"hello", -1, 2, "he"},
		{"hello", -1, -1, "hell"},
		{"hello", -3, 5, "llo"},
		{"hello", 4, 2, ""},
		{"hello", 0, 99, "hello"},
		{"привет", 0, 3, "при"},
	}

	for _, tt := range tests {
		if got := substring(tt.s, tt.start, tt.stop); got != tt.want {
			t.Errorf("substring(%q, %d, %d) = %q, want %q", tt.s, tt.start, tt.stop, got, tt.want)
		}
	}
}

func TestPeriodSeconds(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"10s", 10},
		{"1m30s", 90},
		{"1d 2h", 86400 + 7200},
		{"1w", 604800},
		{"1M", 2592000},
		{"2y", 2 * 31536000},
		{"nonsense", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := periodSeconds(tt.in); got != tt.want {
			t.Errorf("periodSeconds(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTimeHelpers(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = time.Now })

	if got := nowUnix(); got != fixed.Unix() {
		t.Errorf("nowUnix() = %d, want %d", got, fixed.Unix())
	}

	unix, err := unixFromTimestamp("2024-03-01 12:00:00")
	if err != nil {
		t.Fatalf("unixFromTimestamp() error = %v", err)
	}
	if unix != fixed.Unix() {
		t.Errorf("unixFromTimestamp() = %d, want %d", unix, fixed.Unix())
	}
	if got := timestampFromUnix(unix); got != "2024-03-01 12:00:00" {
		t.Errorf("timestampFromUnix() = %q", got)
	}

	if _, err := unixFromTimestamp("yesterday"); err == nil {
		t.Error("unixFromTimestamp(yesterday) should fail")
	}

	diff, err := timeDifference("2024-03-01 12:01:00", "2024-03-01 12:00:00")
	if err != nil || diff != 60 {
		t.Errorf("timeDifference() = %d, %v, want 60", diff, err)
	}
}

func TestCapitalizeAndReverse(t *testing.T) {
	if got := capitalize(""); got != "" {
		t.Errorf("capitalize(\"\") = %q", got)
	}
	if got := capitalize("éCOLE"); got != "École" {
		t.Errorf("capitalize(éCOLE) = %q", got)
	}
	if got := reverse("añb"); got != "bña" {
		t.Errorf("reverse(añb) = %q", got)
	}
}
