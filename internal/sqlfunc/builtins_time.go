package sqlfunc

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// TimestampLayout is the textual timestamp format used by the time helpers.
const TimestampLayout = "2006-01-02 15:04:05"

// now is the clock used by the time helpers.
var now = time.Now

// periodUnits maps a period suffix to its length in seconds.
var periodUnits = map[byte]int64{
	's': 1,
	'm': 60,
	'h': 60 * 60,
	'd': 60 * 60 * 24,
	'w': 60 * 60 * 24 * 7,
	'M': 60 * 60 * 24 * 30,
	'y': 60 * 60 * 24 * 365,
}

var periodPattern = regexp.MustCompile(`\d+[smhdwMy]`)

func timeFunctions() []Function {
	return []Function{
		{
			Name: "now_unix", Returns: TypeInteger,
			Doc:  "Retrieves current Unix-time.",
			Impl: nowUnix,
		},
		{
			Name: "now_timestamp", Returns: TypeString,
			Doc:  "Retrieves current time stamp.",
			Impl: func() string { return now().Format(TimestampLayout) },
		},
		{
			Name: "unix_from_timestamp", Params: []Param{str("timestamp")}, Returns: TypeInteger, Pure: true,
			Doc:  "Converts time stamp to Unix-time.",
			Impl: unixFromTimestamp,
		},
		{
			Name: "timestamp_from_unix", Params: []Param{integer("unix_time")}, Returns: TypeString, Pure: true,
			Doc:  "Converts Unix-time to time stamp.",
			Impl: timestampFromUnix,
		},
		{
			Name: "after_unix", Params: []Param{str("format_time_string")}, Returns: TypeInteger,
			Doc:  "Retrieves Unix-time after specified time period.",
			Impl: func(period string) int64 { return nowUnix() + periodSeconds(period) },
		},
		{
			Name: "before_unix", Params: []Param{str("format_time_string")}, Returns: TypeInteger,
			Doc:  "Retrieves Unix-time before specified time period.",
			Impl: func(period string) int64 { return nowUnix() - periodSeconds(period) },
		},
		{
			Name: "after_timestamp", Params: []Param{str("format_time_string")}, Returns: TypeString,
			Doc:  "Retrieves time stamp after specified time period.",
			Impl: func(period string) string { return timestampFromUnix(nowUnix() + periodSeconds(period)) },
		},
		{
			Name: "before_timestamp", Params: []Param{str("format_time_string")}, Returns: TypeString,
			Doc:  "Retrieves time stamp before specified time period.",
			Impl: func(period string) string { return timestampFromUnix(nowUnix() - periodSeconds(period)) },
		},
		{
			Name: "time_difference", Params: []Param{str("stop_timestamp"), str("start_timestamp")}, Returns: TypeInteger, Pure: true,
			Doc:  "Retrieves time difference in seconds between two time stamps.",
			Impl: timeDifference,
		},
	}
}

func nowUnix() int64 {
	return now().Unix()
}

func unixFromTimestamp(ts string) (int64, error) {
	t, err := time.ParseInLocation(TimestampLayout, ts, time.Local)
	if err != nil {
		return 0, fmt.Errorf("parsing timestamp %q: %w", ts, err)
	}
	return t.Unix(), nil
}

func timestampFromUnix(unix int64) string {
	return time.Unix(unix, 0).In(time.Local).Format(TimestampLayout)
}

func timeDifference(stop, start string) (int64, error) {
	b, err := unixFromTimestamp(stop)
	if err != nil {
		return 0, err
	}
	a, err := unixFromTimestamp(start)
	if err != nil {
		return 0, err
	}
	return b - a, nil
}

// periodSeconds sums every "<n><unit>" token of period, e.g. "1d12h".
// Unrecognised text is ignored.
func periodSeconds(period string) int64 {
	var total int64
	for _, tok := range periodPattern.FindAllString(period, -1) {
		n, err := strconv.ParseInt(tok[:len(tok)-1], 10, 64)
		if err != nil {
			continue
		}
		total += n * periodUnits[tok[len(tok)-1]]
	}
	return total
}
