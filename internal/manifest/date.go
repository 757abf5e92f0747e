package manifest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// serialEpochOffset is the spreadsheet serial of 1970-01-01 (serial 0 is 1899-12-30).
const serialEpochOffset = 25569

const msPerDay = 86400 * 1000

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// DecodeDate converts a date cell into a UTC time. Numeric cells are
// spreadsheet serial days counted from 1899-12-30, rounded to the millisecond.
func DecodeDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		return FromSerial(serial)
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

// FromSerial converts a spreadsheet serial day number into a UTC time.
func FromSerial(serial float64) (time.Time, error) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) {
		return time.Time{}, fmt.Errorf("invalid date serial %v", serial)
	}
	ms := math.Round((serial - serialEpochOffset) * msPerDay)
	if ms > math.MaxInt64/2 || ms < math.MinInt64/2 {
		return time.Time{}, fmt.Errorf("date serial %v out of range", serial)
	}
	return time.UnixMilli(int64(ms)).UTC(), nil
}
