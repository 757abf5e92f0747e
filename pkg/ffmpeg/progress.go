package ffmpeg

import (
	"bufio"
	"strconv"
	"strings"
	"time"
)

// Progress is one report from ffmpeg's -progress stream.
type Progress struct {
	Frame     int64
	FPS       float64
	Bitrate   string // as printed, e.g. "1234.5kbits/s"
	TotalSize int64  // bytes written so far
	OutTimeUS int64  // output position, microseconds
	Speed     string // e.g. "2.5x"
	Progress  string // "continue", or "end" on the last report
}

// OutTime is the output position as a duration.
func (p Progress) OutTime() time.Duration {
	return time.Duration(p.OutTimeUS) * time.Microsecond
}

// Percent returns how far the output timestamp is into total, clamped to
// [0, 100]. It returns 0 when total is unknown.
func (p Progress) Percent(total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	if p.Progress == "end" {
		return 100
	}
	pct := float64(p.OutTime()) / float64(total) * 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}

// progressState folds the key=value lines of the -progress stream into a
// Progress. Each report ends with a "progress=" line.
type progressState struct {
	cur Progress
}

// feed applies one line and reports whether it closed a report. Unknown keys
// and malformed lines are ignored.
func (s *progressState) feed(line string) bool {
	key, value, found := strings.Cut(strings.TrimSpace(line), "=")
	if !found || key == "" {
		return false
	}

	switch key {
	case "frame":
		s.cur.Frame, _ = strconv.ParseInt(value, 10, 64)
	case "fps":
		s.cur.FPS, _ = strconv.ParseFloat(value, 64)
	case "bitrate":
		s.cur.Bitrate = value
	case "total_size":
		s.cur.TotalSize, _ = strconv.ParseInt(value, 10, 64)
	case "out_time_us":
		s.cur.OutTimeUS, _ = strconv.ParseInt(value, 10, 64)
	case "speed":
		s.cur.Speed = value
	case "progress":
		s.cur.Progress = value
		return true
	}
	return false
}

// ParseProgressOutput sends one Progress per completed report. It stops after
// the "end" report or when the scanner runs dry.
func ParseProgressOutput(scanner *bufio.Scanner, progress chan<- Progress) {
	var state progressState
	for scanner.Scan() {
		if !state.feed(scanner.Text()) {
			continue
		}
		progress <- state.cur
		if state.cur.Progress == "end" {
			return
		}
	}
}
