package domain

import (
	"fmt"
	"time"
)

const MinutesPerDay = 24 * 60

// ParseClock parses a 24-hour "HH:MM" wall-clock string into a minute-of-day
// value in [0, MinutesPerDay).
func ParseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	var hour, minute int
	if _, err := fmt.Sscanf(s, "%02d:%02d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return hour*60 + minute, nil
}

// FormatClock renders a minute-of-day value as zero-padded "HH:MM".
func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// MinuteOfDay returns t's wall-clock position as minutes since midnight.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// DateOf truncates t to midnight in t's location.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// AtMinute returns the instant on date's calendar day at the given
// minute-of-day, in date's location.
func AtMinute(date time.Time, minute int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), minute/60, minute%60, 0, 0, date.Location())
}

func validMinute(m int) bool {
	return m >= 0 && m < MinutesPerDay
}

func validWeekday(d int16) bool {
	return d >= 0 && d <= 6
}
