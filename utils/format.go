package utils

import (
	// Go Internal Packages
	"fmt"
	"strings"
	"time"
)

// FormatAccountNumber groups every run of digits in threes: 001001001 becomes 001 001 001.
func FormatAccountNumber(number string) string {
	var b strings.Builder
	run := 0
	for i := 0; i < len(number); i++ {
		c := number[i]
		b.WriteByte(c)
		if c < '0' || c > '9' {
			run = 0
			continue
		}
		run++
		if run%3 == 0 && i+1 < len(number) && number[i+1] >= '0' && number[i+1] <= '9' {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// RelativeTime renders how long ago t was: Just now, 5m ago, 3h ago, 2d ago.
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "Just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	}
	return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
}

// Countdown renders a remaining duration as m:ss, or Expired once it is not positive.
func Countdown(d time.Duration) string {
	if d <= 0 {
		return "Expired"
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
