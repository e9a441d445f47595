package render

import (
	"fmt"
	"time"
)

// DefaultDateLayout is day.month.year hour:minute.
const DefaultDateLayout = "02.01.2006 15:04"

// FormatDate renders t in local time using layout, or DefaultDateLayout
// when layout is empty.
func FormatDate(t time.Time, layout string) string {
	if layout == "" {
		layout = DefaultDateLayout
	}
	return t.Local().Format(layout)
}

// TimeAgo returns a short relative time like "5m ago".
func TimeAgo(t time.Time) string {
	return timeAgo(t, time.Now())
}

func timeAgo(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	case d < 365*24*time.Hour:
		return fmt.Sprintf("%dmo ago", int(d.Hours()/24/30))
	default:
		return fmt.Sprintf("%dy ago", int(d.Hours()/24/365))
	}
}
