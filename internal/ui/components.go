package ui

import (
	"fmt"
	"strings"
	"time"
)

// formatClock renders d as m:ss, or h:mm:ss from one hour up. Negative
// durations show as 0:00.
func formatClock(d time.Duration) string {
	total := int(max(d, 0) / time.Second)
	h, m, s := total/3600, total/60%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// renderProgressBar draws a width-cell track with the knob at ratio.
func renderProgressBar(ratio float64, width int) string {
	width = max(width, 1)
	ratio = max(0, min(1, ratio))

	filled := int(ratio * float64(width-1))
	return strings.Repeat("━", filled) +
		knobStyle.Render("●") +
		strings.Repeat("─", width-1-filled)
}

// barFraction maps a click column to a fraction of a bar starting at x0.
func barFraction(x, x0, width int) (float64, bool) {
	if width <= 1 || x < x0 || x >= x0+width {
		return 0, false
	}
	return float64(x-x0) / float64(width-1), true
}
