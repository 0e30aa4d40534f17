package context

import (
	"fmt"
	"strings"
	"time"
)

// GetContextualPrompt returns time/date contextual information for now
func GetContextualPrompt(now time.Time) string {
	var b strings.Builder

	b.WriteString("# Contextual Information\n\n")
	fmt.Fprintf(&b, "## Current Time: %s\n", now.Format("15:04:05 MST"))
	fmt.Fprintf(&b, "## Current Date: %s\n", now.Format("Monday, January 2, 2006"))
	fmt.Fprintf(&b, "## Timezone: %s\n", now.Location().String())
	fmt.Fprintf(&b, "## Part of Day: %s\n", partOfDay(now))

	return b.String()
}

func partOfDay(now time.Time) string {
	switch h := now.Hour(); {
	case h < 5:
		return "night"
	case h < 12:
		return "morning"
	case h < 17:
		return "afternoon"
	case h < 21:
		return "evening"
	default:
		return "night"
	}
}
