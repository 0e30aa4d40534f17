package context

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetContextualPrompt(t *testing.T) {
	now := time.Date(2024, time.May, 4, 9, 30, 0, 0, time.UTC)

	prompt := GetContextualPrompt(now)

	assert.Contains(t, prompt, "# Contextual Information")
	assert.Contains(t, prompt, "## Current Time: 09:30:00 UTC")
	assert.Contains(t, prompt, "## Current Date: Saturday, May 4, 2024")
	assert.Contains(t, prompt, "## Timezone: UTC")
	assert.Contains(t, prompt, "## Part of Day: morning")
}

func TestPartOfDay(t *testing.T) {
	tests := map[int]string{
		0:  "night",
		4:  "night",
		5:  "morning",
		12: "afternoon",
		17: "evening",
		21: "night",
		23: "night",
	}
	for hour, want := range tests {
		now := time.Date(2024, 1, 1, hour, 0, 0, 0, time.UTC)
		assert.Equal(t, want, partOfDay(now), "hour %d", hour)
	}
}
