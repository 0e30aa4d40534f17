package composer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parlor/src/memory"
	"parlor/src/personality"
)

func registry(t *testing.T) *personality.Registry {
	t.Helper()
	reg, err := personality.LoadRegistry("")
	require.NoError(t, err)
	return reg
}

func TestComposePrompt(t *testing.T) {
	yoda, ok := registry(t).Lookup("yoda")
	require.True(t, ok)

	t.Run("without context", func(t *testing.T) {
		prompt := ComposePrompt(yoda, Options{})
		layers := strings.Split(prompt, layerSeparator)
		require.Len(t, layers, 2)
		assert.Equal(t, yoda.GetPrompt(), layers[0])
		assert.Equal(t, globalInstructions, layers[1])
	})

	t.Run("with context", func(t *testing.T) {
		now := time.Date(2024, 5, 4, 20, 0, 0, 0, time.UTC)
		prompt := ComposePrompt(yoda, Options{IncludeContext: true, Now: func() time.Time { return now }})
		layers := strings.Split(prompt, layerSeparator)
		require.Len(t, layers, 3)
		assert.Equal(t, yoda.GetPrompt(), layers[0])
		assert.Contains(t, layers[1], "Saturday, May 4, 2024")
		assert.Equal(t, globalInstructions, layers[2])
	})
}

func TestComposeTranscript(t *testing.T) {
	entries := []memory.Entry{
		{Speaker: "User", Text: "hi"},
		{Speaker: "Groot", Text: "I am Groot."},
		{Speaker: "User", Text: "how are you"},
		{Speaker: "Groot", Text: "I am Groot!"},
	}

	tests := []struct {
		name   string
		window int
		want   string
	}{
		{"empty transcript", 0, "User: hello"},
		{"whole transcript", 0, "User: hi\nGroot: I am Groot.\nUser: how are you\nGroot: I am Groot!\nUser: hello"},
		{"window", 2, "User: how are you\nGroot: I am Groot!\nUser: hello"},
		{"window larger than transcript", 10, "User: hi\nGroot: I am Groot.\nUser: how are you\nGroot: I am Groot!\nUser: hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := entries
			if tt.name == "empty transcript" {
				in = nil
			}
			assert.Equal(t, tt.want, ComposeTranscript(in, tt.window, "hello"))
		})
	}
}

func TestRouterPrompt(t *testing.T) {
	prompt := RouterPrompt(registry(t))
	assert.Contains(t, prompt, "Yoda, Jar Jar Binks, Pikachu, Groot, or Toge Inumaki")
	assert.Contains(t, prompt, "yoda, jar jar binks, pikachu, groot, toge inumaki")
}

func TestDecisionRequest(t *testing.T) {
	req := DecisionRequest("", "hello")
	assert.True(t, strings.HasPrefix(req, "Current character: None\nUser said: hello\n\n"))

	req = DecisionRequest("groot", "let me talk to yoda")
	assert.True(t, strings.HasPrefix(req, "Current character: groot\nUser said: let me talk to yoda\n\n"))
	assert.Contains(t, req, "'switch:<character_key>'")
	assert.Contains(t, req, "'stay'")
	assert.Contains(t, req, "'prompt'")
}
