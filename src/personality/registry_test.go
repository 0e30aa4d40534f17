package personality

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "parlor/src/errors"
)

func config(key string, order int) *PersonalityConfig {
	return &PersonalityConfig{
		Metadata: MetadataConfig{Key: key, Order: order},
		Prompt:   PromptConfig{Content: "Speak like " + key},
	}
}

func TestLoadRegistry_Embedded(t *testing.T) {
	r, err := LoadRegistry("")
	require.NoError(t, err)

	assert.Equal(t, []string{"yoda", "jar jar binks", "pikachu", "groot", "toge inumaki"}, r.Keys())
	assert.Equal(t, "Yoda, Jar Jar Binks, Pikachu, Groot, or Toge Inumaki", r.DisplayList())

	yoda, ok := r.Lookup("YODA")
	require.True(t, ok)
	assert.Equal(t, "Yoda", yoda.GetName())
	assert.NotEmpty(t, yoda.GetIcon())
	assert.Contains(t, yoda.GetPrompt(), "Yoda")
}

func TestLoadRegistry_UserOverrides(t *testing.T) {
	dir := t.TempDir()
	override := `
[metadata]
key = "Groot"
order = 4

[prompt]
content = "Speak like a very tired tree."
`
	extra := `
[metadata]
key = "marvin"
name = "Marvin the Paranoid Android"
order = 10

[display]
icon = "🤖"

[prompt]
content = "Speak like Marvin: gloomy and depressed."
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "groot.toml"), []byte(override), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marvin.toml"), []byte(extra), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	r, err := LoadRegistry(dir)
	require.NoError(t, err)

	assert.Equal(t, 6, r.Len())
	groot, ok := r.Lookup("groot")
	require.True(t, ok)
	assert.Equal(t, "Speak like a very tired tree.", groot.GetPrompt())
	assert.Equal(t, "Groot", groot.GetName(), "name falls back to the title-cased key")

	keys := r.Keys()
	assert.Equal(t, "marvin", keys[len(keys)-1])
}

func TestLoadRegistry_MissingUserDirIsIgnored(t *testing.T) {
	r, err := LoadRegistry(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Equal(t, 5, r.Len())
}

func TestLoadRegistry_BadUserFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.toml"), []byte("[metadata\nkey="), 0644))

	_, err := LoadRegistry(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.toml")
}

func TestNewRegistry_Validation(t *testing.T) {
	t.Run("empty roster", func(t *testing.T) {
		_, err := NewRegistry(nil)
		assert.ErrorIs(t, err, perrors.ErrNoPersonalities)
	})

	t.Run("empty key", func(t *testing.T) {
		_, err := NewRegistry([]*PersonalityConfig{config("  ", 1)})
		assert.True(t, perrors.IsConfiguration(err))
	})

	t.Run("duplicate key", func(t *testing.T) {
		_, err := NewRegistry([]*PersonalityConfig{config("yoda", 1), config("YODA", 2)})
		var verr *perrors.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "duplicate persona key", verr.Message)
	})

	t.Run("empty prompt", func(t *testing.T) {
		pc := config("yoda", 1)
		pc.Prompt.Content = "\n"
		_, err := NewRegistry([]*PersonalityConfig{pc})
		assert.Error(t, err)
	})
}

func TestRegistry_OrderTieBreaksByKey(t *testing.T) {
	r, err := NewRegistry([]*PersonalityConfig{config("zed", 1), config("amy", 1), config("first", 0)})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "amy", "zed"}, r.Keys())
}

func TestRegistry_Match(t *testing.T) {
	r, err := LoadRegistry("")
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain key", "yoda", "yoda"},
		{"case insensitive", "let's talk to Yoda please", "yoda"},
		{"multi word key", "Put JAR JAR BINKS on", "jar jar binks"},
		{"first in registry order wins", "groot or yoda, whichever", "yoda"},
		{"substring inside a word", "pikachus everywhere", "pikachu"},
		{"no match", "hello there", ""},
		{"partial multi word key", "just jar jar", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := r.Match(tt.input)
			if tt.want == "" {
				assert.False(t, ok)
				assert.Nil(t, p)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, p.GetKey())
		})
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	r, err := LoadRegistry("")
	require.NoError(t, err)

	_, err = r.Get("darth vader")
	assert.ErrorIs(t, err, perrors.ErrUnknownPersona)

	p, err := r.Get("  Toge   Inumaki ")
	require.NoError(t, err)
	assert.Equal(t, "toge inumaki", p.GetKey())
}

func TestRegistry_DisplayListShortRosters(t *testing.T) {
	one, err := NewRegistry([]*PersonalityConfig{config("yoda", 1)})
	require.NoError(t, err)
	assert.Equal(t, "Yoda", one.DisplayList())

	two, err := NewRegistry([]*PersonalityConfig{config("yoda", 1), config("groot", 2)})
	require.NoError(t, err)
	assert.Equal(t, "Yoda or Groot", two.DisplayList())
}

func TestRegistry_PersonasIsACopy(t *testing.T) {
	r, err := LoadRegistry("")
	require.NoError(t, err)

	ps := r.Personas()
	ps[0] = nil
	assert.NotNil(t, r.Personas()[0])
}
