package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw     string
		kind    Kind
		persona string
	}{
		{"stay", Stay, ""},
		{"  STAY \n", Stay, ""},
		{"Stay.", Stay, ""},
		{`"stay"`, Stay, ""},
		{"prompt", Prompt, ""},
		{"'Prompt'", Prompt, ""},
		{"switch:yoda", Switch, "yoda"},
		{"Switch:Yoda", Switch, "yoda"},
		{"switch: jar jar binks", Switch, "jar jar binks"},
		{"switch:JAR   JAR BINKS.", Switch, "jar jar binks"},
		{"`switch:groot`", Switch, "groot"},
		{"switch:darth vader", Switch, "darth vader"},
		{"switch:", Malformed, ""},
		{"switch:  ", Malformed, ""},
		{"", Malformed, ""},
		{"I think you should stay", Malformed, ""},
		{"stay\nprompt", Malformed, ""},
		{"switch yoda", Malformed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			d := Parse(tt.raw)
			assert.Equal(t, tt.kind, d.Kind)
			assert.Equal(t, tt.persona, d.Persona)
			assert.Equal(t, tt.raw, d.Raw)
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "stay", Stay.String())
	assert.Equal(t, "prompt", Prompt.String())
	assert.Equal(t, "switch", Switch.String())
	assert.Equal(t, "malformed", Malformed.String())
}
