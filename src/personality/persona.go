package personality

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Persona is a registered personality built from a PersonalityConfig.
// It is read-only once the registry is constructed.
type Persona struct {
	key    string
	name   string
	prompt string
	color  string
	icon   string
	order  int
}

func newPersona(pc *PersonalityConfig) *Persona {
	key := NormalizeKey(pc.Metadata.Key)
	name := strings.TrimSpace(pc.Metadata.Name)
	if name == "" {
		name = cases.Title(language.Und).String(key)
	}
	return &Persona{
		key:    key,
		name:   name,
		prompt: strings.TrimSpace(pc.Prompt.Content),
		color:  pc.Display.Color,
		icon:   pc.Display.Icon,
		order:  pc.Metadata.Order,
	}
}

func (p *Persona) GetKey() string {
	return p.key
}

func (p *Persona) GetName() string {
	return p.name
}

func (p *Persona) GetPrompt() string {
	return p.prompt
}

func (p *Persona) GetColor() string {
	return p.color
}

func (p *Persona) GetIcon() string {
	return p.icon
}

// NormalizeKey lowercases a persona key and collapses inner whitespace
func NormalizeKey(key string) string {
	return strings.Join(strings.Fields(strings.ToLower(key)), " ")
}
