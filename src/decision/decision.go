package decision

import (
	"strings"
)

// Kind enumerates what the router was told to do with a turn
type Kind int

const (
	Malformed Kind = iota
	Stay
	Prompt
	Switch
)

func (k Kind) String() string {
	switch k {
	case Stay:
		return "stay"
	case Prompt:
		return "prompt"
	case Switch:
		return "switch"
	default:
		return "malformed"
	}
}

const switchPrefix = "switch:"

// Decision is the decoded reply of the decision service. Persona is set
// only for Switch and holds the normalized key, which may or may not be
// registered. Raw always holds the text as received.
type Decision struct {
	Kind    Kind
	Persona string
	Raw     string
}

// Parse decodes a raw decision. Case, surrounding whitespace, surrounding
// quotes or backticks, and a single trailing period are tolerated. Anything
// outside the stay / prompt / switch:<key> grammar is Malformed.
func Parse(raw string) Decision {
	d := Decision{Kind: Malformed, Raw: raw}

	s := clean(raw)
	switch {
	case s == "stay":
		d.Kind = Stay
	case s == "prompt":
		d.Kind = Prompt
	case strings.HasPrefix(s, switchPrefix):
		key := normalize(strings.TrimPrefix(s, switchPrefix))
		if key == "" {
			return d
		}
		d.Kind = Switch
		d.Persona = key
	}
	return d
}

func clean(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.Trim(s, "\"'`")
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".")
	s = strings.Trim(s, "\"'`")
	return strings.TrimSpace(s)
}

func normalize(key string) string {
	key = strings.Trim(strings.TrimSpace(key), "\"'`")
	return strings.Join(strings.Fields(key), " ")
}
