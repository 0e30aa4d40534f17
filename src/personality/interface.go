package personality

// Personality defines the interface for all personality types
type Personality interface {
	GetKey() string
	GetName() string
	GetPrompt() string
	GetColor() string
	GetIcon() string
}
