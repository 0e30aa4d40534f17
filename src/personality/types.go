package personality

type PersonalityConfig struct {
	Metadata MetadataConfig `toml:"metadata"`
	Display  DisplayConfig  `toml:"display"`
	Prompt   PromptConfig   `toml:"prompt"`
}

type MetadataConfig struct {
	Key   string `toml:"key"`
	Name  string `toml:"name"`
	Order int    `toml:"order"`
}

type DisplayConfig struct {
	Color string `toml:"color"`
	Icon  string `toml:"icon"`
}

type PromptConfig struct {
	Content string `toml:"content"`
}
