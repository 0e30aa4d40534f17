package personality

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed data/*.toml
var embeddedPersonalities embed.FS

// LoadRegistry builds the registry from the embedded personalities, then
// applies every *.toml file in userDir on top. A user file whose key matches
// an embedded persona replaces it. An empty or missing userDir is skipped.
func LoadRegistry(userDir string) (*Registry, error) {
	configs, err := loadFromEmbedded()
	if err != nil {
		return nil, err
	}

	if userDir != "" {
		userConfigs, err := loadFromDir(userDir)
		if err != nil {
			return nil, err
		}
		configs = mergeConfigs(configs, userConfigs)
	}

	return NewRegistry(configs)
}

func loadFromEmbedded() ([]*PersonalityConfig, error) {
	return loadFromFS(embeddedPersonalities, "data")
}

func loadFromDir(dir string) ([]*PersonalityConfig, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}
	return loadFromFS(os.DirFS(dir), ".")
}

func loadFromFS(fsys fs.FS, dir string) ([]*PersonalityConfig, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read personalities directory: %w", err)
	}

	var configs []*PersonalityConfig
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}

		filePath := filepath.ToSlash(filepath.Join(dir, entry.Name()))
		data, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read personality file %s: %w", entry.Name(), err)
		}

		pc, err := parsePersonalityConfig(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		configs = append(configs, pc)
	}

	return configs, nil
}

func parsePersonalityConfig(data []byte) (*PersonalityConfig, error) {
	var pc PersonalityConfig
	if _, err := toml.Decode(string(data), &pc); err != nil {
		return nil, fmt.Errorf("failed to parse personality config: %w", err)
	}
	return &pc, nil
}

// mergeConfigs replaces base entries by key and appends new ones
func mergeConfigs(base, overrides []*PersonalityConfig) []*PersonalityConfig {
	merged := make([]*PersonalityConfig, len(base))
	copy(merged, base)

	index := make(map[string]int, len(merged))
	for i, pc := range merged {
		index[NormalizeKey(pc.Metadata.Key)] = i
	}

	for _, pc := range overrides {
		key := NormalizeKey(pc.Metadata.Key)
		if i, ok := index[key]; ok {
			merged[i] = pc
			continue
		}
		index[key] = len(merged)
		merged = append(merged, pc)
	}

	return merged
}
