package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type levelFile struct {
	Levels []Level `yaml:"levels"`
}

type badgeFile struct {
	Badges []struct {
		ID          string        `yaml:"id"`
		Name        string        `yaml:"name"`
		Description string        `yaml:"description"`
		Icon        string        `yaml:"icon"`
		AutoAward   *bool         `yaml:"auto_award"`
		Condition   ConditionSpec `yaml:"condition"`
	} `yaml:"badges"`
}

// LoadLevelCatalog reads a YAML level table. An empty path yields the default ladder.
//
//	levels:
//	  - {level: 1, name: Beginner, min_points: 0, min_analyses: 0}
//	  - {level: 2, name: Player, min_points: 100, min_analyses: 5}
func LoadLevelCatalog(path string) (*LevelCatalog, error) {
	if path == "" {
		return NewLevelCatalog(DefaultLevels())
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read level catalog: %w", err)
	}
	return ParseLevelCatalog(raw)
}

// ParseLevelCatalog decodes a YAML level table.
func ParseLevelCatalog(raw []byte) (*LevelCatalog, error) {
	var f levelFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return NewLevelCatalog(f.Levels)
}

// LoadBadgeCatalog reads a YAML badge set. An empty path yields the default badges.
//
//	badges:
//	  - id: consistent_week
//	    name: First Steps of Consistency
//	    icon: "📅"
//	    condition: {kind: windowed_count, window: 168h, min: 3}
func LoadBadgeCatalog(path string) (*BadgeCatalog, error) {
	if path == "" {
		return NewBadgeCatalog(DefaultBadges())
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read badge catalog: %w", err)
	}
	return ParseBadgeCatalog(raw)
}

// ParseBadgeCatalog decodes a YAML badge set. auto_award defaults to true.
func ParseBadgeCatalog(raw []byte) (*BadgeCatalog, error) {
	var f badgeFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	defs := make([]BadgeDefinition, 0, len(f.Badges))
	for _, b := range f.Badges {
		cond, err := b.Condition.Build()
		if err != nil {
			return nil, fmt.Errorf("badge %q: %w", b.ID, err)
		}
		auto := true
		if b.AutoAward != nil {
			auto = *b.AutoAward
		}
		defs = append(defs, BadgeDefinition{
			ID:          b.ID,
			Name:        b.Name,
			Description: b.Description,
			Icon:        b.Icon,
			AutoAward:   auto,
			Condition:   cond,
		})
	}
	return NewBadgeCatalog(defs)
}
