package responder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"kudubot/internal/domain"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// RuleFile is the YAML layout of a rules file.
type RuleFile struct {
	Rules []domain.RuleDefinition `yaml:"rules"`
}

// LoadFile reads the rules in a single YAML file. Unnamed rules are named
// after the file and their position.
func LoadFile(path string) ([]domain.RuleDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var file RuleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for i := range file.Rules {
		if file.Rules[i].Name == "" {
			file.Rules[i].Name = fmt.Sprintf("%s#%d", base, i+1)
		}
	}
	return file.Rules, nil
}

// LoadFromDirectory loads every .yaml or .yml file in dir. Unreadable or
// invalid files are skipped with a warning.
func LoadFromDirectory(dir string, logger zerolog.Logger) ([]domain.RuleDefinition, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logger.Debug().Str("dir", dir).Msg("rules directory does not exist, skipping")
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read rules dir: %w", err)
	}

	var rules []domain.RuleDefinition
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		path := filepath.Join(dir, name)
		loaded, err := LoadFile(path)
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("cannot load rules file")
			continue
		}
		logger.Debug().Str("path", path).Int("rules", len(loaded)).Msg("loaded rules file")
		rules = append(rules, loaded...)
	}

	return rules, nil
}
