package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Phrases overrides the assistant's trigger phrases and silence delay. Empty
// fields keep the built-in defaults.
type Phrases struct {
	WakePhrases  []string      `yaml:"wakePhrases"`
	ExitPhrases  []string      `yaml:"exitPhrases"`
	SilenceDelay time.Duration `yaml:"silenceDelay"`
}

func (p *Phrases) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		WakePhrases  []string `yaml:"wakePhrases"`
		ExitPhrases  []string `yaml:"exitPhrases"`
		SilenceDelay string   `yaml:"silenceDelay"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	p.WakePhrases = raw.WakePhrases
	p.ExitPhrases = raw.ExitPhrases
	p.SilenceDelay = 0
	if raw.SilenceDelay != "" {
		d, err := parseDuration(raw.SilenceDelay)
		if err != nil {
			return fmt.Errorf("invalid silenceDelay: %w", err)
		}
		p.SilenceDelay = d
	}
	return nil
}

func LoadPhrases(path string) (Phrases, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Phrases{}, fmt.Errorf("failed to read phrases file: %w", err)
	}

	var phrases Phrases
	if err := yaml.Unmarshal(data, &phrases); err != nil {
		return Phrases{}, fmt.Errorf("failed to parse phrases file: %w", err)
	}
	return phrases, nil
}
