// Package predefined loads the optional predefined-hand overlay used by instruction matches.
package predefined

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jason-s-yu/peekmatch/internal/models"
	"gopkg.in/yaml.v3"
)

// Config is the predefined hands overlay, keyed by seat index.
type Config struct {
	Enabled bool                      `yaml:"enabled" json:"enabled"`
	Hands   map[int][]models.CardSpec `yaml:"hands" json:"hands"`
}

// Source loads the overlay configuration.
type Source interface {
	LoadConfig(ctx context.Context) (Config, error)
}

// FileSource reads the overlay from a YAML file on every load, so edits apply to the next match.
//
//	enabled: true
//	hands:
//	  0:
//	    - {rank: ace, suit: hearts}
//	    - {rank: "2", suit: spades}
type FileSource struct {
	Path string
}

// LoadConfig implements Source. A missing file yields a disabled config and no error.
func (f FileSource) LoadConfig(ctx context.Context) (Config, error) {
	if err := ctx.Err(); err != nil {
		return Config{}, err
	}
	if f.Path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read predefined hands %s: %w", f.Path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse predefined hands %s: %w", f.Path, err)
	}
	return cfg, nil
}

// StaticSource always returns the same config.
type StaticSource struct {
	Config Config
	Err    error
}

// LoadConfig implements Source.
func (s StaticSource) LoadConfig(context.Context) (Config, error) {
	return s.Config, s.Err
}

// MissingSpecs returns every spec referenced by cfg whose rank/suit pair is absent
// from cards. An empty result means the overlay can be applied.
func MissingSpecs(cfg Config, cards []models.Card) []models.CardSpec {
	available := make(map[models.CardSpec]bool, len(cards))
	for _, c := range cards {
		available[models.CardSpec{Rank: c.Rank, Suit: c.Suit}] = true
	}
	var missing []models.CardSpec
	for _, hand := range cfg.Hands {
		for _, spec := range hand {
			if !available[spec] {
				missing = append(missing, spec)
			}
		}
	}
	return missing
}
