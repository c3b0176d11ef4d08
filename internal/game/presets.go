package game

import (
	_ "embed"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var builtinPresets []byte

// DefaultBoard is the preset used when a session does not name one.
const DefaultBoard = "classic"

type presetFile struct {
	Defaults yaml.Node            `yaml:"defaults"`
	Boards   map[string]yaml.Node `yaml:"boards"`
}

// Presets is a named set of board configs, merged defaults -> board entry.
type Presets struct {
	mu     sync.RWMutex
	boards map[string]BoardConfig
}

// LoadPresets reads the built-in presets and overlays the YAML file at path,
// if any. Entries in the file replace built-in boards of the same name.
func LoadPresets(path string) (*Presets, error) {
	p := &Presets{boards: make(map[string]BoardConfig)}
	if err := p.merge(builtinPresets); err != nil {
		return nil, fmt.Errorf("built-in presets: %w", err)
	}
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("[ENGINE] board preset file %s not found, using built-in presets", path)
			return p, nil
		}
		return nil, fmt.Errorf("read presets %s: %w", path, err)
	}
	if err := p.merge(data); err != nil {
		return nil, fmt.Errorf("presets %s: %w", path, err)
	}
	log.Printf("[ENGINE] loaded board presets from %s (%d boards)", path, len(p.boards))
	return p, nil
}

func (p *Presets) merge(data []byte) error {
	var f presetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}

	var defaults BoardConfig
	if f.Defaults.Kind != 0 {
		if err := f.Defaults.Decode(&defaults); err != nil {
			return fmt.Errorf("defaults: %w", err)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for name, node := range f.Boards {
		cfg := defaults
		cfg.SlotMultipliers = append([]float64(nil), defaults.SlotMultipliers...)
		if node.Kind != 0 {
			if err := node.Decode(&cfg); err != nil {
				return fmt.Errorf("board %s: %w", name, err)
			}
		}
		cfg.Name = name
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("board %s: %w", name, err)
		}
		p.boards[name] = cfg
	}
	return nil
}

// Get returns a copy of the named board config.
func (p *Presets) Get(name string) (BoardConfig, error) {
	if name == "" {
		name = DefaultBoard
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	cfg, ok := p.boards[name]
	if !ok {
		return BoardConfig{}, fmt.Errorf("%w: %s", ErrUnknownBoard, name)
	}
	cfg.SlotMultipliers = append([]float64(nil), cfg.SlotMultipliers...)
	return cfg, nil
}

// Names lists preset names in sorted order.
func (p *Presets) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.boards))
	for name := range p.boards {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every preset, sorted by name.
func (p *Presets) All() []BoardConfig {
	names := p.Names()
	out := make([]BoardConfig, 0, len(names))
	for _, name := range names {
		cfg, _ := p.Get(name)
		out = append(out, cfg)
	}
	return out
}
