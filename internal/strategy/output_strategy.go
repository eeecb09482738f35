package strategy

import (
	"fmt"
	"sort"
	"strings"

	"go-c2rcc/internal/algorithm"
	apperrors "go-c2rcc/internal/errors"
)

// OutputStrategy decides which optional products a run produces. It only
// touches the output toggles and leaves the physical knobs of cfg alone.
type OutputStrategy interface {
	Apply(cfg algorithm.Config) algorithm.Config
	GetStrategyName() string
}

// StandardOutputStrategy produces the default product set
type StandardOutputStrategy struct{}

// NewStandardOutputStrategy creates a new standard output strategy
func NewStandardOutputStrategy() OutputStrategy {
	return &StandardOutputStrategy{}
}

func (s *StandardOutputStrategy) Apply(cfg algorithm.Config) algorithm.Config {
	return withOutputs(cfg, algorithm.DefaultConfig())
}

func (s *StandardOutputStrategy) GetStrategyName() string {
	return "standard"
}

// MinimalOutputStrategy retrieves water reflectance and IOPs only
type MinimalOutputStrategy struct{}

// NewMinimalOutputStrategy creates a new minimal output strategy
func NewMinimalOutputStrategy() OutputStrategy {
	return &MinimalOutputStrategy{}
}

func (s *MinimalOutputStrategy) Apply(cfg algorithm.Config) algorithm.Config {
	return withOutputs(cfg, algorithm.MinimalConfig())
}

func (s *MinimalOutputStrategy) GetStrategyName() string {
	return "minimal"
}

// FullOutputStrategy enables every optional product
type FullOutputStrategy struct{}

// NewFullOutputStrategy creates a new full output strategy
func NewFullOutputStrategy() OutputStrategy {
	return &FullOutputStrategy{}
}

func (s *FullOutputStrategy) Apply(cfg algorithm.Config) algorithm.Config {
	return withOutputs(cfg, algorithm.FullConfig())
}

func (s *FullOutputStrategy) GetStrategyName() string {
	return "full"
}

var registry = map[string]func() OutputStrategy{
	"standard": NewStandardOutputStrategy,
	"minimal":  NewMinimalOutputStrategy,
	"full":     NewFullOutputStrategy,
}

// Names lists the known presets in alphabetical order
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForName returns the strategy registered under name (case-insensitive)
func ForName(name string) (OutputStrategy, error) {
	ctor, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown output preset %q", name), nil).
			WithDetails("available: " + strings.Join(Names(), ", "))
	}
	return ctor(), nil
}

func withOutputs(cfg, preset algorithm.Config) algorithm.Config {
	cfg.OutputRtosa = preset.OutputRtosa
	cfg.OutputRtosaAann = preset.OutputRtosaAann
	cfg.OutputRpath = preset.OutputRpath
	cfg.OutputTdown = preset.OutputTdown
	cfg.OutputTup = preset.OutputTup
	cfg.OutputRwa = preset.OutputRwa
	cfg.OutputRwn = preset.OutputRwn
	cfg.OutputRrs = preset.OutputRrs
	cfg.OutputOOS = preset.OutputOOS
	cfg.OutputKd = preset.OutputKd
	cfg.OutputUncertainties = preset.OutputUncertainties
	return cfg
}
