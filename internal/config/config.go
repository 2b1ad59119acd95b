// Package config loads and validates patternforge configuration.
// Configuration is YAML on disk with environment overrides for
// secrets; every field has a working default so a missing file is not
// an error.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all patternforge configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Growth run bounds
	Engine EngineConfig `yaml:"engine"`

	// Pattern catalog storage
	Store StoreConfig `yaml:"store"`

	// Repair loop bounds
	Healing HealingConfig `yaml:"healing"`

	// Reflection collaborator
	Reflection ReflectionConfig `yaml:"reflection"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// EngineConfig bounds growth runs.
type EngineConfig struct {
	CanonicalLanguage     string `yaml:"canonical_language"`
	Depth                 int    `yaml:"depth"`
	MaxVariantsPerPattern int    `yaml:"max_variants_per_pattern"`
	GenConcurrency        int    `yaml:"gen_concurrency"`
}

// StoreConfig configures the pattern catalog.
type StoreConfig struct {
	Backend             string  `yaml:"backend"` // memory, sqlite
	DatabasePath        string  `yaml:"database_path"`
	AcceptanceThreshold float64 `yaml:"acceptance_threshold"`
}

// HealingConfig bounds the repair loop.
type HealingConfig struct {
	MaxHealAttempts      int     `yaml:"max_heal_attempts"`
	VoidThreshold        float64 `yaml:"void_threshold"`
	TargetCoherence      float64 `yaml:"target_coherence"`
	LoopBudget           int     `yaml:"loop_budget"`
	ScaffoldMinCoherence float64 `yaml:"scaffold_min_coherence"`
}

// ReflectionConfig configures the reflection collaborator.
type ReflectionConfig struct {
	Provider string `yaml:"provider"` // heuristic, genai
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// LoggingConfig configures the categorized file logger.
type LoggingConfig struct {
	Workspace string `yaml:"workspace"`
}

// DefaultConfig returns the full default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "patternforge",
		Version: "0.3.0",

		Engine: EngineConfig{
			CanonicalLanguage:     "javascript",
			Depth:                 2,
			MaxVariantsPerPattern: 4,
			GenConcurrency:        4,
		},

		Store: StoreConfig{
			Backend:             "memory",
			DatabasePath:        "data/patternforge.db",
			AcceptanceThreshold: 0.5,
		},

		Healing: HealingConfig{
			MaxHealAttempts:      3,
			VoidThreshold:        0.3,
			TargetCoherence:      0.8,
			LoopBudget:           3,
			ScaffoldMinCoherence: 0.8,
		},

		Reflection: ReflectionConfig{
			Provider: "heuristic",
			Model:    "gemini-2.0-flash",
		},

		Logging: LoggingConfig{
			Workspace: ".",
		},
	}
}

// Load reads a YAML config file over the defaults. A missing file
// yields the defaults; a malformed one is an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides pulls secrets from the environment. Environment
// always wins over the file so keys never need to live on disk.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Reflection.APIKey = key
	} else if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		c.Reflection.APIKey = key
	}
}

// Validate checks the configuration for values the engine cannot run
// with.
func (c *Config) Validate() error {
	if c.Engine.CanonicalLanguage == "" {
		return fmt.Errorf("engine.canonical_language must be set")
	}
	if c.Engine.Depth < 0 {
		return fmt.Errorf("engine.depth must be >= 0, got %d", c.Engine.Depth)
	}
	if c.Engine.MaxVariantsPerPattern <= 0 {
		return fmt.Errorf("engine.max_variants_per_pattern must be > 0, got %d", c.Engine.MaxVariantsPerPattern)
	}
	switch c.Store.Backend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("store.backend must be memory or sqlite, got %q", c.Store.Backend)
	}
	if c.Store.Backend == "sqlite" && c.Store.DatabasePath == "" {
		return fmt.Errorf("store.database_path must be set for the sqlite backend")
	}
	if c.Store.AcceptanceThreshold <= 0 || c.Store.AcceptanceThreshold > 1 {
		return fmt.Errorf("store.acceptance_threshold must be in (0, 1], got %v", c.Store.AcceptanceThreshold)
	}
	if c.Healing.MaxHealAttempts <= 0 {
		return fmt.Errorf("healing.max_heal_attempts must be > 0, got %d", c.Healing.MaxHealAttempts)
	}
	if c.Healing.VoidThreshold < 0 || c.Healing.VoidThreshold >= c.Healing.TargetCoherence {
		return fmt.Errorf("healing.void_threshold must be in [0, target_coherence), got %v", c.Healing.VoidThreshold)
	}
	switch c.Reflection.Provider {
	case "heuristic":
	case "genai":
		if c.Reflection.APIKey == "" {
			return fmt.Errorf("reflection.api_key (or GEMINI_API_KEY) must be set for the genai provider")
		}
	default:
		return fmt.Errorf("reflection.provider must be heuristic or genai, got %q", c.Reflection.Provider)
	}
	return nil
}

// Save writes the configuration back to disk as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
