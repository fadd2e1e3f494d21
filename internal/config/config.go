package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"anvil-optimizer/internal/anvil"
)

// EnvPath overrides the config file location.
const EnvPath = "ANVIL_CONFIG"

// DefaultPath is read when neither a flag nor EnvPath names a file.
const DefaultPath = "config/anvil.yaml"

// App holds the configuration shared by the CLI and the Lambda handler.
type App struct {
	LogLevel    string `yaml:"log_level"`
	Catalog     string `yaml:"catalog"` // path to a catalog JSON; empty uses the bundled one
	OptimizeFor string `yaml:"optimize_for"`
	Workers     int    `yaml:"workers"` // concurrent solves in batch mode; 0 = GOMAXPROCS

	Solver Solver `yaml:"solver"`
}

// Solver mirrors anvil.Config with YAML tags.
type Solver struct {
	MaxItems       int  `yaml:"max_items"`
	PruneDominated bool `yaml:"prune_dominated"`
	BalancedSplits bool `yaml:"balanced_splits"`
}

// Default returns App config with sensible defaults.
func Default() App {
	sc := anvil.DefaultConfig()
	return App{
		LogLevel:    "info",
		OptimizeFor: anvil.ObjectiveExperience.String(),
		Solver: Solver{
			MaxItems:       sc.MaxItems,
			PruneDominated: sc.PruneDominated,
			BalancedSplits: sc.BalancedSplits,
		},
	}
}

// Load reads config from a YAML file. If the file doesn't exist, returns defaults.
func Load(path string) (App, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if _, err := anvil.ParseObjective(cfg.OptimizeFor); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if cfg.Solver.MaxItems > anvil.MaxLeaves {
		return cfg, fmt.Errorf("config %s: max_items %d above %d", path, cfg.Solver.MaxItems, anvil.MaxLeaves)
	}

	return cfg, nil
}

// ResolvePath picks the flag value, then EnvPath, then DefaultPath.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

// SolverConfig converts the YAML section into solver parameters.
func (a App) SolverConfig() anvil.Config {
	return anvil.Config{
		MaxItems:       a.Solver.MaxItems,
		PruneDominated: a.Solver.PruneDominated,
		BalancedSplits: a.Solver.BalancedSplits,
	}
}

// Objective returns the configured default objective.
func (a App) Objective() anvil.Objective {
	obj, _ := anvil.ParseObjective(a.OptimizeFor)
	return obj
}

// SlogLevel maps LogLevel onto slog levels; unknown values mean info.
func (a App) SlogLevel() slog.Level {
	switch strings.ToLower(a.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
