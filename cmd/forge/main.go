package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"patternforge/internal/coherence"
	"patternforge/internal/config"
	"patternforge/internal/engine"
	"patternforge/internal/healing"
	"patternforge/internal/logging"
	"patternforge/internal/reflection"
	"patternforge/internal/store"
	"patternforge/internal/types"
	"patternforge/internal/variants"
)

var (
	// Global flags
	verbose    bool
	configPath string
	workspace  string
	timeout    time.Duration

	// Grow flags
	depth       int
	maxVariants int

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "forge",
	Short: "patternforge - growth and healing engine for a pattern library",
	Long: `patternforge grows a library of validated code fragments.

Seed submissions are validated and registered; rejects enter a bounded
repair loop driven by the reflection collaborator; accepted fragments
multiply into cross-language ports and algorithmic rewrites across
bounded exponential waves. Library health is recomputed after every
wave and fed back as latitude for the repair loop.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if err := logging.Initialize(workspace); err != nil {
			logger.Warn("file logging disabled", zap.Error(err))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// growCmd runs one growth run over seed files
var growCmd = &cobra.Command{
	Use:   "grow [seeds.yaml...]",
	Short: "Register seed fragments and run bounded growth waves",
	Long: `Loads seed submissions from YAML files and runs one growth run:
  1. Wave 0 registers the seeds; rejects enter the failure buffer
  2. The healing runner retries rejects with bounded attempts
  3. Expansion waves multiply accepted fragments into ports and swaps
  4. The final report is printed as JSON`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGrow,
}

// catalogCmd prints the stored pattern catalog
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the accepted patterns in the configured store",
	RunE:  runCatalog,
}

// healthCmd prints the current coherence state
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Recompute and print library health",
	RunE:  runHealth,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "forge.yaml", "Config file path")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", ".", "Workspace directory")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")

	growCmd.Flags().IntVar(&depth, "depth", -1, "Expansion waves after the seed wave (overrides config)")
	growCmd.Flags().IntVar(&maxVariants, "max-variants", 0, "Max candidates per source pattern (overrides config)")

	rootCmd.AddCommand(growCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runGrow(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	seeds, err := loadSeeds(args)
	if err != nil {
		return err
	}
	logger.Info("Loaded seeds", zap.Int("count", len(seeds)))

	patternStore, closeStore, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	reflector, err := buildReflector(cfg)
	if err != nil {
		return err
	}

	buffer := healing.NewFailureBuffer()
	runner := healing.NewRunner(patternStore, reflector, buffer, healing.RunnerConfig{
		MaxHealAttempts:      cfg.Healing.MaxHealAttempts,
		VoidThreshold:        cfg.Healing.VoidThreshold,
		TargetCoherence:      cfg.Healing.TargetCoherence,
		LoopBudget:           cfg.Healing.LoopBudget,
		ScaffoldMinCoherence: cfg.Healing.ScaffoldMinCoherence,
	})

	generator := variants.NewGenerator(
		cfg.Engine.CanonicalLanguage,
		[]variants.PortTarget{variants.NewPythonTarget(), variants.NewTypeScriptTarget()},
		variants.DefaultSwapCatalog(),
		reflector,
		2,
	)

	eng := engine.New(patternStore, buffer, runner, generator, cfg.Engine.CanonicalLanguage)

	opts := engine.Options{
		Depth:                 cfg.Engine.Depth,
		MaxVariantsPerPattern: cfg.Engine.MaxVariantsPerPattern,
		GenConcurrency:        cfg.Engine.GenConcurrency,
	}
	if depth >= 0 {
		opts.Depth = depth
	}
	if maxVariants > 0 {
		opts.MaxVariantsPerPattern = maxVariants
	}

	report, err := eng.Run(ctx, seeds, opts)
	if err != nil {
		return fmt.Errorf("growth run failed: %w", err)
	}

	return printJSON(report)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	patternStore, closeStore, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	patterns, err := patternStore.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}

	for _, p := range patterns {
		fmt.Printf("%-40s %-12s %.2f  %s\n", p.Name, p.Language, p.Coherency.Total, p.Description)
	}
	fmt.Printf("\n%d patterns\n", len(patterns))
	return nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	patternStore, closeStore, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	patterns, err := patternStore.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}

	state := coherence.Recompute(patterns, patternStore.AcceptanceThreshold())
	return printJSON(state)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// seedFile is the on-disk shape of a seed submission file.
type seedFile struct {
	Patterns []types.Submission `yaml:"patterns"`
}

func loadSeeds(paths []string) ([]types.Submission, error) {
	var seeds []types.Submission
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
		}
		var file seedFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
		}
		seeds = append(seeds, file.Patterns...)
	}
	if len(seeds) == 0 {
		return nil, fmt.Errorf("no seed patterns found in %v", paths)
	}
	return seeds, nil
}

func buildStore(cfg *config.Config) (types.PatternStore, func(), error) {
	switch cfg.Store.Backend {
	case "sqlite":
		s, err := store.NewSQLiteStore(cfg.Store.DatabasePath, cfg.Store.AcceptanceThreshold)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return s, func() {
			if err := s.Close(); err != nil {
				logger.Warn("store close failed", zap.Error(err))
			}
		}, nil
	default:
		s := store.NewMemoryStore(cfg.Store.AcceptanceThreshold)
		return s, s.Close, nil
	}
}

func buildReflector(cfg *config.Config) (types.Reflector, error) {
	switch cfg.Reflection.Provider {
	case "genai":
		r, err := reflection.NewGenAIReflector(cfg.Reflection.APIKey, cfg.Reflection.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to create genai reflector: %w", err)
		}
		return r, nil
	default:
		return reflection.NewHeuristicReflector(), nil
	}
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
