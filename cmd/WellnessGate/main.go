package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BTreeMap/WellnessGate/internal/classifier"
	"github.com/BTreeMap/WellnessGate/internal/console"
	"github.com/BTreeMap/WellnessGate/internal/crisis"
	"github.com/BTreeMap/WellnessGate/internal/flow"
	"github.com/BTreeMap/WellnessGate/internal/genai"
	"github.com/BTreeMap/WellnessGate/internal/store"
	"github.com/BTreeMap/WellnessGate/internal/util"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultDataDir is the directory holding profiles and activities files
	DefaultDataDir = "data"

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	ClassifierNone       = "none"
	ClassifierModel      = "model"
	ClassifierModeration = "moderation"
)

// ErrConfig marks configuration problems that prevent a session from starting.
var ErrConfig = errors.New("invalid configuration")

func main() {
	// Initialize structured logger
	initializeLogger(false)

	// Load environment configuration
	config := loadEnvironmentConfig()
	if config.Debug {
		initializeLogger(true)
	}

	// Parse command line flags
	flags, err := parseCommandLineFlags(flag.CommandLine, os.Args[1:], config)
	if err != nil {
		slog.Error("Failed to parse flags", "error", err)
		os.Exit(2)
	}
	config = applyFlags(config, flags)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping WellnessGate", "provider", config.Provider, "classifier", config.Classifier, "dataDSNSet", config.DataDSN != "", "dataDir", config.DataDir)
	if err := run(ctx, config, flags, os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Info("WellnessGate interrupted")
			return
		}
		stop()
		slog.Error("WellnessGate failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("WellnessGate exited successfully")
}

// Config holds environment configuration
type Config struct {
	Provider          string
	GeminiKey         string
	OpenAIKey         string
	Model             string
	DataDir           string
	DataDSN           string
	Classifier        string
	ModelPath         string
	Threshold         float64
	SeverityPolicy    string
	HistoryLimit      int
	GenAITimeout      time.Duration
	MaxRetries        int
	ClassifierTimeout time.Duration
	Debug             bool
}

// Flags holds command line flag values
type Flags struct {
	profile  *string
	seed     *uint64
	dataDir  *string
	dataDSN  *string
	provider *string
	model    *string
}

// initializeLogger sets up structured logging on stderr; stdout belongs to the chat.
func initializeLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		Provider:          strings.ToLower(os.Getenv("GENAI_PROVIDER")),
		GeminiKey:         os.Getenv("GEMINI_API_KEY"),
		OpenAIKey:         os.Getenv("OPENAI_API_KEY"),
		Model:             os.Getenv("GENAI_MODEL"),
		DataDir:           util.GetEnv("WELLNESS_DATA_DIR", DefaultDataDir),
		DataDSN:           os.Getenv("WELLNESS_DATA_DSN"),
		Classifier:        strings.ToLower(util.GetEnv("CRISIS_CLASSIFIER", ClassifierNone)),
		ModelPath:         os.Getenv("CRISIS_MODEL_PATH"),
		Threshold:         util.ParseFloatEnv("CRISIS_THRESHOLD", crisis.DefaultThreshold),
		SeverityPolicy:    util.GetEnv("SEVERITY_POLICY", string(crisis.SeverityBannerOnly)),
		HistoryLimit:      util.ParseIntEnv("HISTORY_LIMIT", flow.DefaultHistoryLimit),
		GenAITimeout:      util.ParseDurationEnv("GENAI_TIMEOUT", genai.DefaultTimeout),
		MaxRetries:        util.ParseIntEnv("GENAI_MAX_RETRIES", genai.DefaultMaxRetries),
		ClassifierTimeout: util.ParseDurationEnv("CLASSIFIER_TIMEOUT", crisis.DefaultScoreTimeout),
		Debug:             util.ParseBoolEnv("WELLNESS_DEBUG", false),
	}

	// Infer the provider from whichever key is present
	if config.Provider == "" {
		config.Provider = defaultProvider(config)
		slog.Debug("No GENAI_PROVIDER set, inferred from keys", "provider", config.Provider)
	}

	slog.Debug("environment variables loaded",
		"GENAI_PROVIDER", config.Provider,
		"GEMINI_API_KEY_SET", config.GeminiKey != "",
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"GENAI_MODEL", config.Model,
		"WELLNESS_DATA_DIR", config.DataDir,
		"WELLNESS_DATA_DSN_SET", config.DataDSN != "",
		"CRISIS_CLASSIFIER", config.Classifier,
		"CRISIS_THRESHOLD", config.Threshold,
		"SEVERITY_POLICY", config.SeverityPolicy,
		"HISTORY_LIMIT", config.HistoryLimit)

	return config
}

func defaultProvider(config Config) string {
	if config.GeminiKey != "" {
		return ProviderGemini
	}
	return ProviderOpenAI
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(fs *flag.FlagSet, args []string, config Config) (Flags, error) {
	flags := Flags{
		profile:  fs.String("profile", "", "profile id to chat as (default: random)"),
		seed:     fs.Uint64("seed", 0, "seed for random profile selection (0: random)"),
		dataDir:  fs.String("data-dir", config.DataDir, "directory with profiles and activities files (overrides $WELLNESS_DATA_DIR)"),
		dataDSN:  fs.String("data-dsn", config.DataDSN, "SQLite path or PostgreSQL DSN for profile data (overrides $WELLNESS_DATA_DSN)"),
		provider: fs.String("provider", config.Provider, "generative provider: gemini or openai (overrides $GENAI_PROVIDER)"),
		model:    fs.String("model", config.Model, "generative model name (overrides $GENAI_MODEL)"),
	}

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}

	slog.Debug("flags parsed",
		"profile", *flags.profile,
		"seed", *flags.seed,
		"dataDir", *flags.dataDir,
		"dataDSN_set", *flags.dataDSN != "",
		"provider", *flags.provider,
		"model", *flags.model)

	return flags, nil
}

// applyFlags returns config with command line overrides applied.
func applyFlags(config Config, flags Flags) Config {
	config.DataDir = *flags.dataDir
	config.DataDSN = *flags.dataDSN
	config.Provider = strings.ToLower(*flags.provider)
	config.Model = *flags.model
	return config
}

// validateConfig reports settings that make starting a session pointless.
func validateConfig(config Config) error {
	switch config.Provider {
	case ProviderGemini:
		if config.GeminiKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY is required for provider %s", ErrConfig, config.Provider)
		}
	case ProviderOpenAI:
		if config.OpenAIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY is required for provider %s", ErrConfig, config.Provider)
		}
	default:
		return fmt.Errorf("%w: unknown provider %q", ErrConfig, config.Provider)
	}

	switch config.Classifier {
	case ClassifierNone, ClassifierModel, ClassifierModeration:
	default:
		return fmt.Errorf("%w: unknown crisis classifier %q", ErrConfig, config.Classifier)
	}
	if config.Threshold <= 0 || config.Threshold > 1 {
		return fmt.Errorf("%w: CRISIS_THRESHOLD must be in (0,1], got %v", ErrConfig, config.Threshold)
	}
	if _, err := crisis.ParseSeverityPolicy(config.SeverityPolicy); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if config.HistoryLimit < -1 {
		return fmt.Errorf("%w: HISTORY_LIMIT must be -1 or greater, got %d", ErrConfig, config.HistoryLimit)
	}
	return nil
}

// run loads data, wires the session and drives it over in and out.
func run(ctx context.Context, config Config, flags Flags, in io.Reader, out io.Writer) error {
	if err := validateConfig(config); err != nil {
		return err
	}

	src, err := store.NewSource(buildStoreOptions(config)...)
	if err != nil {
		return fmt.Errorf("opening data source: %w", err)
	}
	defer src.Close()

	profiles, err := src.LoadProfiles(ctx)
	if err != nil {
		return fmt.Errorf("loading profiles: %w", err)
	}
	activities, err := src.LoadActivities(ctx)
	if err != nil {
		return fmt.Errorf("loading activities: %w", err)
	}
	profile, err := store.SelectProfile(profiles, *flags.profile, util.NewRand(*flags.seed))
	if err != nil {
		return fmt.Errorf("selecting profile: %w", err)
	}

	generator, err := buildGenerator(ctx, config)
	if err != nil {
		return fmt.Errorf("creating generator: %w", err)
	}
	gate := crisis.NewGate(buildGateOptions(config, buildScorer(config))...)
	controller := flow.NewController(profile, activities, gate, buildControllerOptions(config, generator)...)

	return console.Run(ctx, in, out, controller)
}

// buildStoreOptions constructs store configuration options
func buildStoreOptions(config Config) []store.Option {
	if config.DataDSN != "" {
		// Check if it's a PostgreSQL DSN using the shared detection function
		if store.DetectDSNType(config.DataDSN) == "postgres" {
			slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL source", "dsn_type", "postgresql", "dsn_set", true)
			return []store.Option{store.WithPostgresDSN(config.DataDSN)}
		}
		// Assume SQLite for file paths
		slog.Debug("Detected SQLite DSN, configuring SQLite source", "dsn_type", "sqlite", "db_path", config.DataDSN)
		return []store.Option{store.WithSQLiteDSN(config.DataDSN)}
	}
	slog.Debug("No data DSN provided, using data files", "dir", config.DataDir)
	return []store.Option{store.WithDataDir(config.DataDir)}
}

// buildGenerator constructs the provider client wrapped with timeout and retries
func buildGenerator(ctx context.Context, config Config) (genai.Generator, error) {
	var opts []genai.Option
	if config.Model != "" {
		opts = append(opts, genai.WithModel(config.Model))
	}

	var inner genai.Generator
	switch config.Provider {
	case ProviderGemini:
		g, err := genai.NewGeminiClient(ctx, append(opts, genai.WithAPIKey(config.GeminiKey))...)
		if err != nil {
			return nil, err
		}
		inner = g
	case ProviderOpenAI:
		c, err := genai.NewClient(append(opts, genai.WithAPIKey(config.OpenAIKey))...)
		if err != nil {
			return nil, err
		}
		inner = c
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrConfig, config.Provider)
	}
	return genai.NewResilient(inner, config.GenAITimeout, config.MaxRetries, genai.DefaultRetryBackoff), nil
}

// buildScorer loads the configured crisis classifier. Load failures are logged and the gate
// runs on keywords and profile severity alone.
func buildScorer(config Config) crisis.Scorer {
	switch config.Classifier {
	case ClassifierModel:
		m, err := classifier.Load(config.ModelPath)
		if err != nil {
			slog.Warn("Crisis classifier unavailable, continuing without it", "error", err, "path", config.ModelPath)
			return nil
		}
		return m
	case ClassifierModeration:
		s, err := classifier.NewModerationScorer(config.OpenAIKey)
		if err != nil {
			slog.Warn("Moderation scorer unavailable, continuing without it", "error", err)
			return nil
		}
		return s
	default:
		return nil
	}
}

// buildGateOptions constructs crisis gate options
func buildGateOptions(config Config, scorer crisis.Scorer) []crisis.Option {
	policy, err := crisis.ParseSeverityPolicy(config.SeverityPolicy)
	if err != nil {
		slog.Warn("Invalid severity policy, using banner only", "error", err)
		policy = crisis.SeverityBannerOnly
	}
	opts := []crisis.Option{
		crisis.WithThreshold(config.Threshold),
		crisis.WithSeverityPolicy(policy),
		crisis.WithScoreTimeout(config.ClassifierTimeout),
	}
	if scorer != nil {
		opts = append(opts, crisis.WithScorer(scorer))
	}
	return opts
}

// buildControllerOptions constructs conversation controller options
func buildControllerOptions(config Config, generator genai.Generator) []flow.ControllerOption {
	opts := []flow.ControllerOption{flow.WithHistoryLimit(config.HistoryLimit)}
	if generator != nil {
		opts = append(opts, flow.WithGenerator(generator))
	}
	return opts
}
