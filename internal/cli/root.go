package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ppiankov/promessa/internal/model"
	"github.com/ppiankov/promessa/internal/pipeline"
)

// Version is set at build time
var Version = "0.1.0"

var (
	cfgFile    string
	verbose    bool
	metricsOut string
	noLLM      bool

	registry = prometheus.NewRegistry()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "promessa",
	Short: "Promessa - political promise viability & coherence engine",
	Long: `Promessa extracts concrete promises from political statements and
scores how viable they are.

Each promise is checked against public data: federal budget execution
(SICONFI), the author's electoral history (TSE) and their recorded votes
(Câmara and Senado). Every score comes with the signals that produced it.

Promessa measures plausibility, not truth.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if metricsOut == "" {
			return nil
		}
		if err := prometheus.WriteToTextfile(metricsOut, registry); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of Promessa.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("promessa v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.promessa/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&metricsOut, "metrics-out", "", "write prometheus metrics to this textfile on exit")
	rootCmd.PersistentFlags().BoolVar(&noLLM, "no-llm", false, "skip AI extraction and use lexicon rules only")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.promessa")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match PROMESSA_* (PROMESSA_CACHE_BACKEND -> cache.backend)
	viper.SetEnvPrefix("PROMESSA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig merges defaults, the config file, env and flags
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyEnvProviders(cfg)
	if noLLM {
		cfg.LLM.Enabled = false
	}
	cfg.Output.Verbose = cfg.Output.Verbose || verbose
	return cfg, nil
}

// applyEnvProviders appends Anthropic and Ollama when their env vars are set
// and the config does not already list them
func applyEnvProviders(cfg *model.Config) {
	has := func(kind string) bool {
		for _, p := range cfg.LLM.Providers {
			if strings.EqualFold(p.Provider, kind) {
				return true
			}
		}
		return false
	}

	if os.Getenv("ANTHROPIC_API_KEY") != "" && !has("anthropic") {
		cfg.LLM.Providers = append(cfg.LLM.Providers, model.ProviderConfig{
			Name: "anthropic", Provider: "anthropic", APIKeyEnv: "ANTHROPIC_API_KEY", Timeout: 90, MaxTokens: 4000,
		})
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && !has("ollama") {
		modelName := os.Getenv("OLLAMA_MODEL")
		if modelName == "" {
			modelName = "llama3.1"
		}
		cfg.LLM.Providers = append(cfg.LLM.Providers, model.ProviderConfig{
			Name: "ollama", Provider: "ollama", Model: modelName, BaseURL: baseURL, Timeout: 90, MaxTokens: 4000,
		})
	}
}

// newLogger builds a production zap logger writing to stderr
func newLogger(debug bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if debug {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zcfg.Build()
}

// setup loads the configuration and wires the runtime
func setup() (*model.Config, *pipeline.Runtime, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := newLogger(cfg.Output.Verbose)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create logger: %w", err)
	}
	rt, err := pipeline.Build(cfg, logger, registry)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, nil, err
	}
	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "LLM providers: %s\n", providerList(rt.Providers))
	}
	return cfg, rt, logger, nil
}

func providerList(names []string) string {
	if len(names) == 0 {
		return "none (rules only)"
	}
	return strings.Join(names, " → ")
}

func closeRuntime(rt *pipeline.Runtime, logger *zap.Logger) {
	if err := rt.Close(); err != nil {
		logger.Warn("close cache", zap.Error(err))
	}
	_ = logger.Sync()
}
