package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/promessa/internal/model"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Promessa configuration",
	Long: `Manage Promessa configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (PROMESSA_*)
3. Config file (~/.promessa/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after merging defaults, the config file, env vars and flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// Report which config file was merged
		configFile := viper.ConfigFileUsed()
		if configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		// Display full configuration as YAML
		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println("  Current Configuration")
		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println()

		// Marshal config to YAML for display
		yamlData, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}

		fmt.Println(string(yamlData))

		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println()
		fmt.Println("Configuration hierarchy (highest to lowest priority):")
		fmt.Println("  1. CLI flags")
		fmt.Println("  2. Environment variables (PROMESSA_*, GEMINI_API_KEY, GROQ_API_KEY, ...)")
		fmt.Println("  3. Config file (~/.promessa/config.yaml)")
		fmt.Println("  4. Defaults (shown above)")
		fmt.Println()

		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.promessa/config.yaml with every option filled in.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error finding home directory: %w", err)
		}

		configDir := home + "/.promessa"
		configPath := configDir + "/config.yaml"

		// Check if config already exists
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s\nUse 'promessa config show' to view it, or delete it first to recreate", configPath)
		}

		// Create directory
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("error creating config directory: %w", err)
		}

		// Create config file
		f, err := os.Create(configPath)
		if err != nil {
			return fmt.Errorf("error creating config file: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close config file: %w", closeErr)
			}
		}()

		if err := writeConfigTemplate(f, model.DefaultConfig()); err != nil {
			return fmt.Errorf("error writing config: %w", err)
		}

		fmt.Printf("✓ Created default configuration: %s\n", configPath)
		fmt.Printf("\nTo view the configuration:\n")
		fmt.Printf("  promessa config show\n")
		fmt.Printf("\nTo customize, edit the file with your preferred editor:\n")
		fmt.Printf("  $EDITOR %s\n", configPath)
		fmt.Printf("\n")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

// configSection is one top-level key of the config file and the comment
// written above it
type configSection struct {
	key     string
	comment []string
	value   any
}

// writeConfigTemplate writes cfg as commented YAML, one section per block
func writeConfigTemplate(w io.Writer, cfg *model.Config) error {
	sections := []configSection{
		{"llm", []string{
			"AI extraction. Providers are tried in order; the lexicon rules run when all fail.",
			"provider: openai, groq, deepseek, anthropic, ollama or gemini. Timeouts are in seconds.",
		}, cfg.LLM},
		{"sources", []string{
			"Public-data APIs: SICONFI (budget execution), TSE (elections),",
			"Câmara dos Deputados and Senado Federal (votes). Records are cached for cache_ttl.",
		}, cfg.Sources},
		{"breaker", []string{
			"Circuit breaker per data source. After failure_threshold failures the source is",
			"skipped for reset_timeout and degraded data (stale cache or historical averages) is served.",
		}, cfg.Breaker},
		{"cache", []string{
			"backend: memory, disk, sqlite or layered (memory in front of disk).",
		}, cfg.Cache},
		{"extract", []string{
			"Claims whose token overlap reaches dedup_threshold are merged.",
		}, cfg.Extract},
		{"http", []string{
			"Transcript fetching for --url. transcripts rates the page as official, press or unknown.",
		}, cfg.HTTP},
		{"concurrency", []string{
			"Worker count for batch and sync.",
		}, cfg.Concurrency},
		{"sync", []string{
			"Cache warm-up run by 'promessa sync': budget series for every category over",
			"the last 'years' years and the electoral history of each candidate.",
		}, cfg.Sync},
		{"output", nil, cfg.Output},
	}

	var buf bytes.Buffer
	buf.WriteString("# Promessa Configuration File\n")
	buf.WriteString("#\n")
	buf.WriteString("# Configuration hierarchy (highest to lowest priority):\n")
	buf.WriteString("#   1. CLI flags\n")
	buf.WriteString("#   2. Environment variables (PROMESSA_*, e.g. PROMESSA_SOURCES_TIMEOUT=20s)\n")
	buf.WriteString("#   3. This config file\n")
	buf.WriteString("#   4. Built-in defaults\n")
	buf.WriteString("#\n")
	buf.WriteString("# Durations use Go syntax such as 10s, 15m or 24h.\n")

	for _, sec := range sections {
		data, err := yaml.Marshal(map[string]any{sec.key: sec.value})
		if err != nil {
			return fmt.Errorf("marshal %s: %w", sec.key, err)
		}
		buf.WriteString("\n")
		for _, line := range sec.comment {
			buf.WriteString("# " + line + "\n")
		}
		buf.Write(data)
	}

	buf.WriteString("\n# API Keys (recommended to use environment variables instead):\n")
	buf.WriteString("#   export GEMINI_API_KEY=...\n")
	buf.WriteString("#   export GROQ_API_KEY=gsk_...\n")
	buf.WriteString("#   export DEEPSEEK_API_KEY=sk-...\n")
	buf.WriteString("#   export OPENAI_API_KEY=sk-...\n")
	buf.WriteString("#   export ANTHROPIC_API_KEY=sk-ant-...\n")
	buf.WriteString("#   export OLLAMA_BASE_URL=http://localhost:11434\n")

	_, err := w.Write(buf.Bytes())
	return err
}
