package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/EunoiaC/Verify/internal/model"
)

const version = "verify v0.3.0"

var (
	cfgFile string
	verbose bool

	// appConfig is the effective configuration, loaded before any subcommand runs
	appConfig *model.Config
	configErr error

	// cfgViper uses "::" as key delimiter so map keys such as domain names may contain dots
	cfgViper = newViper()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify - evidence-backed claim checking",
	Long: `Verify extracts checkable claims from a piece of text, searches the web
for evidence, and reports which evidence passages support or contradict
each claim.

Passages the stance model judges neutral are not reported.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configErr != nil {
			return configErr
		}
		cfg, err := loadConfig(cfgViper)
		if err != nil {
			return err
		}
		setupLogging(cfg.Log, verbose)
		appConfig = cfg
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
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.verify/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	// .env is optional
	_ = godotenv.Load()

	configErr = configureViper(cfgViper, cfgFile)
}

// envBindings lists keys missing from the flattened defaults (omitempty or
// yaml:"-"), with the plain environment variables also accepted after VERIFY_<KEY>.
// rate_limiting.domains is a map and can only be set from the config file.
var envBindings = map[string][]string{
	"extractor::api_key":  nil,
	"extractor::base_url": nil,
	"embedding::api_key":  nil,
	"search::api_key":     {"GOOGLE_SEARCH_API"},
	"search::engine_id":   {"GOOGLE_SEARCH_CX"},
	"http::http_proxy":    nil,
	"http::https_proxy":   nil,
	"http::no_proxy":      nil,
	"stance::labels":      nil,
}

const keyDelimiter = "::"

func newViper() *viper.Viper {
	return viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
}

// providerKeys holds the API key variable for each extraction provider
var providerKeys = map[string]string{
	"gemini":    "GEMINI_API",
	"google":    "GEMINI_API",
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"claude":    "ANTHROPIC_API_KEY",
}

// configureViper registers defaults, env bindings and the config file on v
func configureViper(v *viper.Viper, file string) error {
	defaults, err := defaultSettings()
	if err != nil {
		return err
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("VERIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(keyDelimiter, "_"))
	v.AutomaticEnv()

	for key, aliases := range envBindings {
		names := append([]string{"VERIFY_" + strings.ToUpper(strings.ReplaceAll(key, keyDelimiter, "_"))}, aliases...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("find home directory: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".verify"))
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// defaultSettings flattens the default config into delimited viper keys
func defaultSettings() (map[string]any, error) {
	data, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("marshal defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("unmarshal defaults: %w", err)
	}

	out := make(map[string]any)
	flatten("", tree, out)
	return out, nil
}

func flatten(prefix string, tree map[string]any, out map[string]any) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + keyDelimiter + k
		}
		if sub, ok := v.(map[string]any); ok {
			flatten(key, sub, out)
			continue
		}
		out[key] = v
	}
}

// loadConfig decodes the effective configuration from v and fills provider
// credentials from their conventional environment variables.
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Extractor.APIKey == "" {
		if name, ok := providerKeys[strings.ToLower(cfg.Extractor.Provider)]; ok {
			cfg.Extractor.APIKey = os.Getenv(name)
		}
	}
	if cfg.Extractor.BaseURL == "" && strings.EqualFold(cfg.Extractor.Provider, "ollama") {
		cfg.Extractor.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *model.Config) error {
	switch cfg.Evidence.LinkMode {
	case model.LinkModeLastWriter, model.LinkModePerClaim:
	default:
		return fmt.Errorf("evidence.link_mode must be %q or %q, got %q",
			model.LinkModeLastWriter, model.LinkModePerClaim, cfg.Evidence.LinkMode)
	}
	if cfg.Selection.TopK < 1 {
		return fmt.Errorf("selection.top_k must be at least 1, got %d", cfg.Selection.TopK)
	}
	if cfg.Selection.ContextWindow < 0 {
		return fmt.Errorf("selection.context_window must not be negative, got %d", cfg.Selection.ContextWindow)
	}
	return nil
}

// setupLogging installs the default slog logger on stderr
func setupLogging(cfg model.LogConfig, debug bool) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
