package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/jd-tailor/internal/server"
)

const (
	app = "jd-tailor"
)

type Config struct {
	AI       *AIConfig      `mapstructure:"ai" validate:"required"`
	Tailor   TailorConfig   `mapstructure:"tailor"`
	Keywords KeywordsConfig `mapstructure:"keywords"`
	Server   server.Config  `mapstructure:"server"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider" validate:"omitempty,oneof=gemini"`
	Gemini   *GeminiConfig `mapstructure:"gemini" validate:"required"`
}

type GeminiConfig struct {
	APIKey       string        `mapstructure:"api-key" json:"-"`
	APIKeyFile   string        `mapstructure:"api-key-file"`
	Model        string        `mapstructure:"model"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gte=0"`
	MaxLogLength int           `mapstructure:"max-log-length" validate:"gte=0"`
}

type TailorConfig struct {
	FallbackScore *int   `mapstructure:"fallback-score" validate:"omitempty,gte=0,lte=100"`
	UnknownValue  string `mapstructure:"unknown-value"`
	MaxInputChars int    `mapstructure:"max-input-chars" validate:"gte=0"`
}

type KeywordsConfig struct {
	VerbatimExclusions bool     `mapstructure:"verbatim-exclusions"`
	DisabledSteps      []string `mapstructure:"disabled-steps"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jd-tailor extracts job description keywords, builds boolean searches and tailors resume bullets",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	viper.SetEnvPrefix("JD_TAILOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jd-tailor.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.timeout", "30s")
	viper.SetDefault("ai.gemini.max-log-length", 200)
	viper.SetDefault("tailor.fallback-score", 70)
	viper.SetDefault("tailor.unknown-value", "Unknown")
	viper.SetDefault("tailor.max-input-chars", 3000)
	viper.SetDefault("keywords.verbatim-exclusions", true)
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.rate-limit-per-min", 30)
	viper.SetDefault("server.max-upload-mb", 10)
	viper.SetDefault("server.max-pages", 2)
}

func initConfig() {
	// A missing .env is the common case.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	// The config file is optional unless set explicitly; defaults and env cover the rest.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if err := validator.New().Struct(config); err != nil {
		return config, err
	}

	return config, nil
}
