package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Logger     LoggerConfig
	LLM        LLMConfig
	Speech     SpeechConfig
	PDF        PDFConfig
	Search     SearchConfig
	Redis      RedisConfig
	Generation GenerationConfig
	CacheTTLs  CacheTTLConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	BodyLimitMB  int
}

type LoggerConfig struct {
	Level string
	Env   string
}

// LLMConfig selects the generation backend: "ollama", "openai" or "gemini".
// An empty Model picks the provider default.
type LLMConfig struct {
	Provider        string
	Model           string
	OllamaServerURL string
	OpenAIAPIKey    string
	GeminiAPIKey    string
	Temperature     float64
	Timeout         time.Duration
}

type SpeechConfig struct {
	Enabled  bool
	Model    string
	TTSModel string
}

type PDFConfig struct {
	MaxSizeMB int
	Timeout   time.Duration
}

func (p PDFConfig) MaxBytes() int64 {
	return int64(p.MaxSizeMB) * 1024 * 1024
}

type SearchConfig struct {
	Enabled         bool
	Endpoint        string
	MaxContextChars int
	Timeout         time.Duration
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type GenerationConfig struct {
	DefaultFlashcards    int
	DefaultQuizQuestions int
	DefaultDifficulty    string
	// QuizSeed fixes quiz shuffling; 0 seeds from the clock.
	QuizSeed int64
}

// CacheTTLConfig holds duration strings such as "30m".
type CacheTTLConfig struct {
	SearchContext string
	PDFExtraction string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.body_limit_mb", 15)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.env", "development")

	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.ollama_server_url", "http://localhost:11434")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.timeout", "120s")

	v.SetDefault("speech.enabled", false)
	v.SetDefault("speech.model", "gemini-2.0-flash")
	v.SetDefault("speech.tts_model", "gemini-2.5-flash-preview-tts")

	v.SetDefault("pdf.max_size_mb", 10)
	v.SetDefault("pdf.timeout", "30s")

	v.SetDefault("search.enabled", true)
	v.SetDefault("search.endpoint", "https://api.duckduckgo.com/")
	v.SetDefault("search.max_context_chars", 2000)
	v.SetDefault("search.timeout", "10s")

	v.SetDefault("redis.db", 0)

	v.SetDefault("generation.default_flashcards", 10)
	v.SetDefault("generation.default_quiz_questions", 5)
	v.SetDefault("generation.default_difficulty", "Medium")
	v.SetDefault("generation.quiz_seed", 0)

	v.SetDefault("cache_ttls.search_context", "30m")
	v.SetDefault("cache_ttls.pdf_extraction", "24h")
}

func LoadConfig() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Add config paths based on environment
	if os.Getenv("ENV") == "test" {
		v.AddConfigPath("../../config")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	cfg := fromViper(v)

	// Conventional variable names that do not follow the key mapping.
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.LLM.OpenAIAPIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.LLM.GeminiAPIKey = key
	}
	if url := os.Getenv("OLLAMA_SERVER_URL"); url != "" {
		cfg.LLM.OllamaServerURL = url
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
			IdleTimeout:  v.GetDuration("server.idle_timeout"),
			BodyLimitMB:  v.GetInt("server.body_limit_mb"),
		},
		Logger: LoggerConfig{
			Level: v.GetString("logger.level"),
			Env:   v.GetString("logger.env"),
		},
		LLM: LLMConfig{
			Provider:        strings.ToLower(v.GetString("llm.provider")),
			Model:           v.GetString("llm.model"),
			OllamaServerURL: v.GetString("llm.ollama_server_url"),
			OpenAIAPIKey:    v.GetString("llm.openai_api_key"),
			GeminiAPIKey:    v.GetString("llm.gemini_api_key"),
			Temperature:     v.GetFloat64("llm.temperature"),
			Timeout:         v.GetDuration("llm.timeout"),
		},
		Speech: SpeechConfig{
			Enabled:  v.GetBool("speech.enabled"),
			Model:    v.GetString("speech.model"),
			TTSModel: v.GetString("speech.tts_model"),
		},
		PDF: PDFConfig{
			MaxSizeMB: v.GetInt("pdf.max_size_mb"),
			Timeout:   v.GetDuration("pdf.timeout"),
		},
		Search: SearchConfig{
			Enabled:         v.GetBool("search.enabled"),
			Endpoint:        v.GetString("search.endpoint"),
			MaxContextChars: v.GetInt("search.max_context_chars"),
			Timeout:         v.GetDuration("search.timeout"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Generation: GenerationConfig{
			DefaultFlashcards:    v.GetInt("generation.default_flashcards"),
			DefaultQuizQuestions: v.GetInt("generation.default_quiz_questions"),
			DefaultDifficulty:    v.GetString("generation.default_difficulty"),
			QuizSeed:             v.GetInt64("generation.quiz_seed"),
		},
		CacheTTLs: CacheTTLConfig{
			SearchContext: v.GetString("cache_ttls.search_context"),
			PDFExtraction: v.GetString("cache_ttls.pdf_extraction"),
		},
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "ollama":
		if c.LLM.OllamaServerURL == "" {
			return fmt.Errorf("llm.ollama_server_url is required for provider ollama")
		}
	case "openai":
		if c.LLM.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for provider openai")
		}
	case "gemini":
		if c.LLM.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for provider gemini")
		}
	default:
		return fmt.Errorf("unsupported llm.provider %q", c.LLM.Provider)
	}
	if c.Speech.Enabled && c.LLM.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required when speech is enabled")
	}
	if c.PDF.MaxSizeMB <= 0 {
		return fmt.Errorf("pdf.max_size_mb must be positive")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive")
	}
	return nil
}

// ParseTTLStringOrDefault parses a duration string, falling back to def when
// it is empty or invalid.
func (c *Config) ParseTTLStringOrDefault(ttl string, def time.Duration) time.Duration {
	if ttl == "" {
		return def
	}
	d, err := time.ParseDuration(ttl)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
