package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	Server struct {
		Port      string `yaml:"port"`
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"server"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Sensors struct {
		Steps    bool `yaml:"steps"`
		Location bool `yaml:"location"`
	} `yaml:"sensors"`
	LLM struct {
		Fitness LLMConfig `yaml:"fitness"`
		Support LLMConfig `yaml:"support"`
	} `yaml:"llm"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Locale   string `yaml:"locale"`
	Timezone string `yaml:"timezone"`
}

// LLMConfig describes one chat-completion provider.
type LLMConfig struct {
	Provider    string        `yaml:"provider"` // openai, http
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

func Default() *Config {
	cfg := &Config{}
	cfg.Server.Port = "8080"
	cfg.Database.Path = "/data/tribe.db"
	cfg.Sensors.Steps = true
	cfg.Sensors.Location = true
	cfg.LLM.Fitness = LLMConfig{
		Provider:    "openai",
		BaseURL:     "https://api.openai.com/v1",
		Model:       "gpt-4o-mini",
		Temperature: 0.7,
		MaxTokens:   500,
		Timeout:     30 * time.Second,
	}
	cfg.LLM.Support = LLMConfig{
		Provider:    "http",
		BaseURL:     "https://api.groq.com/openai/v1",
		Model:       "llama-3.1-8b-instant",
		Temperature: 0.3,
		MaxTokens:   300,
		Timeout:     30 * time.Second,
	}
	cfg.Log.Level = "info"
	cfg.Locale = "en"
	cfg.Timezone = "Local"
	return cfg
}

// Load reads .env (if present), then the optional YAML file named by
// TRIBE_CONFIG, then applies environment overrides.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := getEnv("TRIBE_CONFIG", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	c.Telegram.Token = getEnv("TG_TOKEN", c.Telegram.Token)
	if chatIDStr := getEnv("TG_CHAT_ID", ""); chatIDStr != "" {
		chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TG_CHAT_ID: %w", err)
		}
		c.Telegram.ChatID = chatID
	}

	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.JWTSecret = getEnv("JWT_SECRET", c.Server.JWTSecret)
	c.Database.Path = getEnv("DB_PATH", c.Database.Path)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Locale = getEnv("TRIBE_LOCALE", c.Locale)
	c.Timezone = getEnv("TRIBE_TZ", c.Timezone)

	c.Sensors.Steps = getEnvBool("SENSOR_STEPS", c.Sensors.Steps)
	c.Sensors.Location = getEnvBool("SENSOR_LOCATION", c.Sensors.Location)

	// Fitness coach talks to OpenAI, support bot to the second provider.
	c.LLM.Fitness.APIKey = getEnv("OPENAI_API_KEY", c.LLM.Fitness.APIKey)
	c.LLM.Fitness.Model = getEnv("OPENAI_MODEL", c.LLM.Fitness.Model)
	c.LLM.Fitness.BaseURL = getEnv("OPENAI_BASE_URL", c.LLM.Fitness.BaseURL)
	c.LLM.Support.APIKey = getEnv("SUPPORT_LLM_API_KEY", c.LLM.Support.APIKey)
	c.LLM.Support.Model = getEnv("SUPPORT_LLM_MODEL", c.LLM.Support.Model)
	c.LLM.Support.BaseURL = getEnv("SUPPORT_LLM_BASE_URL", c.LLM.Support.BaseURL)
	return nil
}

// TelegramEnabled reports whether the bot has enough settings to start.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.Token != "" && c.Telegram.ChatID != 0
}

func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
