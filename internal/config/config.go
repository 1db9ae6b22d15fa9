package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Source   SourceConfig   `yaml:"source"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Telegram TelegramConfig `yaml:"telegram"`
	Digest   DigestConfig   `yaml:"digest"`
	LogLevel string         `yaml:"log_level"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// RabbitMQConfig is optional: an empty URL disables the ingest-event
// publisher entirely.
type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

type SourceConfig struct {
	BaseURL     string        `yaml:"base_url"`
	SectionPath string        `yaml:"section_path"`
	Timeout     time.Duration `yaml:"timeout"`
}

type OpenAIConfig struct {
	BaseURL      string  `yaml:"base_url"`
	APIKey       string  `yaml:"api_key"`
	Model        string  `yaml:"model"`
	TTSModel     string  `yaml:"tts_model"`
	TTSVoice     string  `yaml:"tts_voice"`
	SystemPrompt string  `yaml:"system_prompt"`
	MaxTokens    int     `yaml:"max_tokens"`
	Temperature  float64 `yaml:"temperature"`
}

type TelegramConfig struct {
	Token       string        `yaml:"token"`
	APIURL      string        `yaml:"api_url"`
	PollTimeout time.Duration `yaml:"poll_timeout"`
}

type DigestConfig struct {
	Hour      int    `yaml:"hour"`
	Timezone  string `yaml:"timezone"`
	VoiceFile string `yaml:"voice_file"`
}

// Location resolves the digest timezone; an unknown or empty value falls back
// to UTC.
func (d DigestConfig) Location() *time.Location {
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil || d.Timezone == "" {
		return time.UTC
	}
	return loc
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.RabbitMQ.URL != "" {
		if c.RabbitMQ.Exchange == "" {
			c.RabbitMQ.Exchange = "news_digest"
		}
		if c.RabbitMQ.RoutingKey == "" {
			c.RabbitMQ.RoutingKey = "articles"
		}
		if c.RabbitMQ.QueueName == "" {
			c.RabbitMQ.QueueName = "ingested_articles"
		}
	}
	if c.Source.BaseURL == "" {
		c.Source.BaseURL = "https://www.dw.com"
	}
	if c.Source.SectionPath == "" {
		c.Source.SectionPath = "/en/germany/s-1432"
	}
	if c.Source.Timeout == 0 {
		c.Source.Timeout = 30 * time.Second
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.OpenAI.TTSModel == "" {
		c.OpenAI.TTSModel = "tts-1"
	}
	if c.OpenAI.TTSVoice == "" {
		c.OpenAI.TTSVoice = "nova"
	}
	if c.OpenAI.SystemPrompt == "" {
		c.OpenAI.SystemPrompt = "You are a helpful assistant that summarizes news articles."
	}
	if c.OpenAI.MaxTokens == 0 {
		c.OpenAI.MaxTokens = 5000
	}
	if c.OpenAI.Temperature == 0 {
		c.OpenAI.Temperature = 0.5
	}
	if c.Telegram.APIURL == "" {
		c.Telegram.APIURL = "https://api.telegram.org"
	}
	if c.Telegram.PollTimeout == 0 {
		c.Telegram.PollTimeout = 30 * time.Second
	}
	if c.Digest.Hour == 0 {
		c.Digest.Hour = 8
	}
	if c.Digest.VoiceFile == "" {
		c.Digest.VoiceFile = "speech.mp3"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
