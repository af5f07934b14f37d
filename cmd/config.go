package cmd

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/spigell/mock-interview/internal/ai"
	"github.com/spigell/mock-interview/internal/interview"
	"github.com/spigell/mock-interview/internal/report"
)

type Config struct {
	AI        AIConfig        `mapstructure:"ai"`
	Interview InterviewConfig `mapstructure:"interview"`
	Server    ServerConfig    `mapstructure:"server"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Gemini   GeminiConfig  `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string  `mapstructure:"api-key" json:"-"`
	APIKeyFile   string  `mapstructure:"api-key-file"`
	Model        string  `mapstructure:"model"`
	MaxRetries   int     `mapstructure:"max-retries"`
	MaxLogLength int     `mapstructure:"max-log-length"`
	Temperature  float32 `mapstructure:"temperature"`
}

type InterviewConfig struct {
	QuestionCount    int                `mapstructure:"question-count"`
	DefaultCategory  interview.Category `mapstructure:"default-category"`
	TranscriptDir    string             `mapstructure:"transcript-dir"`
	TranscriptFormat report.Format      `mapstructure:"transcript-format"`
}

type ServerConfig struct {
	Listen         string        `mapstructure:"listen"`
	MaxUploadBytes int64         `mapstructure:"max-upload-bytes"`
	SessionTTL     time.Duration `mapstructure:"session-ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ai.provider", ai.ProviderGemini)
	v.SetDefault("ai.timeout", "60s")
	v.SetDefault("ai.gemini.api-key", "")
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.gemini.model", "gemini-2.0-flash")
	v.SetDefault("ai.gemini.max-retries", 3)
	v.SetDefault("ai.gemini.max-log-length", 200)
	v.SetDefault("ai.gemini.temperature", 0.7)
	v.SetDefault("interview.question-count", 5)
	v.SetDefault("interview.default-category", "")
	v.SetDefault("interview.transcript-dir", "results")
	v.SetDefault("interview.transcript-format", string(report.FormatYAML))
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.max-upload-bytes", 10<<20)
	v.SetDefault("server.session-ttl", "2h")
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.AllSettings())
}

// decodeConfig turns viper's settings map into a validated Config.
func decodeConfig(settings map[string]any) (*Config, error) {
	var config Config

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &config,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			categoryHook,
			formatHook,
		),
	})
	if err != nil {
		return nil, fmt.Errorf("create config decoder: %w", err)
	}

	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	var errs []error

	if !strings.EqualFold(strings.TrimSpace(c.AI.Provider), ai.ProviderGemini) {
		errs = append(errs, fmt.Errorf("ai.provider %q is not supported", c.AI.Provider))
	}
	if c.AI.Timeout < 0 {
		errs = append(errs, errors.New("ai.timeout must not be negative"))
	}
	if c.Interview.QuestionCount <= 0 {
		errs = append(errs, errors.New("interview.question-count must be positive"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("server.max-upload-bytes must be positive"))
	}
	if c.Server.SessionTTL < 0 {
		errs = append(errs, errors.New("server.session-ttl must not be negative"))
	}

	return errors.Join(errs...)
}

var (
	categoryType = reflect.TypeOf(interview.Category(""))
	formatType   = reflect.TypeOf(report.Format(""))
)

// categoryHook resolves category names case-insensitively; blank means no preselection.
func categoryHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != categoryType {
		return data, nil
	}
	raw := reflect.ValueOf(data).String()
	if strings.TrimSpace(raw) == "" {
		return interview.Category(""), nil
	}
	return interview.ParseCategory(raw)
}

func formatHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != formatType {
		return data, nil
	}
	return report.ParseFormat(reflect.ValueOf(data).String())
}
