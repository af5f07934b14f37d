package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/mock-interview/internal/ai"
	"github.com/spigell/mock-interview/internal/ai/gemini"
	"github.com/spigell/mock-interview/internal/interview"
	"github.com/spigell/mock-interview/internal/logger"
	"github.com/spigell/mock-interview/internal/resume"
	"github.com/spigell/mock-interview/internal/secrets"
)

// bootstrap builds the logger and the validated config shared by every command.
func bootstrap() (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the mock-interview", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return logger, config
}

// newController wires the résumé extractor and the AI interviewer into a session controller.
func newController(ctx context.Context, config *Config, base *zap.Logger, recorder interview.Recorder) (*interview.Controller, error) {
	interviewer, model, err := newInterviewer(ctx, config, base)
	if err != nil {
		return nil, err
	}

	return interview.NewController(interview.Deps{
		Extractor: resume.NewExtractor(base),
		Questions: interviewer,
		Feedback:  interviewer,
		Summary:   interviewer,
		Logger:    logger.WithProvider(base, config.AI.Provider, model),
		Recorder:  recorder,
		Timeout:   config.AI.Timeout,
	})
}

func newInterviewer(ctx context.Context, config *Config, base *zap.Logger) (ai.Interviewer, string, error) {
	cfg := config.AI.Gemini

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.APIKeyFile,
		Value: cfg.APIKey,
	})
	if err != nil {
		return nil, "", fmt.Errorf("%w (set GEMINI_API_KEY, GEMINI_API_KEY_FILE or ai.gemini.api-key)", err)
	}

	var generator ai.Generator
	generator, err = gemini.NewGenerator(ctx, apiKey, cfg.Model, cfg.MaxRetries, cfg.Temperature, base)
	if err != nil {
		return nil, "", fmt.Errorf("building gemini generator: %w", err)
	}

	aiLogger := logger.WithProvider(base, ai.ProviderGemini, generator.Model())

	return gemini.NewInterviewer(generator, aiLogger, config.Interview.QuestionCount, cfg.MaxLogLength), generator.Model(), nil
}
