package review

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/prreview/internal/ai"
	"github.com/prreview/internal/ai/langchain"
	"github.com/prreview/internal/aiconnectors"
	"github.com/prreview/internal/capture"
	"github.com/prreview/internal/config"
	"github.com/prreview/internal/providers"
	"github.com/prreview/internal/providers/github"
	"github.com/prreview/internal/providers/gitlab"
	"github.com/prreview/internal/redact"
)

// NewRepositoryClient creates the repository client for host ("github" or
// "gitlab") from configuration.
func NewRepositoryClient(ctx context.Context, cfg *config.Config, host string) (providers.RepositoryClient, error) {
	switch host {
	case "github":
		ghConfig := github.GitHubConfig{
			Token:   cfg.GitHub.Token,
			BaseURL: cfg.GitHub.BaseURL,
		}
		if ghConfig.Token == "" && cfg.UsesGitHubApp() {
			key, err := os.ReadFile(cfg.GitHub.PrivateKeyPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read github app private key: %w", err)
			}
			ghConfig.AppID = cfg.GitHub.AppID
			ghConfig.InstallationID = cfg.GitHub.InstallationID
			ghConfig.PrivateKeyPEM = key
		}
		return github.New(ctx, ghConfig)
	case "gitlab":
		return gitlab.New(gitlab.GitLabConfig{
			URL:   cfg.GitLab.URL,
			Token: cfg.GitLab.Token,
		})
	default:
		return nil, fmt.Errorf("unsupported repository host: %s", host)
	}
}

// NewCodeReviewer creates the model-backed reviewer from the [ai] section.
func NewCodeReviewer(ctx context.Context, cfg *config.Config) (ai.CodeReviewer, error) {
	connector, err := aiconnectors.NewConnector(ctx, aiconnectors.OptionsFromConfig(cfg.AI))
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("provider", string(connector.GetProvider())).
		Str("model", connector.GetModel()).
		Msg("AI connector ready")

	return langchain.NewReviewer(connector, langchain.Options{
		Language:          cfg.Review.Language,
		RequestsPerSecond: cfg.AI.RequestsPerSecond,
		Timeout:           cfg.AI.Timeout,
	}), nil
}

// ConfigFrom extracts the service settings from the application config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Header:       cfg.Review.Header,
		MaxFileBytes: cfg.Review.MaxFileBytes,
	}
}

// NewServiceFromConfig wires a Service with the configured redaction and
// capture settings. extra options are applied last.
func NewServiceFromConfig(cfg *config.Config, repo providers.RepositoryClient, reviewer ai.CodeReviewer, recorder *capture.Recorder, extra ...Option) (*Service, error) {
	opts := []Option{WithCapture(recorder)}
	if cfg.Review.RedactSecrets {
		engine, err := redact.NewEngine()
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithRedactor(engine))
	}
	return NewService(repo, reviewer, ConfigFrom(cfg), append(opts, extra...)...), nil
}
