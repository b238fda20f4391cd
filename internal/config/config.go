package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "PRREVIEW_"

// Config represents the application configuration. It is loaded once at
// startup and passed by value or pointer into constructors; nothing reads the
// environment afterwards.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Webhook WebhookConfig `koanf:"webhook"`
	GitHub  GitHubConfig  `koanf:"github"`
	GitLab  GitLabConfig  `koanf:"gitlab"`
	AI      AIConfig      `koanf:"ai"`
	Review  ReviewConfig  `koanf:"review"`
	Log     LogConfig     `koanf:"log"`
	Debug   DebugConfig   `koanf:"debug"`
}

type ServerConfig struct {
	Host      string `koanf:"host"`
	Port      int    `koanf:"port"`
	BodyLimit string `koanf:"body_limit"`
}

// WebhookConfig holds the shared secret used to sign deliveries. An empty
// secret switches the endpoint into open mode.
type WebhookConfig struct {
	Secret string `koanf:"secret"`
}

// GitHubConfig accepts either a token or GitHub App credentials.
type GitHubConfig struct {
	Token          string `koanf:"token"`
	AppID          int64  `koanf:"app_id"`
	InstallationID int64  `koanf:"installation_id"`
	PrivateKeyPath string `koanf:"private_key_path"`
	BaseURL        string `koanf:"base_url"`
}

type GitLabConfig struct {
	URL   string `koanf:"url"`
	Token string `koanf:"token"`
}

type AIConfig struct {
	Provider          string        `koanf:"provider"`
	Endpoint          string        `koanf:"endpoint"`
	APIKey            string        `koanf:"api_key"`
	APIVersion        string        `koanf:"api_version"`
	Model             string        `koanf:"model"`
	Temperature       float64       `koanf:"temperature"`
	MaxTokens         int           `koanf:"max_tokens"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Timeout           time.Duration `koanf:"timeout"`
}

type ReviewConfig struct {
	Header        string `koanf:"header"`
	Language      string `koanf:"language"`
	RedactSecrets bool   `koanf:"redact_secrets"`
	MaxFileBytes  int    `koanf:"max_file_bytes"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type DebugConfig struct {
	CaptureDir string `koanf:"capture_dir"`
}

// WebhookMode tells whether inbound signatures are checked.
type WebhookMode int

const (
	// ModeEnforced verifies X-Hub-Signature-256 on every delivery.
	ModeEnforced WebhookMode = iota
	// ModeOpen skips verification. Dangerous outside local development.
	ModeOpen
)

func (m WebhookMode) String() string {
	if m == ModeOpen {
		return "open"
	}
	return "enforced"
}

// WebhookMode reports the signature verification variant in effect.
func (c *Config) WebhookMode() WebhookMode {
	if c.Webhook.Secret == "" {
		return ModeOpen
	}
	return ModeEnforced
}

// UsesGitHubApp reports whether GitHub App installation auth is configured.
func (c *Config) UsesGitHubApp() bool {
	return c.GitHub.AppID != 0 && c.GitHub.InstallationID != 0
}

// Address returns the server listen address in the format host:port
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"server.port":             8000,
		"server.body_limit":       "5M",
		"github.private_key_path": "private-key.pem",
		"gitlab.url":              "https://gitlab.com",
		"ai.provider":             "azure",
		"ai.api_version":          "2024-06-01",
		"ai.temperature":          0.2,
		"ai.timeout":              "2m",
		"review.header":           "# AI Code Review",
		"review.redact_secrets":   true,
		"review.max_file_bytes":   100000,
		"log.level":               "info",
		"log.format":              "json",
	}
}

// legacyEnv maps the environment variable names used by earlier deployments
// onto config keys.
var legacyEnv = map[string]string{
	"GITHUB_WEBHOOK_SECRET":             "webhook.secret",
	"GITHUB_TOKEN":                      "github.token",
	"GITHUB_APP_ID":                     "github.app_id",
	"GITHUB_INSTALLATION_ID":            "github.installation_id",
	"GITHUB_PRIVATE_KEY_PATH":           "github.private_key_path",
	"AZURE_OPENAI_ENDPOINT":             "ai.endpoint",
	"AZURE_OPENAI_API_KEY":              "ai.api_key",
	"AZURE_OPENAI_API_VERSION":          "ai.api_version",
	"AZURE_OPENAI_CHAT_DEPLOYMENT_NAME": "ai.model",
}

// LoadConfig loads configuration from defaults, an optional TOML file, an
// optional .env file and the environment, in increasing precedence.
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
				return nil, fmt.Errorf("error loading config: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error reading config %s: %w", configPath, err)
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return legacyEnv[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	// PRREVIEW_AI_API_KEY -> ai.api_key
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".", 1)
	}), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// loadDotEnv loads path into the environment. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

// InitConfig writes a sample configuration file
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# prreview configuration
# Every key can be overridden with PRREVIEW_<SECTION>_<KEY>, e.g. PRREVIEW_WEBHOOK_SECRET.

[server]
port = 8000

[webhook]
# Leave empty only for local testing: an empty secret disables signature checks.
secret = "change-me"

[github]
# Either a token...
token = ""
# ...or GitHub App installation credentials.
app_id = 0
installation_id = 0
private_key_path = "private-key.pem"

[gitlab]
url = "https://gitlab.com"
token = ""

[ai]
# azure, openai, gemini, claude, cohere or ollama
provider = "azure"
endpoint = "https://your-resource.openai.azure.com"
api_key = "your-api-key"
api_version = "2024-06-01"
# Deployment name for azure, model name elsewhere
model = "gpt-4o"
temperature = 0.2
requests_per_second = 0

[review]
header = "# AI Code Review"
redact_secrets = true
max_file_bytes = 100000

[log]
level = "info"
format = "json"
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration for the given repository host.
func Validate(config *Config, host string) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	switch host {
	case "github":
		if config.GitHub.Token == "" && !config.UsesGitHubApp() {
			return fmt.Errorf("github token or app_id and installation_id are required")
		}
		if config.GitHub.Token == "" && config.GitHub.PrivateKeyPath == "" {
			return fmt.Errorf("github private_key_path is required for app authentication")
		}
	case "gitlab":
		if config.GitLab.URL == "" {
			return fmt.Errorf("gitlab url is required")
		}
		if config.GitLab.Token == "" {
			return fmt.Errorf("gitlab token is required")
		}
	default:
		return fmt.Errorf("unsupported repository host: %s", host)
	}

	return validateAI(config.AI)
}

func validateAI(ai AIConfig) error {
	switch ai.Provider {
	case "azure":
		if ai.Endpoint == "" {
			return fmt.Errorf("azure endpoint is required")
		}
		if ai.APIKey == "" {
			return fmt.Errorf("azure api_key is required")
		}
		if ai.Model == "" {
			return fmt.Errorf("azure deployment name (ai.model) is required")
		}
	case "openai", "gemini", "claude", "cohere":
		if ai.APIKey == "" {
			return fmt.Errorf("%s api_key is required", ai.Provider)
		}
	case "ollama":
		if ai.Model == "" {
			return fmt.Errorf("ollama model is required")
		}
	default:
		return fmt.Errorf("unsupported AI provider: %s", ai.Provider)
	}

	if ai.RequestsPerSecond < 0 {
		return fmt.Errorf("ai requests_per_second must not be negative")
	}
	return nil
}
