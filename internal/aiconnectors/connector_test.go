package aiconnectors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/prreview/internal/config"
)

// recordingModel is an llms.Model that echoes a fixed completion and keeps
// the options of the last call.
type recordingModel struct {
	prompt  string
	options llms.CallOptions
}

func (m *recordingModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, opt := range options {
		opt(&m.options)
	}
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				m.prompt = text.Text
			}
		}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "ok"}}}, nil
}

func (m *recordingModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.AIConfig{
		Provider:    "azure",
		Endpoint:    "https://example.openai.azure.com",
		APIKey:      "key",
		APIVersion:  "2024-06-01",
		Model:       "gpt-4o",
		Temperature: 0.2,
		MaxTokens:   800,
	})

	assert.Equal(t, ProviderAzure, opts.Provider)
	assert.Equal(t, "https://example.openai.azure.com", opts.BaseURL)
	assert.Equal(t, "2024-06-01", opts.APIVersion)
	assert.Equal(t, ModelConfig{Temperature: 0.2, MaxTokens: 800, Model: "gpt-4o"}, opts.ModelConfig)
}

func TestNewConnector(t *testing.T) {
	ctx := context.Background()

	c, err := NewConnector(ctx, ConnectorOptions{
		Provider:    ProviderAzure,
		APIKey:      "key",
		BaseURL:     "https://example.openai.azure.com",
		APIVersion:  "2024-06-01",
		ModelConfig: ModelConfig{Model: "review-deployment"},
	})
	require.NoError(t, err)
	assert.Equal(t, ProviderAzure, c.GetProvider())
	assert.Equal(t, "review-deployment", c.GetModel())

	_, err = NewConnector(ctx, ConnectorOptions{Provider: ProviderAzure, APIKey: "key"})
	assert.Error(t, err)

	_, err = NewConnector(ctx, ConnectorOptions{Provider: "mystery"})
	assert.Error(t, err)

	c, err = NewConnector(ctx, ConnectorOptions{Provider: ProviderOllama, ModelConfig: ModelConfig{Model: "llama3"}})
	require.NoError(t, err)
	assert.Equal(t, ProviderOllama, c.GetProvider())
}

func TestCallAppliesModelConfig(t *testing.T) {
	model := &recordingModel{}
	c := NewConnectorWithModel(model, ConnectorOptions{
		Provider:    ProviderOpenAI,
		ModelConfig: ModelConfig{Temperature: 0.3, MaxTokens: 512},
	})

	out, err := c.Call(context.Background(), "review this")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, "review this", model.prompt)
	assert.Equal(t, 0.3, model.options.Temperature)
	assert.Equal(t, 512, model.options.MaxTokens)
}
