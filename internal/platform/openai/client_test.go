package openai

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"testing"

	openai "github.com/meguminnnnnnnnn/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghiblify/avatar-api/internal/config"
	"github.com/ghiblify/avatar-api/internal/generation"
)

// fakeChatClient implements chatClient with scripted responses.
type fakeChatClient struct {
	chatResponses []openai.ChatCompletionResponse
	chatErrors    []error
	chatCalls     int
	lastChatReq   openai.ChatCompletionRequest

	imageResponse openai.ImageResponse
	imageErr      error
	imageCalls    int
}

func (f *fakeChatClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	i := f.chatCalls
	f.chatCalls++
	f.lastChatReq = req
	var err error
	if i < len(f.chatErrors) {
		err = f.chatErrors[i]
	}
	var resp openai.ChatCompletionResponse
	if i < len(f.chatResponses) {
		resp = f.chatResponses[i]
	}
	return resp, err
}

func (f *fakeChatClient) CreateImage(ctx context.Context, req openai.ImageRequest) (openai.ImageResponse, error) {
	f.imageCalls++
	return f.imageResponse, f.imageErr
}

func chatResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func testConfig() config.CapabilityConfig {
	return config.CapabilityConfig{
		APIKey:            "sk-test",
		BaseURL:           "https://gateway.example/v1",
		ChatModel:         "gpt-4o-image-vip",
		TrustedCDNHost:    "filesystem.site",
		MaxRetries:        2,
		RetryDelaySeconds: 1,
	}
}

func newTestGenerator(t *testing.T, client *fakeChatClient, cfg config.CapabilityConfig) *Generator {
	t.Helper()
	gen, err := NewGenerator(cfg, slog.Default())
	require.NoError(t, err)
	gen.client = client
	// Deterministic jitter in tests.
	gen.rng = rand.New(rand.NewSource(1))
	return gen
}

func TestNewGeneratorValidation(t *testing.T) {
	t.Parallel()

	_, err := NewGenerator(testConfig(), nil)
	assert.Error(t, err)

	cfg := testConfig()
	cfg.APIKey = ""
	_, err = NewGenerator(cfg, slog.Default())
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	cfg = testConfig()
	cfg.ChatModel = ""
	_, err = NewGenerator(cfg, slog.Default())
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}

func TestGenerateAvatarChatMode(t *testing.T) {
	t.Parallel()

	client := &fakeChatClient{
		chatResponses: []openai.ChatCompletionResponse{
			chatResponse("Here: https://filesystem.site/cdn/result.png"),
		},
	}
	gen := newTestGenerator(t, client, testConfig())

	text, err := gen.GenerateAvatar(context.Background(), "data:image/png;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, "Here: https://filesystem.site/cdn/result.png", text)
	assert.Equal(t, 1, client.chatCalls)
	assert.Zero(t, client.imageCalls)

	// The request carries both the prompt and the source image.
	require.Len(t, client.lastChatReq.Messages, 1)
	parts := client.lastChatReq.Messages[0].MultiContent
	require.Len(t, parts, 2)
	assert.Equal(t, openai.ChatMessagePartTypeText, parts[0].Type)
	assert.Equal(t, openai.ChatMessagePartTypeImageURL, parts[1].Type)
	assert.Equal(t, "data:image/png;base64,AAAA", parts[1].ImageURL.URL)
	assert.Equal(t, openai.ImageURLDetailHigh, parts[1].ImageURL.Detail)
}

func TestGenerateAvatarRetriesTransientErrors(t *testing.T) {
	t.Parallel()

	client := &fakeChatClient{
		chatErrors: []error{
			errors.New("502 bad gateway"),
			nil,
		},
		chatResponses: []openai.ChatCompletionResponse{
			{},
			chatResponse("https://filesystem.site/cdn/second-try.png"),
		},
	}
	cfg := testConfig()
	cfg.RetryDelaySeconds = 0 // retry immediately, no backoff in tests
	gen := newTestGenerator(t, client, cfg)

	text, err := gen.GenerateAvatar(context.Background(), "img")
	require.NoError(t, err)
	assert.Equal(t, "https://filesystem.site/cdn/second-try.png", text)
	assert.Equal(t, 2, client.chatCalls)
}

func TestGenerateAvatarExhaustsRetries(t *testing.T) {
	t.Parallel()

	client := &fakeChatClient{
		chatErrors: []error{
			errors.New("timeout"),
			errors.New("timeout"),
			errors.New("timeout"),
		},
	}
	cfg := testConfig()
	cfg.MaxRetries = 2
	cfg.RetryDelaySeconds = 0
	gen := newTestGenerator(t, client, cfg)

	_, err := gen.GenerateAvatar(context.Background(), "img")
	assert.ErrorIs(t, err, generation.ErrCapabilityFailure)
	assert.Equal(t, 3, client.chatCalls, "initial attempt plus two retries")
}

func TestGenerateAvatarPermanentErrorFailsFast(t *testing.T) {
	t.Parallel()

	client := &fakeChatClient{
		chatErrors: []error{
			&openai.APIError{HTTPStatusCode: 401, Message: "invalid api key"},
		},
	}
	cfg := testConfig()
	cfg.MaxRetries = 3
	cfg.RetryDelaySeconds = 0
	cfg.ImageModel = "" // no fallback
	gen := newTestGenerator(t, client, cfg)

	_, err := gen.GenerateAvatar(context.Background(), "img")
	assert.ErrorIs(t, err, generation.ErrCapabilityFailure)
	assert.NotErrorIs(t, err, generation.ErrTransientFailure)
	assert.Equal(t, 1, client.chatCalls, "an auth failure must not be retried")
}

func TestClassifyCallError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		err       error
		transient bool
	}{
		{"rate limit", &openai.APIError{HTTPStatusCode: 429}, true},
		{"server error", &openai.APIError{HTTPStatusCode: 503}, true},
		{"bad request", &openai.APIError{HTTPStatusCode: 400}, false},
		{"auth failure", &openai.APIError{HTTPStatusCode: 401}, false},
		{"network failure", errors.New("connection refused"), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			classified := classifyCallError(tc.err)
			if tc.transient {
				assert.ErrorIs(t, classified, generation.ErrTransientFailure)
			} else {
				assert.ErrorIs(t, classified, generation.ErrCapabilityFailure)
				assert.NotErrorIs(t, classified, generation.ErrTransientFailure)
			}
		})
	}
}

func TestGenerateAvatarEmptyResponseIsPermanent(t *testing.T) {
	t.Parallel()

	client := &fakeChatClient{
		chatResponses: []openai.ChatCompletionResponse{{}},
	}
	cfg := testConfig()
	cfg.ImageModel = "" // no fallback
	gen := newTestGenerator(t, client, cfg)

	_, err := gen.GenerateAvatar(context.Background(), "img")
	assert.ErrorIs(t, err, generation.ErrEmptyResponse)
	assert.Equal(t, 1, client.chatCalls, "an empty answer must not be retried")
}

func TestGenerateAvatarDirectModeFallback(t *testing.T) {
	t.Parallel()

	client := &fakeChatClient{
		chatResponses: []openai.ChatCompletionResponse{{}},
		imageResponse: openai.ImageResponse{
			Data: []openai.ImageResponseDataInner{
				{URL: "https://images.example/direct.png"},
			},
		},
	}
	cfg := testConfig()
	cfg.ImageModel = "dall-e-3"
	gen := newTestGenerator(t, client, cfg)

	text, err := gen.GenerateAvatar(context.Background(), "img")
	require.NoError(t, err)
	assert.Equal(t, "https://images.example/direct.png", text)
	assert.Equal(t, 1, client.imageCalls)
}

func TestGenerateAvatarDirectModeAlsoFails(t *testing.T) {
	t.Parallel()

	client := &fakeChatClient{
		chatResponses: []openai.ChatCompletionResponse{{}},
		imageErr:      errors.New("model not available"),
	}
	cfg := testConfig()
	cfg.ImageModel = "dall-e-3"
	gen := newTestGenerator(t, client, cfg)

	_, err := gen.GenerateAvatar(context.Background(), "img")
	assert.ErrorIs(t, err, generation.ErrEmptyResponse)
	assert.Equal(t, 1, client.imageCalls)
}

func TestGenerateAvatarEmptyImageRef(t *testing.T) {
	t.Parallel()

	gen := newTestGenerator(t, &fakeChatClient{}, testConfig())
	_, err := gen.GenerateAvatar(context.Background(), "")
	assert.ErrorIs(t, err, generation.ErrCapabilityFailure)
}
