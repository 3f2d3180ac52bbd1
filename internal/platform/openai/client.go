package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/ghiblify/avatar-api/internal/config"
	"github.com/ghiblify/avatar-api/internal/generation"
	openai "github.com/meguminnnnnnnnn/go-openai"
)

// stylePrompt is the fixed style-transfer instruction sent with every
// generation request. The capability is asked to transform the attached
// photo rather than invent a new scene.
const stylePrompt = `Studio Ghibli Spirited Away anime style portrait transformation. ` +
	`Create an authentic Studio Ghibli style character based on this photo: ` +
	`traditional hand-drawn cel animation aesthetic, soft warm colors, golden hour lighting, ` +
	`large expressive anime eyes with bright highlights like Chihiro, clean flowing lines, ` +
	`detailed magical background with spirited away atmosphere. ` +
	`Transform person into beautiful anime art style while preserving unique facial features. ` +
	`High quality Studio Ghibli animation style.`

const maxResponseTokens = 1000

// chatClient is the subset of the OpenAI client the generator uses,
// extracted so tests can substitute a fake.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateImage(ctx context.Context, req openai.ImageRequest) (openai.ImageResponse, error)
}

// Generator implements generation.Generator against an OpenAI-protocol
// endpoint. The primary mode is a chat completion carrying the source image,
// whose free-text answer embeds a result locator; when the chat model yields
// nothing usable and a dedicated image model is configured, the direct
// image-generation mode is used instead.
type Generator struct {
	client chatClient
	config config.CapabilityConfig
	logger *slog.Logger
	rng    *rand.Rand
}

// NewGenerator creates a Generator from the capability configuration.
func NewGenerator(cfg config.CapabilityConfig, logger *slog.Logger) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ChatModel == "" {
		return nil, fmt.Errorf("%w: chat model cannot be empty", generation.ErrInvalidConfig)
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Generator{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
		logger: logger.With(slog.String("component", "openai_generator")),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Ensure Generator implements generation.Generator.
var _ generation.Generator = (*Generator)(nil)

// GenerateAvatar asks the capability to transform the referenced image and
// returns the raw response text for the extraction policy to interpret.
func (g *Generator) GenerateAvatar(ctx context.Context, imageRef string) (string, error) {
	if imageRef == "" {
		return "", fmt.Errorf("%w: image reference cannot be empty", generation.ErrCapabilityFailure)
	}

	text, err := g.callChatWithRetry(ctx, imageRef)
	if err == nil && text != "" {
		return text, nil
	}

	// Alternate, simpler-to-parse mode: a dedicated image call returning a
	// direct locator. Only attempted when the chat mode produced nothing
	// usable and an image model is configured.
	if g.config.ImageModel != "" {
		g.logger.WarnContext(ctx, "chat mode yielded no usable response, trying direct image mode",
			slog.String("image_model", g.config.ImageModel))

		url, imgErr := g.generateDirect(ctx)
		if imgErr == nil {
			return url, nil
		}
		g.logger.ErrorContext(ctx, "direct image mode failed",
			slog.String("error", imgErr.Error()))
	}

	if err != nil {
		return "", err
	}
	return "", generation.ErrEmptyResponse
}

// callChatWithRetry makes the chat-completion call with exponential backoff
// for transient errors. Empty responses are permanent: retrying the same
// prompt will not make the model answer.
func (g *Generator) callChatWithRetry(ctx context.Context, imageRef string) (string, error) {
	maxRetries := g.config.MaxRetries
	if maxRetries < 0 {
		g.logger.WarnContext(ctx, "invalid max retries value, using default", "max_retries", 3)
		maxRetries = 3
	}

	// Zero means retry immediately; negative values fall back to the default.
	baseDelaySeconds := g.config.RetryDelaySeconds
	if baseDelaySeconds < 0 {
		baseDelaySeconds = 2
	}

	req := openai.ChatCompletionRequest{
		Model: g.config.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: stylePrompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    imageRef,
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
		MaxTokens: maxResponseTokens,
	}

	for attempt := 0; ; attempt++ {
		attemptNum := attempt + 1
		g.logger.InfoContext(ctx, "making capability chat call",
			"attempt", attemptNum,
			"max_attempts", maxRetries+1)

		resp, err := g.client.CreateChatCompletion(ctx, req)
		if err == nil {
			if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
				return "", generation.ErrEmptyResponse
			}
			g.logger.InfoContext(ctx, "capability chat call successful", "attempt", attemptNum)
			return resp.Choices[0].Message.Content, nil
		}

		err = classifyCallError(err)
		g.logger.ErrorContext(ctx, "capability chat call failed",
			"attempt", attemptNum,
			"error", err)

		// Auth and bad-request failures will not resolve by retrying.
		if !errors.Is(err, generation.ErrTransientFailure) {
			return "", err
		}

		if attempt >= maxRetries {
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				generation.ErrCapabilityFailure, maxRetries, err)
		}

		// Exponential backoff with jitter:
		// delay = baseDelay * (2^attempt) * (0.5 + rand(0, 0.5))
		backoffSeconds := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
		jitterFactor := 0.5 + g.rng.Float64()*0.5
		delay := time.Duration(backoffSeconds * jitterFactor * float64(time.Second))

		g.logger.InfoContext(ctx, "retrying capability call after delay",
			"attempt", attemptNum,
			"delay_seconds", delay.Seconds())

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", generation.ErrCapabilityFailure, ctx.Err())
		}
	}
}

// classifyCallError wraps a failed capability call so the retry loop can
// tell retryable failures apart. Rate limits, server-side errors, and
// network-level failures are transient; any other API error is permanent.
func classifyCallError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500 {
			return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
		}
		return fmt.Errorf("%w: %v", generation.ErrCapabilityFailure, err)
	}

	// No API status means the request never got a response.
	return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
}

// generateDirect invokes the dedicated image-generation endpoint, which
// returns a direct URL locator instead of free text.
func (g *Generator) generateDirect(ctx context.Context) (string, error) {
	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Model:  g.config.ImageModel,
		Prompt: stylePrompt,
		N:      1,
		Size:   openai.CreateImageSize1024x1024,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", generation.ErrCapabilityFailure, err)
	}

	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", generation.ErrEmptyResponse
	}

	return resp.Data[0].URL, nil
}
