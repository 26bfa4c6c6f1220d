package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/koscakluka/ema-dashboard/core/llms"
	goopenai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "qwen-plus"

// Client streams chat completions from any OpenAI compatible endpoint, such
// as DashScope's compatible mode.
type Client struct {
	client *goopenai.Client
	model  string
}

type ClientOption func(*goopenai.ClientConfig, *Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(config *goopenai.ClientConfig, _ *Client) {
		if baseURL != "" {
			config.BaseURL = baseURL
		}
	}
}

func WithModel(model string) ClientOption {
	return func(_ *goopenai.ClientConfig, c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(config *goopenai.ClientConfig, _ *Client) {
		if httpClient != nil {
			config.HTTPClient = httpClient
		}
	}
}

func NewClient(apiKey string, opts ...ClientOption) *Client {
	config := goopenai.DefaultConfig(apiKey)
	config.HTTPClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}

	client := &Client{model: DefaultModel}
	for _, opt := range opts {
		opt(&config, client)
	}
	client.client = goopenai.NewClientWithConfig(config)

	return client
}

func (c *Client) Model() string {
	return c.model
}

// StreamChat streams the reply to messages. Empty deltas are skipped and the
// stream ends silently when ctx is cancelled.
func (c *Client) StreamChat(ctx context.Context, messages []llms.Message, opts ...llms.StreamOption) llms.Stream {
	return func(yield func(string, error) bool) {
		options := llms.StreamOptions{Model: c.model}
		for _, opt := range opts {
			opt(&options)
		}

		ctx, span := tracer.Start(ctx, "stream chat completion")
		defer span.End()
		span.SetAttributes(
			attribute.String("llm.model", options.Model),
			attribute.Int("llm.messages", len(messages)),
		)

		stream, err := c.client.CreateChatCompletionStream(ctx, toChatRequest(messages, options))
		if err != nil {
			err = fmt.Errorf("error sending request: %w", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			yield("", err)
			return
		}
		defer stream.Close()

		fragments := 0
		for {
			response, err := stream.Recv()
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				if errors.Is(err, context.Canceled) {
					return
				}
				err = fmt.Errorf("error receiving response: %w", err)
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				yield("", err)
				return
			}

			if len(response.Choices) == 0 {
				continue
			}
			if content := response.Choices[0].Delta.Content; content != "" {
				fragments++
				if !yield(content, nil) {
					return
				}
			}
		}

		span.SetAttributes(attribute.Int("llm.fragments", fragments))
		logger.DebugContext(ctx, "chat completion finished", "model", options.Model, "fragments", fragments)
	}
}

func toChatRequest(messages []llms.Message, options llms.StreamOptions) goopenai.ChatCompletionRequest {
	request := goopenai.ChatCompletionRequest{
		Model:    options.Model,
		Messages: toOpenAIMessages(messages),
		Stream:   true,
	}
	if options.Temperature != nil {
		request.Temperature = *options.Temperature
	}
	if options.MaxTokens > 0 {
		request.MaxTokens = options.MaxTokens
	}
	return request
}

func toOpenAIMessages(messages []llms.Message) []goopenai.ChatCompletionMessage {
	converted := make([]goopenai.ChatCompletionMessage, 0, len(messages))
	for _, message := range messages {
		if message.Content == "" {
			continue
		}

		role := goopenai.ChatMessageRoleUser
		switch message.Role {
		case llms.RoleSystem:
			role = goopenai.ChatMessageRoleSystem
		case llms.RoleAssistant:
			role = goopenai.ChatMessageRoleAssistant
		}
		converted = append(converted, goopenai.ChatCompletionMessage{Role: role, Content: message.Content})
	}
	return converted
}
