// Package openai adapts the OpenAI chat completions API to quiz.TextGenerator.
package openai

import (
	"context"
	"errors"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/famolydrive/drivequiz/internal/quiz"
)

const (
	DefaultModel       = goopenai.GPT3Dot5Turbo
	DefaultMaxTokens   = 500
	DefaultTemperature = 0.7

	systemPrompt = "あなたは日本の歴史と文化に詳しい教育者です。家族で楽しめる正確なクイズを作成してください。"
)

var errNoChoices = errors.New("openai: empty response")

type Options struct {
	Model       string
	MaxTokens   int
	Temperature float32
	// BaseURL overrides the API endpoint.
	BaseURL string
}

type Client struct {
	api  *goopenai.Client
	opts Options
}

func New(apiKey string, opts Options) *Client {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.Temperature <= 0 {
		opts.Temperature = DefaultTemperature
	}

	cfg := goopenai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	return &Client{api: goopenai.NewClientWithConfig(cfg), opts: opts}
}

// Generate sends prompt as a single user turn and returns the first choice.
func (c *Client) Generate(ctx context.Context, prompt string) (quiz.Generation, error) {
	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.opts.Model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
	})
	if err != nil {
		return quiz.Generation{}, fmt.Errorf("creating chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return quiz.Generation{}, errNoChoices
	}
	return quiz.Generation{
		Text:        resp.Choices[0].Message.Content,
		TotalTokens: resp.Usage.TotalTokens,
	}, nil
}
