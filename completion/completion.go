package completion

import (
	"context"
	"fmt"
	"net/http"

	apperrors "github.com/nijaru/yt-summary/errors"
	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const (
	summarySystemPrompt = "You are a helpful assistant who explains main points from a transcript in a concise manner. Use markdown. and use numbered bullet points."
	askSystemPrompt     = "You are a helpful assistant."
)

type Config struct {
	BaseURL            string
	SummaryModel       string
	SummaryTemperature float32
	SummaryMaxTokens   int
	AskModel           string
	AskTemperature     float32
}

// Completer turns a transcript into a summary and answers questions about a
// summary. apiKey is the caller's credential and is used for that call only.
type Completer interface {
	Summarize(ctx context.Context, apiKey, transcript string) (string, error)
	Ask(ctx context.Context, apiKey, summary, question string) (string, error)
}

type Client struct {
	config     Config
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(cfg Config, httpClient *http.Client, logger *logrus.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		config:     cfg,
		httpClient: httpClient,
		logger:     logger,
	}
}

func SummaryMessages(transcript string) []openai.ChatCompletionMessage {
	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: summarySystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: "Please summarize the following transcript:\n\n" + transcript},
	}
}

// AskMessages embeds summary and question in one user message with no
// delimiter between them.
func AskMessages(summary, question string) []openai.ChatCompletionMessage {
	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: askSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Based on the following summary, %s, %s", summary, question)},
	}
}

func (c *Client) Summarize(ctx context.Context, apiKey, transcript string) (string, error) {
	const op = "completion.Summarize"

	c.logger.WithField("transcript_length", len(transcript)).Info("Requesting summary")
	return c.complete(ctx, op, apiKey, openai.ChatCompletionRequest{
		Model:       c.config.SummaryModel,
		Messages:    SummaryMessages(transcript),
		Temperature: c.config.SummaryTemperature,
		MaxTokens:   c.config.SummaryMaxTokens,
	})
}

func (c *Client) Ask(ctx context.Context, apiKey, summary, question string) (string, error) {
	const op = "completion.Ask"

	c.logger.WithFields(logrus.Fields{
		"summary_length": len(summary),
		"question":       question,
	}).Info("Requesting answer")
	return c.complete(ctx, op, apiKey, openai.ChatCompletionRequest{
		Model:       c.config.AskModel,
		Messages:    AskMessages(summary, question),
		Temperature: c.config.AskTemperature,
	})
}

// complete makes exactly one upstream call. Failures come back as Upstream
// errors carrying the upstream message unchanged.
func (c *Client) complete(ctx context.Context, op, apiKey string, req openai.ChatCompletionRequest) (string, error) {
	cfg := openai.DefaultConfig(apiKey)
	if c.config.BaseURL != "" {
		cfg.BaseURL = c.config.BaseURL
	}
	cfg.HTTPClient = c.httpClient

	resp, err := openai.NewClientWithConfig(cfg).CreateChatCompletion(ctx, req)
	if err != nil {
		return "", apperrors.Upstream(op, err, upstreamMessage(err))
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.Upstream(op, nil, "completion returned no choices")
	}

	c.logger.WithFields(logrus.Fields{
		"model":  resp.Model,
		"tokens": resp.Usage.TotalTokens,
	}).Info("Completion API response received")
	return resp.Choices[0].Message.Content, nil
}

func upstreamMessage(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.Err != nil {
		return reqErr.Err.Error()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return apperrors.GenericMessage
}
