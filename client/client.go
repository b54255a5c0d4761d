package client

import (
	"context"
	"net/http"
	"strings"
	"sync"

	apperrors "github.com/nijaru/yt-summary/errors"
	"github.com/nijaru/yt-summary/validation"
	"github.com/sirupsen/logrus"
)

const (
	noSummaryMessage  = "No summary available. Please summarize the video first."
	noAPIKeyMessage   = "API Key is not set"
	noQuestionMessage = "Please enter a question"
)

type TranscriptSource interface {
	Transcript(ctx context.Context, videoID string) (string, error)
}

// SummarySlot holds the most recent summary. Save overwrites it.
type SummarySlot interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, summary string) error
}

type CredentialSource interface {
	Get(ctx context.Context) (string, error)
	Subscribe(fn func(string)) (cancel func())
}

// Client drives the summarize and ask actions: it extracts transcripts
// locally and calls the relay with the user's credential.
type Client struct {
	transcripts TranscriptSource
	summaries   SummarySlot
	relay       *relayCaller
	logger      *logrus.Logger

	mu          sync.RWMutex
	apiKey      string
	unsubscribe func()
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.relay.httpClient = httpClient
	}
}

func WithLogger(logger *logrus.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New reads the current credential and keeps it up to date for the lifetime
// of the client. Call Close to stop following changes.
func New(ctx context.Context, relayURL string, transcripts TranscriptSource, summaries SummarySlot, creds CredentialSource, opts ...Option) (*Client, error) {
	c := &Client{
		transcripts: transcripts,
		summaries:   summaries,
		relay:       newRelayCaller(relayURL),
		logger:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.unsubscribe = creds.Subscribe(c.setAPIKey)

	apiKey, err := creds.Get(ctx)
	if err != nil {
		c.unsubscribe()
		return nil, err
	}
	c.mu.Lock()
	if c.apiKey == "" {
		c.apiKey = apiKey
	}
	c.mu.Unlock()

	return c, nil
}

func (c *Client) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

func (c *Client) setAPIKey(apiKey string) {
	c.mu.Lock()
	c.apiKey = apiKey
	c.mu.Unlock()
	c.logger.WithField("set", apiKey != "").Debug("API key updated")
}

func (c *Client) currentAPIKey(op string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.apiKey == "" {
		return "", apperrors.Unauthorized(op, noAPIKeyMessage)
	}
	return c.apiKey, nil
}

// GetSummary summarizes the video at pageURL, stores the result as the
// current summary and returns it unchanged.
func (c *Client) GetSummary(ctx context.Context, pageURL string) (string, error) {
	const op = "client.GetSummary"

	videoID, err := validation.VideoIDFromURL(pageURL)
	if err != nil {
		return "", err
	}
	apiKey, err := c.currentAPIKey(op)
	if err != nil {
		return "", err
	}
	logger := c.logger.WithField("video_id", videoID)

	transcript, err := c.transcripts.Transcript(ctx, videoID)
	if err != nil {
		return "", err
	}
	logger.WithField("transcript_length", len(transcript)).Debug("Transcript extracted")

	var resp struct {
		Summary string `json:"summary"`
	}
	if err := c.relay.call(ctx, apiKey, "summarize", map[string]string{"transcript": transcript}, &resp); err != nil {
		logger.WithError(err).Error("Summarize failed")
		return "", err
	}

	if err := c.summaries.Save(ctx, resp.Summary); err != nil {
		return "", err
	}
	logger.Info("Summary stored")

	return resp.Summary, nil
}

// AskQuestion answers question against the current summary.
func (c *Client) AskQuestion(ctx context.Context, question string) (string, error) {
	const op = "client.AskQuestion"

	question = strings.TrimSpace(question)
	if question == "" {
		return "", apperrors.InvalidInput(op, nil, noQuestionMessage)
	}

	summary, err := c.summaries.Load(ctx)
	if err != nil {
		return "", err
	}
	if summary == "" {
		return "", apperrors.InvalidInput(op, nil, noSummaryMessage)
	}
	apiKey, err := c.currentAPIKey(op)
	if err != nil {
		return "", err
	}

	var resp struct {
		Answer string `json:"answer"`
	}
	if err := c.relay.call(ctx, apiKey, "ask", map[string]string{"question": question, "summary": summary}, &resp); err != nil {
		c.logger.WithError(err).Error("Ask failed")
		return "", err
	}
	return resp.Answer, nil
}
