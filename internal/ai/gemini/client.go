package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/jd-tailor/internal/ai"
	"github.com/spigell/jd-tailor/internal/textutil"
)

const (
	defaultModel        = "gemini-2.5-flash"
	defaultTimeout      = 30 * time.Second
	defaultMaxLogLength = 200
)

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type genaiChats struct {
	chats *genai.Chats
}

func (c genaiChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	chat, err := c.chats.Create(ctx, model, config, history)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// Options configures a Generator.
type Options struct {
	APIKey       string
	Model        string
	Timeout      time.Duration
	MaxLogLength int
}

// Generator wraps the Google GenAI client and implements ai.Oracle.
// Every call is a single attempt bounded by the configured timeout.
type Generator struct {
	chats     chatCreator
	model     string
	timeout   time.Duration
	maxLogLen int
	logger    *zap.Logger
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, opts Options, logger *zap.Logger) (*Generator, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(genaiChats{chats: client.Chats}, opts, logger), nil
}

func newGenerator(chats chatCreator, opts Options, logger *zap.Logger) *Generator {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	maxLogLen := opts.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{
		chats:     chats,
		model:     model,
		timeout:   timeout,
		maxLogLen: maxLogLen,
		logger:    logger,
	}
}

// Complete sends the user prompt with the system instruction and returns the textual answer.
// Transport, auth, quota and deadline failures are wrapped with ai.ErrOracleUnavailable.
func (g *Generator) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if g == nil || g.chats == nil {
		return "", fmt.Errorf("%w: gemini generator is not initialized", ai.ErrOracleUnavailable)
	}

	userPrompt = strings.TrimSpace(userPrompt)
	if userPrompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var config *genai.GenerateContentConfig
	if system := strings.TrimSpace(systemPrompt); system != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		}
	}

	g.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(userPrompt)),
		zap.String("prompt_preview", textutil.TruncateForLog(userPrompt, g.maxLogLen)),
	)

	started := time.Now()

	chat, err := g.chats.Create(ctx, g.model, config, nil)
	if err != nil {
		return "", fmt.Errorf("%w: create chat: %w", ai.ErrOracleUnavailable, err)
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: userPrompt})
	if err != nil {
		g.logFailure(err, time.Since(started))
		return "", fmt.Errorf("%w: generate content: %w", ai.ErrOracleUnavailable, err)
	}

	output := responseText(resp)

	g.logger.Debug("gemini generate content response",
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("response_length", utf8.RuneCountInString(output)),
		zap.String("response_preview", textutil.TruncateForLog(output, g.maxLogLen)),
	)

	if output == "" {
		return "", ai.ErrEmptyResponse
	}

	return output, nil
}

func (g *Generator) logFailure(err error, elapsed time.Duration) {
	fields := []zap.Field{zap.Duration("elapsed", elapsed), zap.Error(err)}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		fields = append(fields, zap.Int("status_code", apiErr.Code), zap.String("status", apiErr.Status))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		fields = append(fields, zap.Duration("timeout", g.timeout))
	}

	g.logger.Warn("gemini generate content failed", fields...)
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}
