package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/genai"

	"github.com/spigell/jd-tailor/internal/ai"
)

type fakeChatCreator struct {
	mu    sync.Mutex
	calls []chatCallRecord
	queue map[string][]fakeChatResponse
}

type chatCallRecord struct {
	model  string
	config *genai.GenerateContentConfig
	chat   *fakeChat
}

type fakeChatResponse struct {
	resp  *genai.GenerateContentResponse
	err   error
	block bool
}

type fakeChat struct {
	mu       sync.Mutex
	response fakeChatResponse
	messages []string
}

func (f *fakeChat) SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	for _, part := range parts {
		f.messages = append(f.messages, part.Text)
	}
	res := f.response
	f.mu.Unlock()

	if res.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return res.resp, res.err
}

func newFakeChatCreator() *fakeChatCreator {
	return &fakeChatCreator{queue: make(map[string][]fakeChatResponse)}
}

func (f *fakeChatCreator) enqueue(model string, res fakeChatResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue[model] = append(f.queue[model], res)
}

func (f *fakeChatCreator) Create(_ context.Context, model string, config *genai.GenerateContentConfig, _ []*genai.Content) (chatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	responses := f.queue[model]
	if len(responses) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := responses[0]
	f.queue[model] = responses[1:]
	chat := &fakeChat{response: res}
	f.calls = append(f.calls, chatCallRecord{model: model, config: config, chat: chat})
	return chat, nil
}

func textResponse(texts ...string) *genai.GenerateContentResponse {
	parts := make([]*genai.Part, 0, len(texts))
	for _, text := range texts {
		parts = append(parts, &genai.Part{Text: text})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func TestGeneratorSendsSystemInstruction(t *testing.T) {
	chats := newFakeChatCreator()
	chats.enqueue("gemini-pro", fakeChatResponse{resp: textResponse("  ok  ")})

	g := newGenerator(chats, Options{Model: "gemini-pro"}, zap.NewNop())

	output, err := g.Complete(context.Background(), "system", "message")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if output != "ok" {
		t.Fatalf("unexpected output: %q", output)
	}

	if len(chats.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(chats.calls))
	}

	call := chats.calls[0]
	if call.config == nil || call.config.SystemInstruction == nil {
		t.Fatalf("expected system instruction to be set")
	}
	if got := call.config.SystemInstruction.Parts[0].Text; got != "system" {
		t.Fatalf("unexpected system instruction: %q", got)
	}
	if len(call.chat.messages) != 1 || call.chat.messages[0] != "message" {
		t.Fatalf("unexpected chat message: %+v", call.chat.messages)
	}
}

func TestGeneratorJoinsTextPartsAndSkipsThoughts(t *testing.T) {
	chats := newFakeChatCreator()
	resp := textResponse("first", "", "second")
	resp.Candidates[0].Content.Parts = append(resp.Candidates[0].Content.Parts, &genai.Part{Text: "hidden", Thought: true})
	chats.enqueue(defaultModel, fakeChatResponse{resp: resp})

	g := newGenerator(chats, Options{}, nil)

	output, err := g.Complete(context.Background(), "", "message")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if output != "first\nsecond" {
		t.Fatalf("unexpected output: %q", output)
	}

	if chats.calls[0].config != nil {
		t.Fatalf("expected no config without system prompt")
	}
}

func TestGeneratorDoesNotRetry(t *testing.T) {
	chats := newFakeChatCreator()
	tempErr := genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}
	chats.enqueue("gemini-pro", fakeChatResponse{err: tempErr})
	chats.enqueue("gemini-pro", fakeChatResponse{resp: textResponse("never")})

	core, observed := observer.New(zapcore.WarnLevel)
	g := newGenerator(chats, Options{Model: "gemini-pro"}, zap.New(core))

	_, err := g.Complete(context.Background(), "sys", "msg")
	if err == nil {
		t.Fatal("expected error")
	}

	if !errors.Is(err, ai.ErrOracleUnavailable) {
		t.Fatalf("expected oracle unavailable, got %v", err)
	}

	if len(chats.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(chats.calls))
	}

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(entries))
	}
	if code := entries[0].ContextMap()["status_code"]; code != int64(http.StatusInternalServerError) {
		t.Fatalf("unexpected status_code field: %v", code)
	}
}

func TestGeneratorTimeout(t *testing.T) {
	chats := newFakeChatCreator()
	chats.enqueue("gemini-pro", fakeChatResponse{block: true})

	g := newGenerator(chats, Options{Model: "gemini-pro", Timeout: 10 * time.Millisecond}, zap.NewNop())

	_, err := g.Complete(context.Background(), "sys", "msg")
	if !errors.Is(err, ai.ErrOracleUnavailable) {
		t.Fatalf("expected oracle unavailable, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	if kind := ai.KindOf(ai.ClassifyOracleError(err)); kind != ai.KindOracleUnavailable {
		t.Fatalf("unexpected kind: %s", kind)
	}
}

func TestGeneratorEmptyResponse(t *testing.T) {
	chats := newFakeChatCreator()
	chats.enqueue("gemini-pro", fakeChatResponse{resp: textResponse("   ")})

	g := newGenerator(chats, Options{Model: "gemini-pro"}, zap.NewNop())

	_, err := g.Complete(context.Background(), "sys", "msg")
	if !errors.Is(err, ai.ErrEmptyResponse) {
		t.Fatalf("expected empty response error, got %v", err)
	}
}

func TestGeneratorRejectsEmptyPrompt(t *testing.T) {
	g := newGenerator(newFakeChatCreator(), Options{}, zap.NewNop())

	if _, err := g.Complete(context.Background(), "sys", "  "); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}

func TestNewGeneratorRequiresAPIKey(t *testing.T) {
	if _, err := NewGenerator(context.Background(), Options{APIKey: " "}, zap.NewNop()); err == nil {
		t.Fatal("expected error without api key")
	}
}
