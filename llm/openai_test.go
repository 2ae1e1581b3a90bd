package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type fakeCompletions struct {
	params openai.ChatCompletionNewParams
	resp   *openai.ChatCompletion
	err    error
}

func (f *fakeCompletions) New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	f.params = params
	return f.resp, f.err
}

func TestNewOpenAIRequiresAPIKey(t *testing.T) {
	if _, err := NewOpenAI(OpenAIConfig{}); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}

func TestCompleteReturnsAssistantText(t *testing.T) {
	fake := &fakeCompletions{
		resp: &openai.ChatCompletion{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: "hello"}},
			},
		},
	}
	c := &OpenAIClient{completions: fake, model: "gpt-4o"}

	got, err := c.Complete(context.Background(), Request{
		System:      "sys",
		User:        "user",
		Temperature: 0.1,
		MaxTokens:   300,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello" {
		t.Errorf("expected %q, got %q", "hello", got)
	}

	if fake.params.Model != "gpt-4o" {
		t.Errorf("expected model gpt-4o, got %v", fake.params.Model)
	}
	if len(fake.params.Messages) != 2 {
		t.Errorf("expected system+user messages, got %d", len(fake.params.Messages))
	}
}

func TestCompleteWrapsTransportError(t *testing.T) {
	fake := &fakeCompletions{err: errors.New("boom")}
	c := &OpenAIClient{completions: fake, model: "gpt-4o"}

	if _, err := c.Complete(context.Background(), Request{User: "x"}); err == nil {
		t.Fatalf("expected error to propagate")
	}
}

func TestCompleteRejectsEmptyChoices(t *testing.T) {
	fake := &fakeCompletions{resp: &openai.ChatCompletion{}}
	c := &OpenAIClient{completions: fake, model: "gpt-4o"}

	if _, err := c.Complete(context.Background(), Request{User: "x"}); err == nil {
		t.Fatalf("expected error for empty choices")
	}
}
