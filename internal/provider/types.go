package provider

import (
	"context"
	"errors"
	"fmt"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of the already-built prompt payload. Prompt text is
// authored by the caller; this core only transports it.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the prompt payload handed to a provider.
type Request struct {
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

func (r *Request) Validate() error {
	if len(r.Messages) == 0 {
		return errors.New("at least one message is required")
	}
	for i, m := range r.Messages {
		if m.Role != RoleSystem && m.Role != RoleUser && m.Role != RoleAssistant {
			return fmt.Errorf("invalid role %q in messages[%d]", m.Role, i)
		}
		if m.Content == "" && m.Role != RoleSystem {
			return fmt.Errorf("content is required for messages[%d]", i)
		}
	}
	if r.Temperature < 0 || r.Temperature > 2 {
		return errors.New("temperature must be between 0 and 2")
	}
	return nil
}

// Result is the normalized outcome of a provider call, with the upstream
// envelope stripped. Identical shape no matter which provider answered.
type Result struct {
	Content          string `json:"content"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	Provider         string `json:"provider"`
	Model            string `json:"model"`
}

// Caller is a single upstream model endpoint.
type Caller interface {
	Generate(ctx context.Context, req *Request) (*Result, error)
	Name() string
}
