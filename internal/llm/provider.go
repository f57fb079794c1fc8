// Package llm abstracts over LLM vendors behind a single Provider
// interface. The exam pipeline expresses its capabilities (question
// generation, model answering, open-ended grading) as schema-typed
// requests: the calling package supplies the prompt and the JSON schema
// the response must conform to, and every provider returns validated
// JSON or a ProviderError.
package llm

import (
	"context"
	"encoding/json"
)

// Provider is the uniform interface over LLM vendors and the local stub.
// Output is untrusted by callers even when schema-validated here: the
// generator re-checks every candidate before it becomes a Question.
type Provider interface {
	// Generate sends a prompt and returns structured output. When the
	// request carries a Schema the provider uses the vendor's native
	// structured-output mechanism where available and validates the
	// result against the schema before returning it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured
	// to use.
	ModelID() string
}

// Request describes one call to a provider.
type Request struct {
	// System sets the model's role and constraints.
	System string

	// Messages is the conversation. Pipeline calls are single-turn:
	// one user message.
	Messages []Message

	// Schema is the JSON Schema the response must conform to. When nil
	// the response Content is the raw text wrapped as JSON.
	Schema *Schema

	// MaxTokens bounds the response length.
	MaxTokens int

	// Temperature controls randomness, 0.0-1.0. Zero when unset.
	Temperature float64
}

// Message is a single conversation message.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema names the JSON structure expected from the model. The Name
// doubles as the capability discriminator for the local stub.
type Schema struct {
	// Name identifies the schema, kebab-case, e.g. "exam-question".
	Name string

	// Description is sent to the model to guide generation.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds a provider's output.
type Response struct {
	// Content is the generated output. Validated against the request
	// Schema when one was set.
	Content json.RawMessage

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason is normalized to: "end", "max_tokens", "error".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
