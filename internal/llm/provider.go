package llm

import "context"

// Provider is the single abstraction over LLM vendors. The reviewer
// sends one prompt and receives free-form text; any JSON embedded in
// the reply is the caller's concern to extract.
type Provider interface {
	// Complete sends a single-turn prompt and returns the raw text
	// response. Implementations must honor ctx cancellation and map
	// vendor errors onto the typed errors in this package.
	Complete(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured
	// to use.
	ModelID() string
}

// Request describes a single-turn completion.
type Request struct {
	// System sets the reviewer role and constraints.
	System string

	// Prompt is the user message.
	Prompt string

	// MaxTokens bounds the response length.
	MaxTokens int

	// Temperature controls randomness, 0.0-1.0. Zero when unset.
	Temperature float64
}

// Response holds the LLM's output.
type Response struct {
	// Text is the raw model output. May contain prose around an
	// embedded JSON object.
	Text string

	// Usage reports token consumption for this request.
	Usage Usage

	// Provider is the vendor that served the request ("anthropic",
	// "openai", ...). Distinguishes a fallback-served response from a
	// primary-served one even when both run the same model family.
	Provider string

	// Model is the actual model that served the request.
	Model string

	// StopReason is normalized to: "end", "max_tokens".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
