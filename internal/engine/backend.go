package engine

import "context"

// MaxTokens is the longest token sequence the backend accepts per step.
// Longer sequences are truncated, not rejected.
const MaxTokens = 510

// Backend is the inference collaborator: tokens plus voice conditioning in,
// audio samples out. Calls are synchronous and stateless apart from the
// loaded model weights; the engine never issues two calls concurrently.
type Backend interface {
	Infer(ctx context.Context, tokens []int64, style []float32, speed float32) ([]float32, error)
	Close() error
}
