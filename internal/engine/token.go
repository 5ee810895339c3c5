package engine

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// RunTokenGenerator generates tokens correlating the runs of one
// invocation. Implemented by UUIDv7Generator and FixedGenerator.
type RunTokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run tokens.
//
// UUIDv7 embeds a timestamp in the most significant bits, so run tokens
// listed by the store sort by creation time.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Format: "550e8400-e29b-41d4-a716-446655440000" (36 characters)
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator hands out predetermined run tokens in order.
//
// By default it panics once the tokens run out, which catches a replay that
// starts more runs than it recorded. A repeating generator instead keeps
// returning its last token, so every run of a CLI invocation or a harness
// scenario shares one token.
//
// Thread-safety: FixedGenerator is safe for concurrent use.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	next   int
	repeat bool
}

// NewFixedGenerator returns tokens in order and panics when exhausted.
//
//	gen := NewFixedGenerator("run-1", "run-2")
//	gen.Generate() // "run-1"
//	gen.Generate() // "run-2"
//	gen.Generate() // panic
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// NewRepeatingGenerator returns token on every call.
func NewRepeatingGenerator(token string) *FixedGenerator {
	return &FixedGenerator{tokens: []string{token}, repeat: true}
}

// Generate returns the next token, or the last one again for a repeating
// generator.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.next < len(g.tokens) {
		token := g.tokens[g.next]
		g.next++
		return token
	}
	if g.repeat && len(g.tokens) > 0 {
		return g.tokens[len(g.tokens)-1]
	}
	panic(fmt.Sprintf("FixedGenerator: all %d tokens exhausted", len(g.tokens)))
}
