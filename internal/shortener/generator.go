package shortener

import (
	"context"
	"fmt"

	"github.com/jaevor/go-nanoid"
)

const (
	// Alphabet is the 62-symbol set generated codes are drawn from.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	DefaultCodeLength  = 6
	DefaultMaxAttempts = 1000
)

// CodeSource draws one random candidate code.
type CodeSource func() string

// Taken reports whether code is currently held by a live link.
type Taken func(ctx context.Context, code Code) (bool, error)

// Generator produces codes not held by any live link. It keeps no state of its own;
// occupancy is always asked of the caller.
type Generator struct {
	draw        CodeSource
	maxAttempts int
}

// NewGenerator creates a generator of uniformly random alphanumeric codes.
func NewGenerator(length int) (*Generator, error) {
	if length <= 0 {
		length = DefaultCodeLength
	}

	draw, err := nanoid.CustomASCII(Alphabet, length)
	if err != nil {
		return nil, fmt.Errorf("code generator: %w", err)
	}

	return NewGeneratorFrom(draw, DefaultMaxAttempts), nil
}

// NewGeneratorFrom creates a generator over an arbitrary source.
func NewGeneratorFrom(draw CodeSource, maxAttempts int) *Generator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	return &Generator{
		draw:        draw,
		maxAttempts: maxAttempts,
	}
}

// Generate draws candidates until taken reports one free, giving up with ErrExhausted
// after maxAttempts draws.
func (g *Generator) Generate(ctx context.Context, taken Taken) (Code, error) {
	for range g.maxAttempts {
		code := Code(g.draw())

		inUse, err := taken(ctx, code)
		if err != nil {
			return "", err
		}

		if !inUse {
			return code, nil
		}
	}

	return "", fmt.Errorf("%w after %d attempts", ErrExhausted, g.maxAttempts)
}
