package shortener_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/serroba/shortlinks/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func free(_ context.Context, _ shortener.Code) (bool, error) { return false, nil }

func TestNewGenerator(t *testing.T) {
	t.Run("draws codes of the requested length from the alphabet", func(t *testing.T) {
		gen, err := shortener.NewGenerator(8)
		require.NoError(t, err)

		for range 50 {
			code, err := gen.Generate(context.Background(), free)
			require.NoError(t, err)

			assert.Len(t, string(code), 8)

			for _, r := range string(code) {
				assert.True(t, strings.ContainsRune(shortener.Alphabet, r), "unexpected symbol %q", r)
			}
		}
	})

	t.Run("defaults to six symbols", func(t *testing.T) {
		gen, err := shortener.NewGenerator(0)
		require.NoError(t, err)

		code, err := gen.Generate(context.Background(), free)

		require.NoError(t, err)
		assert.Len(t, string(code), shortener.DefaultCodeLength)
	})
}

func TestGenerator_Generate(t *testing.T) {
	t.Run("skips codes that are taken", func(t *testing.T) {
		candidates := []string{"aaaaaa", "bbbbbb", "cccccc"}
		i := 0
		gen := shortener.NewGeneratorFrom(func() string {
			c := candidates[i]
			i++

			return c
		}, 10)

		code, err := gen.Generate(context.Background(), func(_ context.Context, c shortener.Code) (bool, error) {
			return c != "cccccc", nil
		})

		require.NoError(t, err)
		assert.Equal(t, shortener.Code("cccccc"), code)
	})

	t.Run("returns ErrExhausted after the attempt cap", func(t *testing.T) {
		draws := 0
		gen := shortener.NewGeneratorFrom(func() string {
			draws++

			return "same"
		}, 5)

		code, err := gen.Generate(context.Background(), func(_ context.Context, _ shortener.Code) (bool, error) {
			return true, nil
		})

		assert.Empty(t, code)
		assert.ErrorIs(t, err, shortener.ErrExhausted)
		assert.Equal(t, 5, draws)
	})

	t.Run("propagates occupancy errors", func(t *testing.T) {
		storeErr := errors.New("connection refused")
		gen := shortener.NewGeneratorFrom(func() string { return "abc" }, 5)

		_, err := gen.Generate(context.Background(), func(_ context.Context, _ shortener.Code) (bool, error) {
			return false, storeErr
		})

		assert.ErrorIs(t, err, storeErr)
	})
}
