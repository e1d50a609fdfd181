package schema_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relq/internal/schema"
)

func TestPromise_ZeroValue(t *testing.T) {
	var p schema.Promise[int]
	assert.True(t, p.IsZero())

	value, err := p.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, value)
}

func TestPromise_Fixed(t *testing.T) {
	p := schema.Fixed("hello")
	assert.False(t, p.IsZero())

	value, err := p.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", value)
}

func TestPromise_ResolvesLazily(t *testing.T) {
	calls := 0
	p := schema.NewPromise(func(context.Context, schema.Introspecter) (int, error) {
		calls++
		return 7, nil
	})
	assert.Equal(t, 0, calls, "construction must not resolve")

	value, err := p.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 7, value)
	assert.Equal(t, 1, calls)

	// Resolution is one-shot per call, never cached.
	_, err = p.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestPromise_Map(t *testing.T) {
	doubled := schema.Map(schema.Fixed(21), func(v int) (int, error) {
		return v * 2, nil
	})
	value, err := doubled.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 42, value)
}

func TestPromise_MapPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	failing := schema.NewPromise(func(context.Context, schema.Introspecter) (int, error) {
		return 0, boom
	})
	mapped := schema.Map(failing, func(v int) (string, error) {
		t.Fatal("transform must not run after a failed resolution")
		return "", nil
	})

	_, err := mapped.Resolve(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
}
