package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
	"github.com/custodia-labs/docs-agent/internal/core/ports/driven"
)

func TestRuntimeHolder_Empty(t *testing.T) {
	h := NewRuntimeHolder(nil, "")

	_, err := h.Current()
	assert.ErrorIs(t, err, domain.ErrAuthorization)

	_, release, err := h.Acquire(context.Background())
	assert.ErrorIs(t, err, domain.ErrAuthorization)
	release()
}

func TestRuntimeHolder_Swap(t *testing.T) {
	first := &driven.Runtime{Collection: "first"}
	second := &driven.Runtime{Collection: "second"}
	h := NewRuntimeHolder(first, "sk-one")

	var retired []*driven.Runtime
	retire := func(rt *driven.Runtime) { retired = append(retired, rt) }

	h.Swap(second, "sk-two", retire)
	require.Len(t, retired, 1)
	assert.Same(t, first, retired[0])

	got, err := h.Current()
	require.NoError(t, err)
	assert.Same(t, second, got)

	h.Swap(nil, "", retire)
	require.Len(t, retired, 2)
	assert.Same(t, second, retired[1])
	_, err = h.Current()
	assert.ErrorIs(t, err, domain.ErrAuthorization)

	h.Swap(first, "sk-one", nil)
	h.Swap(second, "sk-two", nil)
}

func TestRuntimeHolder_SwapWaitsForInFlight(t *testing.T) {
	first := &driven.Runtime{Collection: "first"}
	second := &driven.Runtime{Collection: "second"}
	h := NewRuntimeHolder(first, "sk-one")

	rtA, releaseA, err := h.Acquire(context.Background())
	require.NoError(t, err)
	rtB, releaseB, err := h.Acquire(context.Background())
	require.NoError(t, err)
	require.Same(t, first, rtA)
	require.Same(t, first, rtB)

	var retired []*driven.Runtime
	h.Swap(second, "sk-two", func(rt *driven.Runtime) { retired = append(retired, rt) })
	assert.Empty(t, retired)

	rt, release, err := h.Acquire(context.Background())
	require.NoError(t, err)
	assert.Same(t, second, rt, "new requests use the new runtime")
	release()

	releaseA()
	assert.Empty(t, retired)
	releaseB()
	require.Len(t, retired, 1)
	assert.Same(t, first, retired[0])
}

func TestRuntimeHolder_DeriveErrorReleasesHold(t *testing.T) {
	first := &driven.Runtime{Collection: "first"}
	h := NewRuntimeHolder(first, "sk-one")
	h.SetDeriver(func(string) (*driven.Runtime, error) {
		return nil, errors.New("bad key")
	})

	_, release, err := h.Acquire(WithAPIKey(context.Background(), "sk-other"))
	require.Error(t, err)
	release()

	var retired int
	h.Swap(nil, "", func(*driven.Runtime) { retired++ })
	assert.Equal(t, 1, retired)
}

func TestRuntimeHolder_Acquire(t *testing.T) {
	active := &driven.Runtime{Collection: "active"}

	t.Run("no request credential", func(t *testing.T) {
		h := NewRuntimeHolder(active, "sk-active")
		h.SetDeriver(func(string) (*driven.Runtime, error) {
			t.Fatal("derive must not be called")
			return nil, nil
		})

		rt, release, err := h.Acquire(context.Background())
		require.NoError(t, err)
		defer release()
		assert.Same(t, active, rt)
	})

	t.Run("same credential reuses active runtime", func(t *testing.T) {
		h := NewRuntimeHolder(active, "sk-active")
		h.SetDeriver(func(string) (*driven.Runtime, error) {
			t.Fatal("derive must not be called")
			return nil, nil
		})

		rt, release, err := h.Acquire(WithAPIKey(context.Background(), "sk-active"))
		require.NoError(t, err)
		defer release()
		assert.Same(t, active, rt)
	})

	t.Run("without deriver falls back", func(t *testing.T) {
		h := NewRuntimeHolder(active, "sk-active")

		rt, release, err := h.Acquire(WithAPIKey(context.Background(), "sk-other"))
		require.NoError(t, err)
		defer release()
		assert.Same(t, active, rt)
	})

	t.Run("derive error", func(t *testing.T) {
		h := NewRuntimeHolder(nil, "")
		h.SetDeriver(func(string) (*driven.Runtime, error) {
			return nil, errors.New("bad key")
		})

		_, release, err := h.Acquire(WithAPIKey(context.Background(), "sk-other"))
		assert.EqualError(t, err, "bad key")
		release()
	})
}

func TestAPIKeyFromContext(t *testing.T) {
	_, ok := APIKeyFromContext(context.Background())
	assert.False(t, ok)

	_, ok = APIKeyFromContext(WithAPIKey(context.Background(), ""))
	assert.False(t, ok)

	key, ok := APIKeyFromContext(WithAPIKey(context.Background(), "sk-abc"))
	assert.True(t, ok)
	assert.Equal(t, "sk-abc", key)
}
