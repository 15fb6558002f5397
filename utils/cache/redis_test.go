package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type overview struct {
	Total int
}

func TestRememberWithoutStoreAlwaysBuilds(t *testing.T) {
	calls := 0
	build := func(context.Context) (*overview, error) {
		calls++
		return &overview{Total: calls}, nil
	}

	first, err := Remember(context.Background(), nil, "k", 0, build, nil)
	require.NoError(t, err)
	second, err := Remember(context.Background(), nil, "k", 0, build, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Total)
	assert.Equal(t, 2, second.Total)
}

func TestRememberPropagatesBuildError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Remember(context.Background(), nil, "k", 0, func(context.Context) (*overview, error) {
		return nil, boom
	}, nil)
	assert.ErrorIs(t, err, boom)
}

func TestKeysAreNamespaced(t *testing.T) {
	assert.Equal(t, "elearning:brute_force:lock:1.2.3.4", key("brute_force:lock:1.2.3.4"))
	assert.Equal(t, []string{"elearning:a", "elearning:b"}, keys([]string{"a", "b"}))
}
