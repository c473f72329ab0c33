package site

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"ElectionWatcher/internal/domain"
)

type stubAdapter struct{ name string }

func (s stubAdapter) Name() string { return s.name }

func (s stubAdapter) ListRegions(context.Context, Target) ([]domain.Region, error) {
	return nil, nil
}

func (s stubAdapter) Extract(context.Context, Target, domain.Region) (domain.Extraction, error) {
	return domain.Extraction{}, nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(stubAdapter{name: "b"})
	reg.Register(stubAdapter{name: "a"})

	adapter, err := reg.Resolve("a")
	require.NoError(t, err)
	require.Equal(t, "a", adapter.Name())

	_, err = reg.Resolve("missing")
	require.ErrorContains(t, err, "missing")
	require.Equal(t, []string{"a", "b"}, reg.Names())
}

func TestRegistryZeroValue(t *testing.T) {
	t.Parallel()

	var reg Registry
	reg.Register(stubAdapter{name: "x"})
	_, err := reg.Resolve("x")
	require.NoError(t, err)
}
