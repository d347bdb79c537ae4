package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
)

func TestProjectStore_AddAndList(t *testing.T) {
	ctx := context.Background()
	seed := domain.Project{Name: "one", ReadmeURL: "https://github.com/o/one"}
	store := NewProjectStore(seed)

	require.NoError(t, store.Add(ctx, domain.Project{Name: "two", ReadmeURL: "https://github.com/o/two"}))

	err := store.Add(ctx, domain.Project{Name: "dup", ReadmeURL: "https://github.com/o/one"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	projects, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "one", projects[0].Name)
	assert.Equal(t, "two", projects[1].Name)

	projects[0].Name = "mutated"
	again, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "one", again[0].Name)
}

func TestProjectStore_EmptyListIsNotNil(t *testing.T) {
	projects, err := NewProjectStore().List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, projects)
	assert.Empty(t, projects)
}
