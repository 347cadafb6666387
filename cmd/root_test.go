package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tornado/internal/assets"
	"tornado/internal/config"
	"tornado/internal/docstore"
)

func TestFindProject(t *testing.T) {
	ctx := context.Background()
	store, err := docstore.OpenSQLite(filepath.Join(t.TempDir(), "boards.db"), zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	plans, err := store.Create(ctx, "Plans")
	require.NoError(t, err)
	_, err = store.Create(ctx, "Ideas")
	require.NoError(t, err)
	_, err = store.Create(ctx, "Ideas")
	require.NoError(t, err)

	p, err := findProject(ctx, store, plans.ID)
	require.NoError(t, err)
	assert.Equal(t, "Plans", p.Name)

	p, err = findProject(ctx, store, "Plans")
	require.NoError(t, err)
	assert.Equal(t, plans.ID, p.ID)

	_, err = findProject(ctx, store, "Nope")
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	_, err = findProject(ctx, store, "Ideas")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "use the id")
}

func TestNewUploader(t *testing.T) {
	cfg := config.Default()
	cfg.Assets.Dir = t.TempDir()
	assert.IsType(t, &assets.LocalUploader{}, newUploader(cfg))

	cfg.Store.Backend = "remote"
	cfg.Store.URL = "http://boards.local"
	assert.IsType(t, &assets.RemoteUploader{}, newUploader(cfg))

	cfg.Store.Backend = "sqlite"
	cfg.Assets.URL = "http://assets.local"
	assert.IsType(t, &assets.RemoteUploader{}, newUploader(cfg))
}

func TestCommandTree(t *testing.T) {
	for _, name := range []string{"open", "projects", "export", "serve", "upload", "config"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
	cmd, _, err := rootCmd.Find([]string{"ls"})
	require.NoError(t, err)
	assert.Equal(t, "projects", cmd.Name())
}
