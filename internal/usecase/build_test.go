package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"browserify/internal/adapter/fs"
	"browserify/internal/adapter/memstore"
	"browserify/internal/domain"
)

type buildFixture struct {
	root   string
	engine *fakeEngine
	store  *memstore.MemoryStore
	uc     *BuildUseCase
}

func newBuildFixture(t *testing.T) *buildFixture {
	t.Helper()
	root := t.TempDir()
	write := func(rel, content string) {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	write("app/application.js", "var foo = require('./foo');")
	write("app/foo.js", "var x = 1;")
	write("app/plain.js", "console.log('plain');")

	engine := &fakeEngine{
		listOut:   []string{"/tmp/stdin-buffer", filepath.Join(root, "app", "foo.js")},
		bundleOut: "/* bundled */",
	}
	store := memstore.NewMemoryStore()
	processor := NewProcessor(engine, fs.OS{}, root, zerolog.Nop())
	walker := fs.NewWalker([]string{"app/**/*.js"}, nil)

	return &buildFixture{
		root:   root,
		engine: engine,
		store:  store,
		uc:     NewBuildUseCase(processor, walker, store, "public/assets", 2, zerolog.Nop()),
	}
}

func TestBuildCompilesAndRecords(t *testing.T) {
	f := newBuildFixture(t)

	var lastProcessed, lastTotal int
	result, err := f.uc.Build(context.Background(), f.root, func(processed, total int, _ string) {
		lastProcessed, lastTotal = processed, total
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.AssetsBuilt)
	assert.Equal(t, 1, result.AssetsBundled)
	assert.Zero(t, result.AssetsFailed)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 3, lastProcessed)
	assert.Equal(t, 3, lastTotal)

	out, err := os.ReadFile(filepath.Join(f.root, "public", "assets", "app", "application.js"))
	require.NoError(t, err)
	assert.Equal(t, "/* bundled */", string(out))

	out, err = os.ReadFile(filepath.Join(f.root, "public", "assets", "app", "plain.js"))
	require.NoError(t, err)
	assert.Equal(t, "console.log('plain');", string(out))

	rec, err := f.store.GetAsset(filepath.Join(f.root, "app", "application.js"))
	require.NoError(t, err)
	assert.Equal(t, []string{"./foo.js"}, rec.Dependencies)
	assert.NotEmpty(t, rec.Digest)

	dependents, err := f.store.Dependents("./foo.js")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(f.root, "app", "application.js")}, dependents)
}

func TestBuildIsIncremental(t *testing.T) {
	f := newBuildFixture(t)
	_, err := f.uc.Build(context.Background(), f.root, nil)
	require.NoError(t, err)
	calls := len(f.engine.calls)

	result, err := f.uc.Build(context.Background(), f.root, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.AssetsSkipped)
	assert.Zero(t, result.AssetsBuilt)
	assert.Len(t, f.engine.calls, calls)

	// a newer dependency makes its dependents stale
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(f.root, "app", "foo.js"), future, future))

	result, err = f.uc.Build(context.Background(), f.root, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.AssetsBuilt)
	assert.Equal(t, 1, result.AssetsBundled)
	assert.Equal(t, 2, result.AssetsSkipped)
}

func TestBuildRebuildsChangedContent(t *testing.T) {
	f := newBuildFixture(t)
	_, err := f.uc.Build(context.Background(), f.root, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(f.root, "app", "plain.js"), []byte("console.log('changed');"), 0644))

	result, err := f.uc.Build(context.Background(), f.root, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.AssetsBuilt)
	assert.Zero(t, result.AssetsBundled)
}

func TestBuildRemovesDeletedAssets(t *testing.T) {
	f := newBuildFixture(t)
	_, err := f.uc.Build(context.Background(), f.root, nil)
	require.NoError(t, err)

	plain := filepath.Join(f.root, "app", "plain.js")
	require.NoError(t, os.Remove(plain))

	result, err := f.uc.Build(context.Background(), f.root, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.AssetsDeleted)

	_, err = f.store.GetAsset(plain)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBuildCollectsFailures(t *testing.T) {
	f := newBuildFixture(t)
	f.engine.bundleErr = &domain.ExecutionError{Command: "browserify -d", Stderr: "ParseError"}

	result, err := f.uc.Build(context.Background(), f.root, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.AssetsFailed)
	assert.Equal(t, 2, result.AssetsBuilt)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "application.js")
	assert.Contains(t, result.Errors[0], "ParseError")

	_, err = f.store.GetAsset(filepath.Join(f.root, "app", "application.js"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBuildCanceled(t *testing.T) {
	f := newBuildFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.uc.Build(ctx, f.root, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDependencyName(t *testing.T) {
	assert.Equal(t, "./foo.js", DependencyName("/project/app/foo.js"))
	assert.Equal(t, ".eslintrc.js", DependencyName("/project/.eslintrc.js"))
}
