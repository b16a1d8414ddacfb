package port

import "browserify/internal/domain"

// DependencyRecorder is the pipeline's cache-invalidation hook.
type DependencyRecorder interface {
	DependOnAsset(path string)
}

type DependencyStore interface {
	PutAsset(rec domain.AssetRecord) error

	GetAsset(path string) (domain.AssetRecord, error)

	ListAssets() ([]domain.AssetRecord, error)

	DeleteAsset(path string) error

	// Dependents returns the assets that registered dep.
	Dependents(dep string) ([]string, error)

	// Invalidate forgets the digest of path so the next build recompiles it.
	Invalidate(path string) error

	Close() error
}
