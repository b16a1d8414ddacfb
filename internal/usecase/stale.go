package usecase

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"browserify/internal/domain"
	"browserify/internal/port"
)

// StaleUseCase answers "what must be rebuilt now that these files changed"
// and marks those assets for recompilation.
type StaleUseCase struct {
	store port.DependencyStore
}

func NewStaleUseCase(store port.DependencyStore) *StaleUseCase {
	return &StaleUseCase{store: store}
}

// Dependents returns the assets affected by a change to any of paths,
// including paths that are themselves built assets.
func (u *StaleUseCase) Dependents(paths ...string) ([]string, error) {
	affected := make(map[string]struct{})
	for _, path := range paths {
		keys := []string{path, DependencyName(path)}
		if abs, err := filepath.Abs(path); err == nil {
			if _, err := u.store.GetAsset(abs); err == nil {
				affected[abs] = struct{}{}
			} else if !errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
		}
		for _, key := range keys {
			dependents, err := u.store.Dependents(key)
			if err != nil {
				return nil, fmt.Errorf("failed to look up dependents of %s: %w", key, err)
			}
			for _, d := range dependents {
				affected[d] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(affected))
	for p := range affected {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

// Invalidate clears the digests of every asset affected by paths so the next
// build recompiles them, and returns those assets.
func (u *StaleUseCase) Invalidate(paths ...string) ([]string, error) {
	affected, err := u.Dependents(paths...)
	if err != nil {
		return nil, err
	}
	for _, asset := range affected {
		if err := u.store.Invalidate(asset); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("failed to invalidate %s: %w", asset, err)
		}
	}
	return affected, nil
}
