package memstore

import (
	"fmt"
	"sort"
	"sync"

	"browserify/internal/domain"
)

// MemoryStore is a DependencyStore that lives for one process. The CLI uses
// it when the persistent cache is disabled.
type MemoryStore struct {
	mu         sync.RWMutex
	assets     map[string]domain.AssetRecord
	dependents map[string]map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		assets:     make(map[string]domain.AssetRecord),
		dependents: make(map[string]map[string]struct{}),
	}
}

func (s *MemoryStore) PutAsset(rec domain.AssetRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.assets[rec.Path]; ok {
		s.unlink(prev)
	}
	rec.Dependencies = append([]string(nil), rec.Dependencies...)
	s.assets[rec.Path] = rec
	for _, dep := range rec.Dependencies {
		if s.dependents[dep] == nil {
			s.dependents[dep] = make(map[string]struct{})
		}
		s.dependents[dep][rec.Path] = struct{}{}
	}
	return nil
}

func (s *MemoryStore) GetAsset(path string) (domain.AssetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.assets[path]
	if !ok {
		return domain.AssetRecord{}, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	return rec, nil
}

func (s *MemoryStore) ListAssets() ([]domain.AssetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := make([]domain.AssetRecord, 0, len(s.assets))
	for _, rec := range s.assets {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Path < recs[j].Path })
	return recs, nil
}

func (s *MemoryStore) DeleteAsset(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.assets[path]; ok {
		s.unlink(rec)
		delete(s.assets, path)
	}
	return nil
}

func (s *MemoryStore) Dependents(dep string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.dependents[dep]))
	for p := range s.dependents[dep] {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *MemoryStore) Invalidate(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.assets[path]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	rec.Digest = ""
	s.assets[path] = rec
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) unlink(rec domain.AssetRecord) {
	for _, dep := range rec.Dependencies {
		delete(s.dependents[dep], rec.Path)
		if len(s.dependents[dep]) == 0 {
			delete(s.dependents, dep)
		}
	}
}
