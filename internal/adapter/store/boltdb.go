package store

import (
	"encoding/json"
	"fmt"
	"sort"

	"go.etcd.io/bbolt"

	"browserify/internal/domain"
)

var (
	bucketAssets     = []byte("assets")
	bucketDependents = []byte("dependents")
	bucketMeta       = []byte("meta")
)

// BoltStore persists asset records and a reverse index from each
// registered dependency to the assets that declared it.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketAssets, bucketDependents, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) PutAsset(rec domain.AssetRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		assets := tx.Bucket(bucketAssets)
		if old := assets.Get([]byte(rec.Path)); old != nil {
			var prev domain.AssetRecord
			if err := json.Unmarshal(old, &prev); err != nil {
				return fmt.Errorf("failed to decode asset %s: %w", rec.Path, err)
			}
			if err := unlinkDependents(tx, prev.Path, prev.Dependencies); err != nil {
				return err
			}
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if err := assets.Put([]byte(rec.Path), data); err != nil {
			return err
		}
		return linkDependents(tx, rec.Path, rec.Dependencies)
	})
}

func (s *BoltStore) GetAsset(path string) (domain.AssetRecord, error) {
	var rec domain.AssetRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketAssets).Get([]byte(path))
		if data == nil {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return json.Unmarshal(data, &rec)
	})
	return rec, err
}

func (s *BoltStore) ListAssets() ([]domain.AssetRecord, error) {
	var recs []domain.AssetRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAssets).ForEach(func(k, v []byte) error {
			var rec domain.AssetRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			recs = append(recs, rec)
			return nil
		})
	})
	return recs, err
}

func (s *BoltStore) DeleteAsset(path string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		assets := tx.Bucket(bucketAssets)
		data := assets.Get([]byte(path))
		if data == nil {
			return nil
		}
		var rec domain.AssetRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		if err := unlinkDependents(tx, path, rec.Dependencies); err != nil {
			return err
		}
		return assets.Delete([]byte(path))
	})
}

func (s *BoltStore) Dependents(dep string) ([]string, error) {
	var paths []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDependents).Get([]byte(dep))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &paths)
	})
	return paths, err
}

func (s *BoltStore) Invalidate(path string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		assets := tx.Bucket(bucketAssets)
		data := assets.Get([]byte(path))
		if data == nil {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		var rec domain.AssetRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		rec.Digest = ""
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return assets.Put([]byte(path), data)
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func linkDependents(tx *bbolt.Tx, asset string, deps []string) error {
	b := tx.Bucket(bucketDependents)
	for _, dep := range deps {
		var paths []string
		if data := b.Get([]byte(dep)); data != nil {
			if err := json.Unmarshal(data, &paths); err != nil {
				return fmt.Errorf("failed to decode dependents of %s: %w", dep, err)
			}
		}
		i := sort.SearchStrings(paths, asset)
		if i < len(paths) && paths[i] == asset {
			continue
		}
		paths = append(paths, "")
		copy(paths[i+1:], paths[i:])
		paths[i] = asset

		data, err := json.Marshal(paths)
		if err != nil {
			return err
		}
		if err := b.Put([]byte(dep), data); err != nil {
			return err
		}
	}
	return nil
}

func unlinkDependents(tx *bbolt.Tx, asset string, deps []string) error {
	b := tx.Bucket(bucketDependents)
	for _, dep := range deps {
		data := b.Get([]byte(dep))
		if data == nil {
			continue
		}
		var paths []string
		if err := json.Unmarshal(data, &paths); err != nil {
			return fmt.Errorf("failed to decode dependents of %s: %w", dep, err)
		}

		filtered := paths[:0]
		for _, p := range paths {
			if p != asset {
				filtered = append(filtered, p)
			}
		}
		if len(filtered) == 0 {
			if err := b.Delete([]byte(dep)); err != nil {
				return err
			}
			continue
		}
		data, err := json.Marshal(filtered)
		if err != nil {
			return err
		}
		if err := b.Put([]byte(dep), data); err != nil {
			return err
		}
	}
	return nil
}
