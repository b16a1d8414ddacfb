package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"browserify/config"
)

// layoutVersion is bumped whenever the bucket layout changes.
// v1 stored asset records only; v2 added the dependents index.
const layoutVersion = 2

var keyStamp = []byte("stamp")

// Stamp records which layout and which bundler settings produced the
// stored records.
type Stamp struct {
	Version    int    `json:"version"`
	ConfigHash string `json:"config_hash"`
}

// Reconciliation reports what Reconcile had to do to the stored data.
type Reconciliation struct {
	Cleared   bool
	Reindexed bool
	Reason    string
}

// ConfigHash hashes the settings that change bundle output.
func ConfigHash(cfg *config.Config) string {
	relevant := struct {
		Engine             string `json:"engine"`
		Executable         string `json:"executable"`
		TransformPackage   string `json:"transform_package"`
		Transform          string `json:"transform"`
		TransformExtension string `json:"transform_extension"`
		OutputDir          string `json:"output_dir"`
	}{
		Engine:             cfg.Bundler.Engine,
		Executable:         cfg.Bundler.Executable,
		TransformPackage:   cfg.Bundler.TransformPackage,
		Transform:          cfg.Bundler.Transform,
		TransformExtension: cfg.Bundler.TransformExtension,
		OutputDir:          cfg.Build.OutputDir,
	}

	data, _ := json.Marshal(relevant)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

func (s *BoltStore) Stamp() (Stamp, error) {
	var st Stamp
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		st, err = readStamp(tx)
		return err
	})
	return st, err
}

// Reconcile makes the stored records usable under cfg, in a single
// transaction. Records built with other bundler settings, or by a newer
// layout, are dropped; a v1 store gets its dependents index rebuilt.
func (s *BoltStore) Reconcile(cfg *config.Config) (Reconciliation, error) {
	var r Reconciliation
	hash := ConfigHash(cfg)

	err := s.db.Update(func(tx *bbolt.Tx) error {
		st, err := readStamp(tx)
		switch {
		case err != nil:
			r.Cleared, r.Reason = true, "unreadable store stamp"
		case st.Version > layoutVersion:
			r.Cleared, r.Reason = true, fmt.Sprintf("store written by a newer layout (v%d)", st.Version)
		case st.ConfigHash != "" && st.ConfigHash != hash:
			r.Cleared, r.Reason = true, "bundler configuration changed"
		case st.Version == 1:
			r.Reindexed, r.Reason = true, "building dependents index"
		}

		if r.Cleared {
			if err := resetBuckets(tx); err != nil {
				return err
			}
		} else if r.Reindexed {
			if err := reindex(tx); err != nil {
				return err
			}
		}

		data, err := json.Marshal(Stamp{Version: layoutVersion, ConfigHash: hash})
		if err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(keyStamp, data)
	})
	return r, err
}

// Clear drops every asset record and the dependents index. The stamp is
// kept.
func (s *BoltStore) Clear() error {
	return s.db.Update(resetBuckets)
}

func readStamp(tx *bbolt.Tx) (Stamp, error) {
	var st Stamp
	data := tx.Bucket(bucketMeta).Get(keyStamp)
	if data == nil {
		return st, nil
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("failed to decode store stamp: %w", err)
	}
	return st, nil
}

func resetBuckets(tx *bbolt.Tx) error {
	for _, name := range [][]byte{bucketAssets, bucketDependents} {
		if err := tx.DeleteBucket(name); err != nil && err != bbolt.ErrBucketNotFound {
			return err
		}
		if _, err := tx.CreateBucket(name); err != nil {
			return err
		}
	}
	return nil
}

// reindex rebuilds the dependents bucket from the asset records.
func reindex(tx *bbolt.Tx) error {
	if err := tx.DeleteBucket(bucketDependents); err != nil && err != bbolt.ErrBucketNotFound {
		return err
	}
	if _, err := tx.CreateBucket(bucketDependents); err != nil {
		return err
	}
	return tx.Bucket(bucketAssets).ForEach(func(k, v []byte) error {
		var rec struct {
			Dependencies []string `json:"dependencies"`
		}
		if err := json.Unmarshal(v, &rec); err != nil {
			return fmt.Errorf("failed to decode asset %s: %w", k, err)
		}
		return linkDependents(tx, string(k), rec.Dependencies)
	})
}
