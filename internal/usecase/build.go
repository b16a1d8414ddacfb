package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"browserify/internal/adapter/fs"
	"browserify/internal/domain"
	"browserify/internal/port"
)

// BuildUseCase compiles every asset under a root, skipping assets whose
// content and dependencies did not change since the last build.
type BuildUseCase struct {
	processor *Processor
	walker    port.AssetWalker
	store     port.DependencyStore
	outputDir string
	workers   int
	log       zerolog.Logger
}

// NewBuildUseCase creates a new build use case. A relative outputDir is
// resolved against the build root.
func NewBuildUseCase(
	processor *Processor,
	walker port.AssetWalker,
	store port.DependencyStore,
	outputDir string,
	workers int,
	log zerolog.Logger,
) *BuildUseCase {
	if workers <= 0 {
		workers = 1
	}
	return &BuildUseCase{
		processor: processor,
		walker:    walker,
		store:     store,
		outputDir: outputDir,
		workers:   workers,
		log:       log,
	}
}

// BuildResult contains the results of a build.
type BuildResult struct {
	AssetsBuilt   int
	AssetsBundled int
	AssetsSkipped int
	AssetsDeleted int
	AssetsFailed  int
	BytesWritten  int64
	Errors        []string
}

// ProgressFunc is called after each asset finishes.
type ProgressFunc func(processed, total int, current string)

// Build builds the assets found under root.
func (u *BuildUseCase) Build(ctx context.Context, root string, progress ProgressFunc) (*BuildResult, error) {
	result := &BuildResult{}

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk assets: %w", err)
	}

	existing, err := u.store.ListAssets()
	if err != nil {
		return nil, fmt.Errorf("failed to list built assets: %w", err)
	}
	existingMap := make(map[string]domain.AssetRecord, len(existing))
	for _, rec := range existing {
		existingMap[rec.Path] = rec
	}

	stale, err := u.staleByDependencies(files, existingMap)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(files))
	var jobs []buildJob
	for _, file := range files {
		seen[file.Path] = true

		content, err := fs.ReadFile(file.Path)
		if err != nil {
			result.AssetsFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("failed to read %s: %v", file.Path, err))
			continue
		}
		digest := contentDigest(content)

		if rec, ok := existingMap[file.Path]; ok && rec.Digest == digest && !stale[file.Path] && outputExists(rec) {
			result.AssetsSkipped++
			continue
		}
		jobs = append(jobs, buildJob{unit: domain.SourceUnit{Path: file.Path, Content: content}, digest: digest})
	}

	u.run(ctx, root, jobs, result, progress)

	for path := range existingMap {
		if seen[path] {
			continue
		}
		if err := u.store.DeleteAsset(path); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to delete %s: %v", path, err))
			continue
		}
		result.AssetsDeleted++
	}

	sort.Strings(result.Errors)
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

type buildJob struct {
	unit   domain.SourceUnit
	digest string
}

func (u *BuildUseCase) run(ctx context.Context, root string, jobs []buildJob, result *BuildResult, progress ProgressFunc) {
	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		processed int
	)
	queue := make(chan buildJob)

	for i := 0; i < u.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				rec, bundled, err := u.buildOne(ctx, root, job)

				mu.Lock()
				processed++
				if err != nil {
					result.AssetsFailed++
					result.Errors = append(result.Errors, fmt.Sprintf("failed to build %s: %v", job.unit.Path, err))
				} else {
					result.AssetsBuilt++
					result.BytesWritten += rec.Size
					if bundled {
						result.AssetsBundled++
					}
				}
				if progress != nil {
					progress(processed, len(jobs), job.unit.Path)
				}
				mu.Unlock()
			}
		}()
	}

dispatch:
	for _, job := range jobs {
		select {
		case <-ctx.Done():
			break dispatch
		case queue <- job:
		}
	}
	close(queue)
	wg.Wait()
}

func (u *BuildUseCase) buildOne(ctx context.Context, root string, job buildJob) (domain.AssetRecord, bool, error) {
	deps := domain.NewDependencySet()
	res, err := u.processor.Process(ctx, job.unit, deps)
	if err != nil {
		return domain.AssetRecord{}, false, err
	}

	outPath, err := u.outputPath(root, job.unit.Path)
	if err != nil {
		return domain.AssetRecord{}, false, err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return domain.AssetRecord{}, false, fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := os.WriteFile(outPath, []byte(res.Output), 0644); err != nil {
		return domain.AssetRecord{}, false, fmt.Errorf("failed to write output: %w", err)
	}

	rec := domain.AssetRecord{
		Path:         job.unit.Path,
		Digest:       job.digest,
		Dependencies: deps.Paths(),
		OutputPath:   outPath,
		Size:         int64(len(res.Output)),
		BuiltAt:      time.Now(),
	}
	if err := u.store.PutAsset(rec); err != nil {
		return domain.AssetRecord{}, false, fmt.Errorf("failed to store asset record: %w", err)
	}

	u.log.Debug().Str("path", rec.Path).Str("output", outPath).Bool("bundled", res.Bundled).Msg("asset built")
	return rec, res.Bundled, nil
}

func (u *BuildUseCase) outputPath(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	out := u.outputDir
	if !filepath.IsAbs(out) {
		out = filepath.Join(root, out)
	}
	return filepath.Join(out, rel), nil
}

// staleByDependencies marks assets that registered a walked file which was
// modified after the asset was last built.
func (u *BuildUseCase) staleByDependencies(files []port.FileInfo, existing map[string]domain.AssetRecord) (map[string]bool, error) {
	stale := make(map[string]bool)
	for _, file := range files {
		modTime := time.Unix(0, file.ModTime)
		dependents, err := u.store.Dependents(DependencyName(file.Path))
		if err != nil {
			return nil, fmt.Errorf("failed to look up dependents of %s: %w", file.Path, err)
		}
		for _, asset := range dependents {
			if rec, ok := existing[asset]; ok && modTime.After(rec.BuiltAt) {
				stale[asset] = true
			}
		}
	}
	return stale, nil
}

// DependencyName is the name under which the processor registers path.
func DependencyName(path string) string {
	return dotRelative(filepath.Base(path))
}

func contentDigest(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:16])
}

func outputExists(rec domain.AssetRecord) bool {
	if rec.OutputPath == "" {
		return false
	}
	_, err := os.Stat(rec.OutputPath)
	return !errors.Is(err, os.ErrNotExist)
}
