package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"browserify/internal/adapter/fs"
	"browserify/internal/usecase"
)

var buildCmd = &cobra.Command{
	Use:   "build [path]",
	Short: "Build all assets",
	Long: `Build every asset matched by the configured include patterns. Assets whose
content and dependencies are unchanged since the last build are skipped.
Dependency records are stored in .browserify/deps.db within the project.

Examples:
  browserify build                 # Build the current project
  browserify build /path/to/app    # Build a specific project`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	path := GetRootDir()
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	cfg := GetConfig()

	st, err := openStore(cfg, path)
	if err != nil {
		return err
	}
	defer st.Close()

	processor, err := newProcessor(cfg, path)
	if err != nil {
		return err
	}

	walker := fs.NewWalker(cfg.Assets.Includes, cfg.Assets.Excludes)
	buildUC := usecase.NewBuildUseCase(processor, walker, st, cfg.Build.OutputDir, cfg.Build.Workers, logger)

	fmt.Printf("Building %s...\n", path)

	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	var startTime time.Time

	progressCallback := func(processed, total int, currentFile string) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Bundling[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		bar.Set(processed)

		if processed > 0 && processed < total {
			elapsed := time.Since(startTime)
			rate := float64(processed) / elapsed.Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-processed)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Bundling[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}

	result, err := buildUC.Build(cmd.Context(), path, progressCallback)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	fmt.Printf("\nBuild complete:\n")
	fmt.Printf("  Assets built:    %d (%d bundled)\n", result.AssetsBuilt, result.AssetsBundled)
	fmt.Printf("  Assets skipped:  %d (unchanged)\n", result.AssetsSkipped)
	fmt.Printf("  Assets deleted:  %d (removed)\n", result.AssetsDeleted)
	fmt.Printf("  Bytes written:   %s\n", humanize.Bytes(uint64(result.BytesWritten)))

	if len(result.Errors) > 0 {
		fmt.Printf("\nErrors:\n")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
		return fmt.Errorf("%d asset(s) failed to build", result.AssetsFailed)
	}

	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
