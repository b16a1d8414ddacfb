package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"browserify/internal/usecase"
)

var staleDryRun bool

var staleCmd = &cobra.Command{
	Use:   "stale <file>...",
	Short: "Invalidate assets that depend on changed files",
	Long: `Look up the assets that registered any of the given files as a dependency,
print them and mark them for rebuilding on the next build.

Examples:
  browserify stale app/assets/javascripts/foo.js
  browserify stale --dry-run lib/a.js lib/b.js`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStale,
}

func init() {
	staleCmd.Flags().BoolVar(&staleDryRun, "dry-run", false, "only list the affected assets")
	rootCmd.AddCommand(staleCmd)
}

func runStale(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if !cfg.Cache.Enabled {
		return fmt.Errorf("stale needs the dependency cache; set cache.enabled in the config")
	}

	st, err := openStore(cfg, GetRootDir())
	if err != nil {
		return err
	}
	defer st.Close()

	staleUC := usecase.NewStaleUseCase(st)

	var affected []string
	if staleDryRun {
		affected, err = staleUC.Dependents(args...)
	} else {
		affected, err = staleUC.Invalidate(args...)
	}
	if err != nil {
		return err
	}

	for _, path := range affected {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	return nil
}
