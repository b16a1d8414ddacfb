package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"browserify/internal/adapter/fs"
	"browserify/internal/domain"
)

var (
	bundleOutput string
	bundleStdin  bool
)

var bundleCmd = &cobra.Command{
	Use:   "bundle <file>",
	Short: "Bundle a single asset",
	Long: `Bundle a single asset and print the result. Files without require or
module.exports are printed unchanged. With --stdin the content is read from
standard input and the file argument only decides the working directory.

Examples:
  browserify bundle app/assets/javascripts/application.js
  browserify bundle app/assets/javascripts/application.js -o public/application.js
  erb application.js.erb | browserify bundle app/assets/javascripts/application.js --stdin`,
	Args: cobra.ExactArgs(1),
	RunE: runBundle,
}

func init() {
	bundleCmd.Flags().StringVarP(&bundleOutput, "output", "o", "", "write the bundle to a file instead of stdout")
	bundleCmd.Flags().BoolVar(&bundleStdin, "stdin", false, "read preprocessed content from stdin")
	rootCmd.AddCommand(bundleCmd)
}

func runBundle(cmd *cobra.Command, args []string) error {
	unit, err := loadUnit(cmd, args[0], bundleStdin)
	if err != nil {
		return err
	}

	processor, err := newProcessor(GetConfig(), GetRootDir())
	if err != nil {
		return err
	}

	deps := domain.NewDependencySet()
	result, err := processor.Process(cmd.Context(), unit, deps)
	if err != nil {
		return err
	}

	for _, dep := range deps.Paths() {
		logger.Info().Str("dep", dep).Msg("depends on")
	}

	if bundleOutput == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), result.Output)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(bundleOutput), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	return os.WriteFile(bundleOutput, []byte(result.Output), 0644)
}

// loadUnit builds a SourceUnit for path, taking content from stdin when asked.
func loadUnit(cmd *cobra.Command, path string, fromStdin bool) (domain.SourceUnit, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return domain.SourceUnit{}, fmt.Errorf("invalid path: %w", err)
	}

	var content string
	if fromStdin {
		data, err := readAll(cmd.InOrStdin())
		if err != nil {
			return domain.SourceUnit{}, fmt.Errorf("failed to read stdin: %w", err)
		}
		content = data
	} else {
		content, err = fs.ReadFile(abs)
		if err != nil {
			return domain.SourceUnit{}, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	return domain.SourceUnit{Path: abs, Content: content}, nil
}
