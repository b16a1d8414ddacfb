package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"browserify/internal/usecase"
)

var depsStdin bool

var depsCmd = &cobra.Command{
	Use:   "deps <file>",
	Short: "List the dependencies a bundle registers",
	Long: `Run the bundler in list mode and print the normalized dependencies of an
asset, one per line. Nothing is printed for assets that are not CommonJS.

Examples:
  browserify deps app/assets/javascripts/application.js`,
	Args: cobra.ExactArgs(1),
	RunE: runDeps,
}

func init() {
	depsCmd.Flags().BoolVar(&depsStdin, "stdin", false, "read preprocessed content from stdin")
	rootCmd.AddCommand(depsCmd)
}

func runDeps(cmd *cobra.Command, args []string) error {
	unit, err := loadUnit(cmd, args[0], depsStdin)
	if err != nil {
		return err
	}
	if !usecase.IsCommonJS(unit.Content) {
		return nil
	}

	processor, err := newProcessor(GetConfig(), GetRootDir())
	if err != nil {
		return err
	}
	if err := processor.Validate(); err != nil {
		return err
	}

	deps, err := processor.Dependencies(cmd.Context(), unit)
	if err != nil {
		return err
	}
	for _, dep := range deps {
		fmt.Fprintln(cmd.OutOrStdout(), dep)
	}
	return nil
}

func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
