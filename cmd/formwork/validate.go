package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/formwork/internal/compiler"
	"github.com/aretw0/formwork/internal/presentation/tui"
	"github.com/aretw0/formwork/internal/validator"
	"github.com/aretw0/formwork/pkg/registry"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a template definition for consistency",
	Long: `Parses a YAML or JSON template definition and reports every problem: duplicate or
missing ids, unsupported types, malformed rules, dangling triggers and cycles.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lenient, _ := cmd.Flags().GetBool("lenient")
		parser := compiler.NewParser()
		parser.Lenient = lenient

		t, err := parser.ParseFile(args[0])
		if err != nil {
			return err
		}

		report := validator.Lint(t, registry.NewPredicates())
		if len(report.Problems) > 0 {
			var sb strings.Builder
			fmt.Fprintf(&sb, "# %s\n\n", t.Name)
			for _, p := range report.Problems {
				fmt.Fprintf(&sb, "- %s\n", p)
			}
			if err := tui.Print(os.Stdout, sb.String()); err != nil {
				return err
			}
		}
		if err := report.Err(); err != nil {
			return err
		}
		fmt.Printf("%s is valid (%d questions)\n", t.Name, len(t.Questions))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("lenient", false, "Ignore unknown fields in the definition")
}
