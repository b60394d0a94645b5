package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/formwork"
	"github.com/aretw0/formwork/internal/compiler"
	"github.com/aretw0/formwork/internal/presentation/tui"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <file>",
	Short: "Evaluate conditional logic and validate a response set",
	Long: `Loads a template definition and a response file (YAML or JSON, answers keyed by
question id), prints the effective state of every question and validates the answers.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		responsesPath, _ := cmd.Flags().GetString("responses")

		draft, err := compiler.NewParser().ParseFile(args[0])
		if err != nil {
			return err
		}
		responses, err := readResponses(responsesPath)
		if err != nil {
			return err
		}

		engine := formwork.New(formwork.WithLogger(logger))
		t, err := engine.CreateTemplate(ctx, draft)
		if err != nil {
			return err
		}
		sub, err := engine.Validate(ctx, t.ID, responses)
		if err != nil {
			return err
		}

		if err := tui.Print(os.Stdout, tui.StatesMarkdown(t.Questions, sub.States)); err != nil {
			return err
		}
		if !sub.Result.Valid {
			for _, e := range sub.Result.Errors {
				fmt.Fprintf(os.Stderr, "  ✗ %s\n", e)
			}
			return fmt.Errorf("%d answer(s) failed validation", len(sub.Result.Errors))
		}
		fmt.Println("Responses are valid")
		return nil
	},
}

// readResponses loads answers from path. YAML is a superset of JSON, so one decoder
// serves both.
func readResponses(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read responses: %w", err)
	}
	responses := map[string]any{}
	if err := yaml.Unmarshal(data, &responses); err != nil {
		return nil, fmt.Errorf("parse responses %s: %w", path, err)
	}
	return responses, nil
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringP("responses", "r", "", "YAML or JSON file with answers keyed by question id")
}
