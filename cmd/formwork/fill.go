package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/formwork"
	"github.com/aretw0/formwork/internal/compiler"
	"github.com/aretw0/formwork/internal/presentation/tui"
	"github.com/aretw0/formwork/pkg/runner"
)

var fillCmd = &cobra.Command{
	Use:   "fill <file>",
	Short: "Answer a template interactively",
	Long: `Asks the visible questions of a template definition one at a time, re-evaluating
the conditional logic after every answer, and prints the collected responses as YAML.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonMode, _ := cmd.Flags().GetBool("json")
		outPath, _ := cmd.Flags().GetString("out")
		prefillPath, _ := cmd.Flags().GetString("responses")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		draft, err := compiler.NewParser().ParseFile(args[0])
		if err != nil {
			return err
		}
		prefilled, err := readResponses(prefillPath)
		if err != nil {
			return err
		}

		engine := formwork.New(formwork.WithLogger(logger))
		t, err := engine.CreateTemplate(ctx, draft)
		if err != nil {
			return err
		}

		var handler runner.IOHandler
		if jsonMode {
			handler = runner.NewJSONHandler(os.Stdin, os.Stdout)
		} else {
			text := runner.NewTextHandler(os.Stdin, os.Stderr)
			if tui.IsTerminal(os.Stderr) {
				text.Renderer = tui.NewRenderer()
			}
			handler = text
		}

		r := runner.NewRunner(
			runner.WithHandler(handler),
			runner.WithLogger(logger),
			runner.WithPredicates(engine.Predicates()),
		)
		answers, err := r.Fill(ctx, t, prefilled)
		if err != nil {
			return fmt.Errorf("fill interrupted after %d answer(s): %w", len(answers), err)
		}

		sub, err := engine.Validate(ctx, t.ID, answers)
		if err != nil {
			return err
		}
		if err := sub.Result.Err(); err != nil {
			return err
		}

		data, err := yaml.Marshal(answers)
		if err != nil {
			return err
		}
		if outPath != "" {
			return os.WriteFile(outPath, data, 0o644)
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(fillCmd)
	fillCmd.Flags().Bool("json", false, "Exchange prompts and answers as JSON Lines on Stdin/Stdout")
	fillCmd.Flags().StringP("out", "o", "", "Write the responses to a file instead of Stdout")
	fillCmd.Flags().StringP("responses", "r", "", "YAML or JSON file with answers to pre-fill")
}
