package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/formwork"
	"github.com/aretw0/formwork/internal/compiler"
	"github.com/aretw0/formwork/internal/presentation/graph"
	"github.com/aretw0/formwork/pkg/domain"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <file>",
	Short: "Export the conditional logic graph",
	Long: `Outputs a Mermaid diagram (graph TD) of the questions and the rules between them.
With --responses, nodes are styled by their effective state.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		responsesPath, _ := cmd.Flags().GetString("responses")

		draft, err := compiler.NewParser().ParseFile(args[0])
		if err != nil {
			return err
		}

		var states domain.States
		if responsesPath != "" {
			responses, err := readResponses(responsesPath)
			if err != nil {
				return err
			}
			ctx := context.Background()
			engine := formwork.New(formwork.WithLogger(logger))
			t, err := engine.CreateTemplate(ctx, draft)
			if err != nil {
				return err
			}
			if states, err = engine.Evaluate(ctx, t.ID, responses); err != nil {
				return err
			}
		}

		fmt.Print(graph.GenerateMermaid(draft.Questions, states))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("responses", "r", "", "YAML or JSON file with answers keyed by question id")
}
