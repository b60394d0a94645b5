package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/formwork/internal/compiler"
	"github.com/aretw0/formwork/internal/presentation/tui"
	"github.com/aretw0/formwork/pkg/domain"
)

var diffCmd = &cobra.Command{
	Use:   "diff <old> <new>",
	Short: "Compare two template definitions",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		parser := compiler.NewParser()
		oldT, err := parser.ParseFile(args[0])
		if err != nil {
			return err
		}
		newT, err := parser.ParseFile(args[1])
		if err != nil {
			return err
		}
		oldT.Version, newT.Version = 1, 2

		d := domain.Diff(oldT, newT)
		if d.IsEmpty() {
			fmt.Println("No changes")
			return nil
		}
		return tui.Print(os.Stdout, tui.DiffMarkdown(d))
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
