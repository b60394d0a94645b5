package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/formwork/pkg/adapters/loam"
)

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Create templates from a directory of definitions",
	Long: `Reads every Markdown, YAML or JSON definition under dir and stores each one as
version 1 of a new template in the configured store.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		activate, _ := cmd.Flags().GetBool("activate")

		catalog, err := loam.Open(args[0])
		if err != nil {
			return err
		}
		drafts, err := catalog.List(ctx)
		if err != nil {
			return err
		}

		s, err := buildStack(cfg, logger)
		if err != nil {
			return err
		}
		defer s.Close()

		for _, draft := range drafts {
			t, err := s.engine.CreateTemplate(ctx, draft)
			if err != nil {
				return fmt.Errorf("import %s: %w", draft.Name, err)
			}
			if activate {
				if t, err = s.engine.Activate(ctx, t.ID); err != nil {
					return fmt.Errorf("activate %s: %w", draft.Name, err)
				}
			}
			logger.Info("imported template", "name", t.Name, "id", t.ID, "active", t.IsActive)
		}
		fmt.Printf("Imported %d template(s)\n", len(drafts))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().Bool("activate", false, "Activate each imported template")
}
