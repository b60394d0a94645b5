package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/formwork"
	"github.com/aretw0/formwork/internal/presentation/tui"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of formwork",
	Run: func(cmd *cobra.Command, args []string) {
		if tui.IsTerminal(os.Stdout) {
			tui.PrintBanner(os.Stdout)
		}
		fmt.Printf("formwork version %s\n", strings.TrimSpace(formwork.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
