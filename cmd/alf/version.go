package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/alf"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of alf",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "alf version %s\n", strings.TrimSpace(alf.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
