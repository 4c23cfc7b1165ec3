package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "formschema %s\n", version)
			fmt.Fprintf(w, "  Go:     %s\n", runtime.Version())
			fmt.Fprintf(w, "  Commit: %s\n", gitCommit)
			fmt.Fprintf(w, "  Built:  %s\n", buildTime)
		},
	}
}
