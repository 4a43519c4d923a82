package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := map[string]string{
				"version":   Version,
				"commit":    Commit,
				"buildDate": BuildDate,
				"goVersion": runtime.Version(),
			}
			return opts.printer(cmd).Result(info, func(w io.Writer) {
				fmt.Fprintf(w, "contractd %s (commit %s, built %s, %s)\n", Version, Commit, BuildDate, runtime.Version())
			})
		},
	}
}
