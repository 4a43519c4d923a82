package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/getmockd/contractd/pkg/compat"
)

func newCompatCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "compat <older> <newer>",
		Short: "Check that a new contract version is backward compatible",
		Long: `Every request the older contract allows must still be accepted by the
newer one, and every response the newer one sends must still satisfy the
older one.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			older, err := opts.loadFeature(args[0])
			if err != nil {
				return err
			}
			newer, err := opts.loadFeature(args[1])
			if err != nil {
				return err
			}

			results := compat.Check(older, newer)
			out := summarize(results)
			err = opts.printer(cmd).Result(out, func(w io.Writer) {
				if results.Success() {
					fmt.Fprintln(w, "The newer contract is backward compatible")
				} else {
					fmt.Fprintln(w, out.Report)
					fmt.Fprintln(w)
					fmt.Fprintln(w, "The newer contract is not backward compatible")
				}
				fmt.Fprintln(w, results.Summary())
			})
			if err != nil {
				return err
			}
			if !results.Success() {
				return failed()
			}
			return nil
		},
	}
}
