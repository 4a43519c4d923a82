package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/getmockd/contractd/pkg/contract"
	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/value"
)

type generated struct {
	Scenario string                 `json:"scenario"`
	Request  *value.JSONObjectValue `json:"request,omitempty"`
	Response *value.JSONObjectValue `json:"response,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

func newGenerateCommand(opts *globalOptions) *cobra.Command {
	var withResponses bool
	cmd := &cobra.Command{
		Use:   "generate <contract>",
		Short: "Print a sample request for every scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.loadFeature(args[0])
			if err != nil {
				return err
			}

			var out []generated
			for _, s := range f.Scenarios {
				g := generated{Scenario: s.TestDescription()}
				req, err := s.GenerateHTTPRequest()
				if err != nil {
					g.Error = result.ToFailure(err).Report()
					out = append(out, g)
					continue
				}
				g.Request = contract.RequestDocument(req)
				if withResponses {
					resp, err := s.GenerateHTTPResponse(s.ServerState())
					if err != nil {
						g.Error = result.ToFailure(err).Report()
					} else {
						g.Response = contract.ResponseDocument(resp)
					}
				}
				out = append(out, g)
			}

			err = opts.printer(cmd).Result(out, func(w io.Writer) {
				for i, g := range out {
					if i > 0 {
						fmt.Fprintln(w)
					}
					fmt.Fprintln(w, g.Scenario)
					if g.Error != "" {
						fmt.Fprintln(w, g.Error)
						continue
					}
					fmt.Fprintln(w, g.Request.DisplayableValue())
					if g.Response != nil {
						fmt.Fprintln(w, g.Response.DisplayableValue())
					}
				}
			})
			if err != nil {
				return err
			}
			for _, g := range out {
				if g.Error != "" {
					return failed()
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withResponses, "responses", false, "also print the response each scenario generates")
	return cmd
}
