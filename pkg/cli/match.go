package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/contractd/internal/matching"
	"github.com/getmockd/contractd/pkg/contract"
	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/value"
)

type matchOutput struct {
	Matched    bool                   `json:"matched"`
	Scenario   string                 `json:"scenario,omitempty"`
	Response   *value.JSONObjectValue `json:"response,omitempty"`
	Report     string                 `json:"report,omitempty"`
	NearMisses []matching.NearMiss    `json:"nearMisses,omitempty"`
}

func newMatchCommand(opts *globalOptions) *cobra.Command {
	var responsePath string
	cmd := &cobra.Command{
		Use:   "match <contract> <request.json>",
		Short: "Show which scenario answers a request",
		Long: `Match a concrete request against the contract and print the response
the stub would send. With --response, check instead that the request and
response pair is a valid stub expectation for some scenario.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.loadFeature(args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			req, err := contract.ParseHTTPRequest(data)
			if err != nil {
				return err
			}

			var out matchOutput
			if responsePath != "" {
				out, err = matchExpectation(f, req, responsePath)
			} else {
				out = lookup(f, req)
			}
			if err != nil {
				return err
			}

			if err := opts.printer(cmd).Result(out, func(w io.Writer) { printMatch(w, out) }); err != nil {
				return err
			}
			if !out.Matched {
				return failed()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&responsePath, "response", "", "response file; validates the pair as a stub expectation")
	return cmd
}

func lookup(f *contract.Feature, req contract.HTTPRequest) matchOutput {
	stub, err := f.LookupResponse(req)
	if err == nil {
		return matchOutput{Matched: true, Scenario: stub.Scenario.TestDescription(), Response: contract.ResponseDocument(stub.Response)}
	}
	out := matchOutput{Report: result.ToFailure(err).Report()}
	var nm *contract.NoMatchError
	if errors.As(err, &nm) {
		out.Report = nm.Failures.Report()
		out.NearMisses = nm.NearMisses
		if out.Report == "" {
			out.Report = nm.Error()
		}
	}
	return out
}

func matchExpectation(f *contract.Feature, req contract.HTTPRequest, responsePath string) (matchOutput, error) {
	data, err := os.ReadFile(responsePath)
	if err != nil {
		return matchOutput{}, err
	}
	resp, err := contract.ParseHTTPResponse(data)
	if err != nil {
		return matchOutput{}, err
	}
	s, err := f.MatchingStub(req, resp)
	if err != nil {
		return matchOutput{Report: result.ToFailure(err).Report()}, nil
	}
	return matchOutput{Matched: true, Scenario: s.TestDescription()}, nil
}

func printMatch(w io.Writer, out matchOutput) {
	if out.Matched {
		fmt.Fprintf(w, "Matched %s\n", out.Scenario)
		if out.Response != nil {
			fmt.Fprintln(w, out.Response.DisplayableValue())
		}
		return
	}
	fmt.Fprintln(w, "No scenario matched")
	if out.Report != "" {
		fmt.Fprintln(w, out.Report)
	}
	for _, nm := range out.NearMisses {
		fmt.Fprintf(w, "Closest: %s (%d%%): %s\n", nm.Candidate, nm.MatchPercentage, nm.Reason)
	}
}
