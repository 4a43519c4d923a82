package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/getmockd/contractd/pkg/cli/internal/flags"
	"github.com/getmockd/contractd/pkg/cli/internal/parse"
	"github.com/getmockd/contractd/pkg/httputil"
	"github.com/getmockd/contractd/pkg/result"
)

type testOutput struct {
	Tests     int      `json:"tests"`
	Successes int      `json:"successes"`
	Failures  int      `json:"failures"`
	Report    string   `json:"report,omitempty"`
	Failed    []string `json:"failed,omitempty"`
}

func newTestCommand(opts *globalOptions) *cobra.Command {
	var (
		baseURL   string
		statePath string
		headers   flags.StringSlice
		variables flags.StringSlice
	)
	cmd := &cobra.Command{
		Use:   "test <contract>",
		Short: "Run the contract's tests against a live service",
		Long: `Generate a request for every scenario, send it to the service at
--base-url, and check the response against the contract. Variables bound
by earlier scenarios are available to later ones.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if baseURL == "" {
				return &exitError{code: ExitUsage, err: fmt.Errorf("--base-url is required")}
			}
			hdrs, err := parse.Pairs(headers)
			if err != nil {
				return &exitError{code: ExitUsage, err: fmt.Errorf("invalid --header: %w", err)}
			}
			vars, err := parse.Pairs(variables)
			if err != nil {
				return &exitError{code: ExitUsage, err: fmt.Errorf("invalid --var: %w", err)}
			}

			f, err := opts.loadFeature(args[0])
			if err != nil {
				return err
			}

			ex := httputil.NewExecutor(baseURL)
			ex.Headers = hdrs
			ex.Logger = opts.logger
			if statePath != "" {
				ex.StatePath = statePath
			}

			results := f.ExecuteTests(cmd.Context(), ex, vars)
			out := summarize(results)
			err = opts.printer(cmd).Result(out, func(w io.Writer) {
				if out.Report != "" {
					fmt.Fprintln(w, out.Report)
					fmt.Fprintln(w)
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
	fl := cmd.Flags()
	fl.StringVar(&baseURL, "base-url", "", "URL of the service under test")
	fl.StringVar(&statePath, "state-path", "", "path the expected server state is posted to (default "+httputil.DefaultStatePath+")")
	fl.Var(&headers, "header", "header added to every request, as key=value (repeatable)")
	fl.Var(&variables, "var", "initial binding variable, as key=value (repeatable)")
	return cmd
}

func summarize(results result.Results) testOutput {
	out := testOutput{
		Tests:     len(results.Items),
		Successes: results.SuccessCount(),
		Failures:  results.FailureCount(),
	}
	if !results.Success() {
		out.Report = results.Report()
		for _, f := range results.Failures() {
			if f.Scenario != nil {
				out.Failed = append(out.Failed, f.Scenario.TestDescription())
			}
		}
	}
	return out
}
