package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/getmockd/contractd/pkg/contract"
	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/util"
	"github.com/getmockd/contractd/pkg/value"
)

type exampleOutcome struct {
	File     string `json:"file"`
	Valid    bool   `json:"valid"`
	Scenario string `json:"scenario,omitempty"`
	Report   string `json:"report,omitempty"`
}

func newExamplesCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "examples <contract> [glob...]",
		Short: "Validate example request/response files against the contract",
		Long: `Each example file is a JSON object with "request" and "response" members.
Files are found with the given globs (doublestar syntax, ** allowed) or,
without globs, under the examples directories of the configuration.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.loadFeature(args[0])
			if err != nil {
				return err
			}
			globs := args[1:]
			if len(globs) == 0 {
				for _, dir := range opts.cfg.Examples {
					if opts.configPath != "" {
						dir = util.ResolvePath(opts.configPath, dir)
					}
					globs = append(globs, filepath.ToSlash(filepath.Join(dir, "**", "*.json")))
				}
			}
			files, err := expandGlobs(globs)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return &exitError{code: ExitUsage, err: fmt.Errorf("no example files found")}
			}

			outcomes := make([]exampleOutcome, 0, len(files))
			allValid := true
			for _, file := range files {
				o := validateExample(f, file)
				allValid = allValid && o.Valid
				outcomes = append(outcomes, o)
			}

			err = opts.printer(cmd).Result(outcomes, func(w io.Writer) {
				for _, o := range outcomes {
					if o.Valid {
						fmt.Fprintf(w, "PASS %s (%s)\n", o.File, o.Scenario)
						continue
					}
					fmt.Fprintf(w, "FAIL %s\n%s\n", o.File, indent(o.Report))
				}
			})
			if err != nil {
				return err
			}
			if !allValid {
				return failed()
			}
			return nil
		},
	}
}

func expandGlobs(globs []string) ([]string, error) {
	var files []string
	for _, g := range globs {
		matches, err := doublestar.FilepathGlob(g)
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", g, err)
		}
		files = append(files, matches...)
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

func validateExample(f *contract.Feature, file string) exampleOutcome {
	o := exampleOutcome{File: file}
	req, resp, err := readExample(file)
	if err != nil {
		o.Report = err.Error()
		return o
	}
	s, err := f.MatchingStub(req, resp)
	if err != nil {
		o.Report = result.ToFailure(err).Report()
		return o
	}
	o.Valid = true
	o.Scenario = s.TestDescription()
	return o
}

func readExample(file string) (contract.HTTPRequest, contract.HTTPResponse, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return contract.HTTPRequest{}, contract.HTTPResponse{}, err
	}
	doc, err := value.ParseJSONObject(string(data))
	if err != nil {
		return contract.HTTPRequest{}, contract.HTTPResponse{}, fmt.Errorf("not a JSON object: %w", err)
	}
	rawReq, okReq := doc.Get("request")
	rawResp, okResp := doc.Get("response")
	if !okReq || !okResp {
		return contract.HTTPRequest{}, contract.HTTPResponse{}, fmt.Errorf("example needs both request and response")
	}
	req, err := contract.ParseHTTPRequest([]byte(rawReq.StringLiteral()))
	if err != nil {
		return contract.HTTPRequest{}, contract.HTTPResponse{}, err
	}
	resp, err := contract.ParseHTTPResponse([]byte(rawResp.StringLiteral()))
	if err != nil {
		return contract.HTTPRequest{}, contract.HTTPResponse{}, err
	}
	return req, resp, nil
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}
