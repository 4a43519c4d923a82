package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/contractd/pkg/cli/internal/output"
	"github.com/getmockd/contractd/pkg/config"
	"github.com/getmockd/contractd/pkg/logging"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// exitError carries a specific exit code. A nil err exits silently.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// failed reports contract failures that have already been printed.
func failed() error { return &exitError{code: ExitFailure} }

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath  string
	overlayPath string
	filter      string
	logLevel    string
	logFormat   string
	logFile     string
	jsonOutput  bool

	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error
}

func (o *globalOptions) printer(cmd *cobra.Command) output.Printer {
	return output.Printer{Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr(), JSON: o.jsonOutput}
}

// setupLogger logs to stderr and, with --log-file, to the file as JSON.
func (o *globalOptions) setupLogger(cmd *cobra.Command) error {
	level := logging.ParseLevel(o.logLevel)
	stderr := logging.NewHandler(logging.Config{
		Level:  level,
		Format: logging.ParseFormat(o.logFormat),
		Output: cmd.ErrOrStderr(),
	})
	if o.logFile == "" {
		o.logger = slog.New(stderr)
		return nil
	}
	f, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	o.closeLog = f.Close
	file := logging.NewHandler(logging.Config{Level: level, Format: logging.FormatJSON, Output: f})
	o.logger = slog.New(logging.NewMultiHandler(stderr, file))
	return nil
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "contractd",
		Short: "contractd tests services against API contracts and stubs them",
		Long: `contractd reads API contracts written in pattern notation, generates
contract tests from them, checks new contract versions for backward
compatibility, and serves stubs that answer the way the contract says.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.setupLogger(cmd); err != nil {
				return &exitError{code: ExitUsage, err: err}
			}
			if opts.configPath != "" {
				cfg, err := config.LoadFromFile(opts.configPath)
				if err != nil {
					return &exitError{code: ExitUsage, err: err}
				}
				opts.cfg = cfg
			} else {
				opts.cfg = config.LoadOrDefault("", opts.logger)
			}
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if opts.closeLog != nil {
				return opts.closeLog()
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "configuration file (default: contractd.yaml if present)")
	pf.StringVar(&opts.overlayPath, "overlay", "", "overlay file applied to every contract before it is read")
	pf.StringVar(&opts.filter, "filter", "", "scenario filter, e.g. METHOD=GET;PATH=/pets/**")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	pf.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	pf.StringVar(&opts.logFile, "log-file", "", "also write JSON logs to this file")
	pf.BoolVar(&opts.jsonOutput, "json", false, "write command results as JSON")

	root.AddCommand(
		newGenerateCommand(opts),
		newMatchCommand(opts),
		newTestCommand(opts),
		newCompatCommand(opts),
		newExamplesCommand(opts),
		newStubCommand(opts),
		newVersionCommand(opts),
	)
	return root
}

// Run executes the CLI with args and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(stderr, "Error:", ee.err)
		}
		return ee.code
	}
	fmt.Fprintln(stderr, "Error:", err)
	return ExitFailure
}
