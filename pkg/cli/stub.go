package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/contractd/pkg/cli/internal/ports"
	"github.com/getmockd/contractd/pkg/contract"
	"github.com/getmockd/contractd/pkg/httputil"
	"github.com/getmockd/contractd/pkg/logging"
	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/stateful"
	"github.com/getmockd/contractd/pkg/util"
)

type stubOptions struct {
	host      string
	port      int
	stateful  bool
	idKey     string
	strict    bool
	delay     time.Duration
	statePath string
	examples  []string

	metrics *stateful.MetricsObserver
}

func newStubCommand(opts *globalOptions) *cobra.Command {
	so := &stubOptions{}
	cmd := &cobra.Command{
		Use:   "stub <contract>",
		Short: "Serve a stub that answers the way the contract says",
		Long: `Start an HTTP server for the contract. Example files found with --examples
(or in the configured examples directories) become expectations that are
answered first; other requests get a response generated from the matching
scenario. With --stateful, POST/GET/PATCH/DELETE on a resource keep what was
created in memory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.loadFeature(args[0])
			if err != nil {
				return err
			}
			srv, err := opts.newStubServer(cmd, f, so)
			if err != nil {
				return err
			}
			if err := ports.Check(so.host, so.port); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			err = serveUntil(ctx, cmd, net.JoinHostPort(so.host, strconv.Itoa(so.port)), srv, opts)
			if so.metrics != nil {
				snap := so.metrics.Snapshot()
				opts.logger.Info("stateful operations", "total", snap.TotalOperations(), "errors", snap.Errors())
			}
			return err
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&so.host, "host", "localhost", "address to listen on")
	fl.IntVarP(&so.port, "port", "p", 9000, "port to listen on")
	fl.BoolVar(&so.stateful, "stateful", false, "keep created resources in memory")
	fl.StringVar(&so.idKey, "id-key", stateful.DefaultIDKey, "body field that identifies a resource (with --stateful)")
	fl.BoolVar(&so.strict, "strict", false, "refuse requests that match no expectation")
	fl.DurationVar(&so.delay, "delay", 0, "delay before every response")
	fl.StringVar(&so.statePath, "state-path", httputil.DefaultStatePath, "path that accepts server state; empty disables it")
	fl.StringSliceVar(&so.examples, "examples", nil, "glob of example files loaded as expectations (repeatable)")
	return cmd
}

// newStubServer builds the stub for f from flags, falling back to the
// configuration for what the flags leave unset.
func (o *globalOptions) newStubServer(cmd *cobra.Command, f *contract.Feature, so *stubOptions) (*httputil.StubServer, error) {
	delay := so.delay
	if !cmd.Flags().Changed("delay") && o.cfg.Stub.DelayInMs > 0 {
		delay = time.Duration(o.cfg.Stub.DelayInMs) * time.Millisecond
	}
	strict := so.strict || o.cfg.Stub.Strict

	stubOpts := []httputil.StubOption{
		httputil.WithStrict(strict),
		httputil.WithDelay(delay),
		httputil.WithStatePath(so.statePath),
		httputil.WithStubLogger(o.logger),
	}
	if so.stateful {
		so.metrics = stateful.NewMetricsObserver()
		st := stateful.NewStub(f, stateful.NewStubCache(),
			stateful.WithIDKey(so.idKey),
			stateful.WithColumnsParam(o.cfg.AttributeSelectionPattern.QueryParamKey),
			stateful.WithDefaultFields(o.cfg.AttributeSelectionPattern.DefaultFields...),
			stateful.WithLogger(o.logger),
			stateful.WithObserver(so.metrics),
		)
		stubOpts = append(stubOpts, httputil.WithFallback(st.Handle))
	}
	srv := httputil.NewStubServer(f, stubOpts...)

	globs := so.examples
	if len(globs) == 0 {
		for _, dir := range o.cfg.Examples {
			if o.configPath != "" {
				dir = util.ResolvePath(o.configPath, dir)
			}
			globs = append(globs, filepath.ToSlash(filepath.Join(dir, "**", "*.json")))
		}
	}
	files, err := expandGlobs(globs)
	if err != nil {
		return nil, err
	}
	printer := o.printer(cmd)
	for _, file := range files {
		req, resp, err := readExample(file)
		if err == nil {
			_, err = srv.AddExpectation(req, resp)
		}
		if err != nil {
			printer.Warn("skipping example %s:\n%s", file, indent(result.ToFailure(err).Report()))
			continue
		}
		o.logger.Info("loaded expectation", "file", file, "method", req.Method, "path", req.Path)
	}
	return srv, nil
}

// serveUntil serves h on addr until ctx is done, then shuts down.
func serveUntil(ctx context.Context, cmd *cobra.Command, addr string, h http.Handler, opts *globalOptions) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	opts.logger.Info("stub listening", "addr", addr)
	fmt.Fprintf(cmd.ErrOrStderr(), "Stub server listening on http://%s\n", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		opts.logger.Warn("stub shutdown", logging.ErrorAttrs(err)...)
		return err
	}
	opts.logger.Info("stub stopped")
	return nil
}
