package main

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	"github.com/getmockd/contractd/pkg/contract"
	"github.com/getmockd/contractd/pkg/httputil"
	"github.com/getmockd/contractd/pkg/pattern"
)

// TestMain lets scripts invoke the binary in-process as "contractd".
func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"contractd": func() { os.Exit(run()) },
	})
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir:   "testdata",
		Setup: startService,
	})
}

// startService serves service.json from the script's archive, when there
// is one, and exposes its address as SERVICE_URL.
func startService(env *testscript.Env) error {
	path := filepath.Join(env.WorkDir, "service.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	f, err := contract.ParseFeature(path, data, pattern.DefaultStrategies())
	if err != nil {
		return err
	}
	srv := httptest.NewServer(httputil.FeatureHandler(f, nil))
	env.Defer(srv.Close)
	env.Setenv("SERVICE_URL", srv.URL)
	return nil
}
