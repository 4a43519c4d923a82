package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/getmockd/contractd/pkg/contract"
	"github.com/getmockd/contractd/pkg/filter"
	"github.com/getmockd/contractd/pkg/overlay"
)

// loadFeature reads the contract at path with the overlay, configuration
// and filters of opts applied.
func (o *globalOptions) loadFeature(path string) (*contract.Feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading contract: %w", err)
	}

	if o.overlayPath != "" {
		data, err = o.applyOverlay(path, data)
		if err != nil {
			return nil, err
		}
	}

	f, err := contract.ParseFeature(path, data, o.cfg.Strategies())
	if err != nil {
		return nil, err
	}

	if o.cfg.IgnoreInlineExamples {
		f = f.WithoutExamples()
	}

	cfgFilter, err := o.cfg.ScenarioFilter()
	if err != nil {
		return nil, err
	}
	flagFilter, err := filter.Parse(o.filter)
	if err != nil {
		return nil, fmt.Errorf("invalid --filter: %w", err)
	}
	f = f.Filter(cfgFilter).Filter(flagFilter)
	o.logger.Debug("loaded contract", "path", path, "scenarios", len(f.Scenarios))
	return f, nil
}

func (o *globalOptions) applyOverlay(path string, data []byte) ([]byte, error) {
	ov, err := overlay.ParseFile(o.overlayPath)
	if err != nil {
		return nil, err
	}
	if ov.IsEmpty() {
		return data, nil
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s is not JSON: %w", path, err)
	}
	res, err := overlay.Apply(doc, ov)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		o.logger.Warn("overlay action skipped", "overlay", o.overlayPath, "warning", w.String())
	}
	return json.Marshal(res.Document)
}
