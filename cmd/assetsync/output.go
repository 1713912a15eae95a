package main

import (
	"encoding/json"
	"time"

	"github.com/acksell/assetsync/asset"
	"github.com/acksell/assetsync/ingest"

	"gopkg.in/yaml.v3"
)

func (a *app) print(v any) error {
	if a.output == "yaml" {
		enc := yaml.NewEncoder(a.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type storedView struct {
	Asset asset.Asset `json:"asset" yaml:"asset"`
	ETag  asset.ETag  `json:"etag" yaml:"etag"`
}

type resultView struct {
	Asset     string       `json:"asset" yaml:"asset"`
	EventTime time.Time    `json:"eventTime" yaml:"eventTime"`
	Outcome   string       `json:"outcome" yaml:"outcome"`
	Stored    *asset.Asset `json:"stored,omitempty" yaml:"stored,omitempty"`
}

type runView struct {
	Results []resultView   `json:"results" yaml:"results"`
	Summary ingest.Summary `json:"summary" yaml:"summary"`
}

func newResultView(r ingest.Result) resultView {
	return resultView{
		Asset:     r.Observation.Asset().Key().String(),
		EventTime: r.Observation.EventTime,
		Outcome:   r.Outcome.String(),
		Stored:    r.Stored,
	}
}
