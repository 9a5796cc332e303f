// Package pipeline wires feature derivation, risk classification and
// episode extraction into one deterministic batch pass, plus an
// incremental tracker that reproduces the batch results one observation
// at a time. The pipeline owns no I/O; callers feed it an ascending,
// deduplicated observation series and take the labeled table and episode
// lists away for storage or reporting.
package pipeline

import (
	"go.uber.org/zap"

	"github.com/toro68/snofokk-analyse-sub002/internal/derive"
	"github.com/toro68/snofokk-analyse-sub002/internal/episode"
	"github.com/toro68/snofokk-analyse-sub002/internal/risk"
	"github.com/toro68/snofokk-analyse-sub002/internal/types"
	"github.com/toro68/snofokk-analyse-sub002/pkg/config"
)

// Result is the full output of one batch pass: the per-timestep labeled
// table and the contiguous-mode episode list per domain. An empty input
// series produces an empty (non-error) Result.
type Result struct {
	Rows     []types.LabeledObservation
	Episodes map[types.Domain][]types.Episode
}

// Analyzer runs the batch pipeline for one configuration.
type Analyzer struct {
	cfg        config.Config
	classifier *risk.Classifier
	logger     *zap.SugaredLogger
}

// New creates an Analyzer after validating the configuration.
func New(cfg config.Config, logger *zap.SugaredLogger) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{
		cfg:        cfg,
		classifier: risk.NewClassifier(cfg),
		logger:     logger,
	}, nil
}

// Run executes derive → classify → aggregate over the series. The series
// must be strictly ascending with unique timestamps; a violation aborts
// the run with an OrderingError rather than re-sorting, so upstream
// collaborator bugs surface instead of being masked.
func (a *Analyzer) Run(series []types.Observation) (*Result, error) {
	res := &Result{Episodes: make(map[types.Domain][]types.Episode)}
	if len(series) == 0 {
		return res, nil
	}

	derived, err := derive.DeriveAll(a.cfg.Derive, series)
	if err != nil {
		return nil, err
	}

	res.Rows = make([]types.LabeledObservation, len(derived))
	for i := range derived {
		drift, slip := a.classifier.Classify(&derived[i])
		res.Rows[i] = types.LabeledObservation{
			Derived:   derived[i],
			Snowdrift: drift,
			Slippery:  slip,
		}
	}

	for _, domain := range []types.Domain{types.DomainSnowdrift, types.DomainSlippery} {
		eps := episode.ExtractContiguous(res.Rows, domain, a.cfg.Episode)
		res.Episodes[domain] = eps
		a.logEpisodes(domain, eps)
	}

	return res, nil
}

// Cluster applies the gap-tolerant clustering mode to an already labeled
// series, for retrospective grouping of sparse flagged timestamps.
func (a *Analyzer) Cluster(rows []types.LabeledObservation, domain types.Domain) []types.Episode {
	eps := episode.ClusterFlagged(rows, domain, a.cfg.Episode)
	a.logEpisodes(domain, eps)
	return eps
}

func (a *Analyzer) logEpisodes(domain types.Domain, eps []types.Episode) {
	if a.logger == nil {
		return
	}
	for _, ep := range eps {
		a.logger.Debugf("  %s %s episode: %d steps (%s to %s)",
			domain, ep.Level, ep.Steps,
			ep.Start.Format("01/02 15:04"),
			ep.End.Format("01/02 15:04"))
	}
	a.logger.Debugf("%s: %d episodes", domain, len(eps))
}
