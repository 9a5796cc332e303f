// Package risk classifies derived observations into per-timestep hazard
// levels for the snowdrift and slippery-road domains. Each domain is an
// ordered cascade of guard→action rules evaluated first-match-wins; every
// matched rule attaches rationale strings that survive into episode
// output for audit.
package risk

import (
	"github.com/toro68/snofokk-analyse-sub002/internal/types"
	"github.com/toro68/snofokk-analyse-sub002/pkg/config"
)

// Rule is one step of a cascade. Match reports whether the rule fires for
// the timestep and, if so, which rationale strings it contributes.
// Rationale strings are kept stable across timesteps (they carry
// thresholds, not observed values) so that episode-level deduplication
// collapses them.
type Rule struct {
	Name  string
	Level types.RiskLevel
	Match func(d *types.DerivedObservation) (bool, []string)
}

// Cascade is an ordered rule list for one domain. The final rule is a
// catch-all that always fires.
type Cascade struct {
	Domain types.Domain
	Rules  []Rule
}

// Classify evaluates the cascade top-down and returns the label of the
// first matching rule.
func (c *Cascade) Classify(d *types.DerivedObservation) types.RiskLabel {
	for _, r := range c.Rules {
		if ok, why := r.Match(d); ok {
			return types.RiskLabel{Level: r.Level, Rationale: why}
		}
	}
	// Cascades always end in a catch-all; reaching here means a cascade
	// was constructed without one.
	return types.RiskLabel{Level: types.LevelUnknown}
}

// Classifier evaluates both domain cascades for a timestep.
type Classifier struct {
	snowdrift Cascade
	slippery  Cascade
}

// NewClassifier builds both cascades from the given configuration.
func NewClassifier(cfg config.Config) *Classifier {
	return &Classifier{
		snowdrift: NewSnowdriftCascade(cfg.Snowdrift),
		slippery:  NewSlipperyCascade(cfg.Slippery),
	}
}

// Classify returns the (snowdrift, slippery-road) labels for a timestep.
func (c *Classifier) Classify(d *types.DerivedObservation) (types.RiskLabel, types.RiskLabel) {
	return c.snowdrift.Classify(d), c.slippery.Classify(d)
}

// Snowdrift returns the snowdrift cascade.
func (c *Classifier) Snowdrift() *Cascade { return &c.snowdrift }

// Slippery returns the slippery-road cascade.
func (c *Classifier) Slippery() *Cascade { return &c.slippery }
