package grouping

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the fixed thresholds. Stop, limit and tick-offset buckets are
// always derived from the batch percentiles and have no fixed threshold here.
type Config struct {
	LowRiskReward  float64 `json:"lowRiskRewardThreshold" yaml:"lowRiskRewardThreshold"`
	HighRiskReward float64 `json:"highRiskRewardThreshold" yaml:"highRiskRewardThreshold"`
	ShortDuration  float64 `json:"shortDurationThreshold" yaml:"shortDurationThreshold"` // minutes
	LongDuration   float64 `json:"longDurationThreshold" yaml:"longDurationThreshold"`   // minutes
}

// DefaultConfig returns the documented defaults
func DefaultConfig() Config {
	return Config{
		LowRiskReward:  1,
		HighRiskReward: 2,
		ShortDuration:  240,
		LongDuration:   1440,
	}
}

// Overrides is the optional configuration object. Omitted fields keep the
// default. TightStop and WideStop are accepted for older config files and ignored.
type Overrides struct {
	LowRiskReward  *float64 `json:"lowRiskRewardThreshold,omitempty" yaml:"lowRiskRewardThreshold,omitempty"`
	HighRiskReward *float64 `json:"highRiskRewardThreshold,omitempty" yaml:"highRiskRewardThreshold,omitempty"`
	TightStop      *float64 `json:"tightStopThreshold,omitempty" yaml:"tightStopThreshold,omitempty"`
	WideStop       *float64 `json:"wideStopThreshold,omitempty" yaml:"wideStopThreshold,omitempty"`
	ShortDuration  *float64 `json:"shortDurationThreshold,omitempty" yaml:"shortDurationThreshold,omitempty"`
	LongDuration   *float64 `json:"longDurationThreshold,omitempty" yaml:"longDurationThreshold,omitempty"`
}

// Apply returns a copy of c with every set override applied
func (c Config) Apply(o Overrides) Config {
	if o.LowRiskReward != nil {
		c.LowRiskReward = *o.LowRiskReward
	}
	if o.HighRiskReward != nil {
		c.HighRiskReward = *o.HighRiskReward
	}
	if o.ShortDuration != nil {
		c.ShortDuration = *o.ShortDuration
	}
	if o.LongDuration != nil {
		c.LongDuration = *o.LongDuration
	}
	return c
}

// Validate rejects inverted threshold pairs
func (c Config) Validate() error {
	if c.LowRiskReward > c.HighRiskReward {
		return fmt.Errorf("low risk/reward threshold %.2f above high threshold %.2f", c.LowRiskReward, c.HighRiskReward)
	}
	if c.ShortDuration > c.LongDuration {
		return fmt.Errorf("short duration threshold %.0f above long threshold %.0f", c.ShortDuration, c.LongDuration)
	}
	return nil
}

// LoadOverrides reads a YAML overrides file
func LoadOverrides(path string) (Overrides, error) {
	var o Overrides
	b, err := os.ReadFile(path)
	if err != nil {
		return o, fmt.Errorf("read grouping config: %w", err)
	}
	if err := yaml.Unmarshal(b, &o); err != nil {
		return o, fmt.Errorf("parse grouping config %s: %w", path, err)
	}
	return o, nil
}
