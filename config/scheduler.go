package config

import (
	"fmt"

	"github.com/tmhire/pourplan/core/model"
)

// SchedulerConfig tunes the scheduling engine.
type SchedulerConfig struct {
	// PartialOverlapThresholdMinutes is the longest trailing overlap with
	// a prior commitment that only warns instead of disqualifying a
	// vehicle. The backend treats this boundary as policy, not fact.
	PartialOverlapThresholdMinutes float64 `json:"partial_overlap_threshold_minutes"`
	// DefaultPolicy is used when a generate call carries no policy.
	DefaultPolicy string `json:"default_policy"`
}

// SetDefaults applies sane defaults.
func (c *SchedulerConfig) SetDefaults() {
	if c.PartialOverlapThresholdMinutes == 0 {
		c.PartialOverlapThresholdMinutes = 60
	}
	if c.DefaultPolicy == "" {
		c.DefaultPolicy = model.PolicyZeroWait.String()
	}
}

// Validate checks mandatory fields.
func (c SchedulerConfig) Validate() error {
	if c.PartialOverlapThresholdMinutes < 0 {
		return fmt.Errorf("partial_overlap_threshold_minutes must be non-negative")
	}
	if _, err := model.ParsePolicy(c.DefaultPolicy); err != nil {
		return err
	}
	return nil
}
