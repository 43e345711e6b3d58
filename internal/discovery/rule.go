package discovery

import (
	"strconv"
	"strings"
	"time"

	"github.com/tsm-sh/tsm/internal/config"
	"github.com/tsm-sh/tsm/internal/errors"
	"github.com/tsm-sh/tsm/internal/scaling"
)

// Scaling label keys. Label values win over per-service config
// overrides, which win over the configured defaults.
const (
	scalingLabelPrefix = "tsm.scaling."

	labelScalingEnabled = scalingLabelPrefix + "enabled"
	labelMetric         = scalingLabelPrefix + "metric"
	labelMinReplicas    = scalingLabelPrefix + "min_replicas"
	labelMaxReplicas    = scalingLabelPrefix + "max_replicas"
	labelUpThreshold    = scalingLabelPrefix + "scale_up_threshold"
	labelDownThreshold  = scalingLabelPrefix + "scale_down_threshold"
	labelStep           = scalingLabelPrefix + "step"
	labelCooldown       = scalingLabelPrefix + "cooldown"
	labelPriority       = scalingLabelPrefix + "priority"
)

// resolveRule merges tsm.scaling.* labels over the service's effective
// config rule and validates the result. A nil rule with nil error means
// scaling is disabled for the service; a non-nil error means the labels
// are malformed and the service is unscalable until they are fixed.
func (s *Scanner) resolveRule(name string, labels map[string]string) (*scaling.Rule, error) {
	eff := s.cfg.Scaling.Rule(name)

	enabled := eff.Enabled
	if v, ok := labels[labelScalingEnabled]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.Wrapf(err, "label %s=%q", labelScalingEnabled, v)
		}
		enabled = b
	}
	if !enabled {
		return nil, nil
	}

	rule := scaling.Rule{
		Metric:   eff.Metric,
		High:     eff.High,
		Low:      eff.Low,
		Min:      eff.Min,
		Max:      eff.Max,
		Step:     eff.Step,
		Cooldown: eff.Cooldown,
		Priority: eff.Priority,
	}

	for _, key := range sortedKeys(labels) {
		if !strings.HasPrefix(key, scalingLabelPrefix) {
			continue
		}
		value := labels[key]
		var err error
		switch key {
		case labelScalingEnabled:
			// handled above
		case labelMetric:
			rule.Metric = value
		case labelMinReplicas:
			rule.Min, err = strconv.Atoi(value)
		case labelMaxReplicas:
			rule.Max, err = strconv.Atoi(value)
		case labelUpThreshold:
			rule.High, err = strconv.ParseFloat(value, 64)
		case labelDownThreshold:
			rule.Low, err = strconv.ParseFloat(value, 64)
		case labelStep:
			rule.Step, err = strconv.Atoi(value)
		case labelCooldown:
			var secs int
			secs, err = strconv.Atoi(value)
			rule.Cooldown = time.Duration(secs) * time.Second
		case labelPriority:
			if !config.IsValidPriority(value) {
				return nil, errors.Wrapf(errors.ErrInvalidInput, "label %s=%q, valid priorities are %v", key, value, config.ValidPriorities())
			}
			rule.Priority = value
		default:
			s.logger.Warn("unknown scaling label ignored", "service", name, "label", key)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "label %s=%q", key, value)
		}
	}

	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if _, ok := s.cfg.Prometheus.Queries[rule.Metric]; !ok {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "metric %q has no query template", rule.Metric)
	}
	return &rule, nil
}
