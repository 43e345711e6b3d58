package metrics

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"

	"github.com/tsm-sh/tsm/internal/errors"
	"github.com/tsm-sh/tsm/internal/logging"
)

// ServicePlaceholder is the token in a query template that is replaced
// with the service name at query time.
const ServicePlaceholder = "{service}"

// PrometheusSource resolves probes by executing PromQL query templates
// against a Prometheus server. Each metric name maps to one template;
// every occurrence of "{service}" in the template is substituted with
// the service name before the query runs.
type PrometheusSource struct {
	api     v1.API
	queries map[string]string
	timeout time.Duration
	logger  *logging.Logger
}

// NewPrometheusSource creates a source for the Prometheus server at
// baseURL. queries maps metric names to PromQL templates. A nil logger
// disables logging.
func NewPrometheusSource(baseURL string, queries map[string]string, timeout time.Duration, logger *logging.Logger) (*PrometheusSource, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	client, err := api.NewClient(api.Config{Address: baseURL})
	if err != nil {
		return nil, errors.Wrapf(err, "prometheus client for %s", baseURL)
	}
	return &PrometheusSource{
		api:     v1.NewAPI(client),
		queries: maps.Clone(queries),
		timeout: timeout,
		logger:  logger.WithComponent("prometheus"),
	}, nil
}

// Query executes the metric's template for the service and returns the
// value of the first sample in the result. The templates scope their
// selectors to a single service, so the first sample is the service's
// aggregate.
func (s *PrometheusSource) Query(ctx context.Context, service, metric string) (float64, error) {
	tmpl, ok := s.queries[metric]
	if !ok {
		return 0, errors.NewMetricError(fmt.Sprintf("no query template for %q", metric), errors.ErrMetricUnavailable).
			WithService(service).
			WithMetric(metric)
	}
	query := strings.ReplaceAll(tmpl, ServicePlaceholder, service)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	value, warnings, err := s.api.Query(ctx, query, time.Now())
	if err != nil {
		return 0, errors.NewMetricError("query failed", errors.Join(errors.ErrMetricsUnreachable, err)).
			WithService(service).
			WithMetric(metric)
	}
	if len(warnings) > 0 {
		s.logger.Warn("prometheus query returned warnings",
			"service", service,
			"metric", metric,
			"warnings", warnings)
	}

	switch result := value.(type) {
	case model.Vector:
		if len(result) == 0 {
			return 0, errors.NewMetricError("query returned no samples", errors.ErrMetricUnavailable).
				WithService(service).
				WithMetric(metric)
		}
		return float64(result[0].Value), nil
	case *model.Scalar:
		return float64(result.Value), nil
	default:
		return 0, errors.NewMetricError(fmt.Sprintf("unexpected result type %s", value.Type()), errors.ErrMetricUnavailable).
			WithService(service).
			WithMetric(metric)
	}
}

// Queries returns a copy of the metric-to-template mapping.
func (s *PrometheusSource) Queries() map[string]string {
	return maps.Clone(s.queries)
}
