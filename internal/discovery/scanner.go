package discovery

import (
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/tsm-sh/tsm/internal/config"
	"github.com/tsm-sh/tsm/internal/errors"
	"github.com/tsm-sh/tsm/internal/logging"
)

// Scanner discovers services from a compose manifest and resolves each
// service's routing and scaling configuration.
type Scanner struct {
	cfg    *config.Config
	logger *logging.Logger
}

// New creates a scanner. A nil logger disables logging.
func New(cfg *config.Config, logger *logging.Logger) *Scanner {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Scanner{
		cfg:    cfg,
		logger: logger.WithComponent("discovery"),
	}
}

// ListServices parses the manifest at path and returns its services
// sorted by name. A missing file maps to ErrManifestNotFound and
// unparsable YAML to ErrManifestInvalid; both abort the caller's tick.
// A manifest without services yields an empty list, not an error.
func (s *Scanner) ListServices(path string) ([]Service, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrManifestNotFound, "%s", path)
		}
		return nil, errors.Wrapf(err, "read manifest %s", path)
	}

	var file composeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrapf(errors.Join(errors.ErrManifestInvalid, err), "parse manifest %s", path)
	}
	if len(file.Services) == 0 {
		s.logger.Warn("manifest contains no services", "path", path)
		return []Service{}, nil
	}

	services := make([]Service, 0, len(file.Services))
	for name, entry := range file.Services {
		services = append(services, s.buildService(name, entry))
	}
	sort.Slice(services, func(i, j int) bool {
		return services[i].Name < services[j].Name
	})

	s.logger.Debug("discovered services", "path", path, "count", len(services))
	return services, nil
}

// buildService assembles one service descriptor. Malformed scaling
// labels leave the service unscalable but never drop it from the list;
// it still needs routing.
func (s *Scanner) buildService(name string, entry composeService) Service {
	labels := parseLabels(entry.Labels)
	declared := 1
	if entry.Deploy != nil {
		for key, value := range parseLabels(entry.Deploy.Labels) {
			labels[key] = value
		}
		if entry.Deploy.Replicas != nil {
			declared = *entry.Deploy.Replicas
		}
	}

	svc := Service{
		Name:      name,
		Image:     entry.Image,
		Replicas:  declared,
		Networks:  parseNameList(entry.Networks),
		Labels:    labels,
		DependsOn: parseNameList(entry.DependsOn),
	}
	applyTraefikLabels(&svc, parsePorts(entry.Ports))

	rule, err := s.resolveRule(name, labels)
	if err != nil {
		s.logger.Warn("invalid scaling labels, service will not scale",
			"service", name,
			"error", err)
	}
	svc.Rule = rule
	if rule != nil {
		svc.Priority = rule.Priority
	} else {
		svc.Priority = s.cfg.Scaling.Rule(name).Priority
	}
	return svc
}
