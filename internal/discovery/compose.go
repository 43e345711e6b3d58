package discovery

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// composeFile is the subset of a compose manifest the scanner reads.
type composeFile struct {
	Services map[string]composeService `yaml:"services"`
}

// composeService mirrors one service entry. Fields compose allows in
// several shapes (list or map, scalar or structured) are declared as
// any and normalized by the parse helpers below.
type composeService struct {
	Image     string         `yaml:"image"`
	Ports     []any          `yaml:"ports"`
	Networks  any            `yaml:"networks"`
	Labels    any            `yaml:"labels"`
	DependsOn any            `yaml:"depends_on"`
	Deploy    *composeDeploy `yaml:"deploy"`
}

type composeDeploy struct {
	Replicas *int `yaml:"replicas"`
	Labels   any  `yaml:"labels"`
}

// parseLabels normalizes the two compose label forms, a mapping or a
// list of "key=value" strings, into a map. Scalar values that YAML
// decoded as bool or int are rendered back to their literal form.
func parseLabels(v any) map[string]string {
	labels := make(map[string]string)
	switch typed := v.(type) {
	case map[string]any:
		for key, value := range typed {
			labels[key] = scalarString(value)
		}
	case []any:
		for _, item := range typed {
			entry, ok := item.(string)
			if !ok {
				continue
			}
			if key, value, found := strings.Cut(entry, "="); found {
				labels[key] = value
			}
		}
	}
	return labels
}

func scalarString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// parseNameList normalizes a compose list-or-mapping field (networks,
// depends_on) into the list of names. Mapping keys are sorted so the
// result does not depend on map iteration order.
func parseNameList(v any) []string {
	switch typed := v.(type) {
	case []any:
		names := make([]string, 0, len(typed))
		for _, item := range typed {
			if s, ok := item.(string); ok {
				names = append(names, s)
			}
		}
		return names
	case map[string]any:
		names := make([]string, 0, len(typed))
		for name := range typed {
			names = append(names, name)
		}
		sort.Strings(names)
		return names
	default:
		return nil
	}
}

// parsePorts extracts the container ports, in declaration order, from
// the three compose port forms: bare int, "ext:int/proto" string, and
// long-form mapping with a target key. Unparsable entries are skipped.
func parsePorts(ports []any) []int {
	var internal []int
	for _, port := range ports {
		switch typed := port.(type) {
		case int:
			internal = append(internal, typed)
		case string:
			if p, ok := parsePortString(typed); ok {
				internal = append(internal, p)
			}
		case map[string]any:
			if target, ok := typed["target"].(int); ok {
				internal = append(internal, target)
			}
		}
	}
	return internal
}

// parsePortString handles "80", "8080:80", "127.0.0.1:8080:80" and
// protocol suffixes like "8080:80/udp". The last colon-separated part
// is the container port.
func parsePortString(s string) (int, bool) {
	parts := strings.Split(s, ":")
	target, _, _ := strings.Cut(parts[len(parts)-1], "/")
	p, err := strconv.Atoi(strings.TrimSpace(target))
	if err != nil || p <= 0 {
		return 0, false
	}
	return p, true
}

// sortedKeys returns the map's keys in sorted order so label scans are
// deterministic.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
