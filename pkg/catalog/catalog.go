package catalog

import (
	"errors"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// ErrUnavailable is returned when the catalog document cannot be loaded.
// Callers treat it as a fatal precondition for any catalog-backed report.
var ErrUnavailable = errors.New("catalog unavailable")

// Criticality classifies how severe losing a container is.
type Criticality string

const (
	CriticalityHigh    Criticality = "high"
	CriticalityMedium  Criticality = "medium"
	CriticalityLow     Criticality = "low"
	CriticalityUnknown Criticality = "unknown"
)

// Rank returns the sort key for a criticality, lower sorts first.
func (c Criticality) Rank() int {
	switch c {
	case CriticalityHigh:
		return 1
	case CriticalityMedium:
		return 2
	case CriticalityLow:
		return 3
	default:
		return 4
	}
}

// ImpactLabel maps a criticality to its human readable impact phrase.
func (c Criticality) ImpactLabel() string {
	switch c {
	case CriticalityHigh:
		return "High impact"
	case CriticalityMedium:
		return "Moderate impact"
	case CriticalityLow:
		return "Low impact"
	default:
		return "Unknown impact"
	}
}

// Valid reports whether c is a value allowed in a catalog document.
// "unknown" is reserved for containers absent from the catalog and is
// never accepted on disk.
func (c Criticality) Valid() bool {
	switch c {
	case CriticalityHigh, CriticalityMedium, CriticalityLow:
		return true
	}
	return false
}

// Entry holds the curated metadata for one known container.
type Entry struct {
	Description  string      `json:"description"`
	Dependencies []string    `json:"dependencies"`
	Criticality  Criticality `json:"criticality"`
}

// Catalog is an immutable two-level index: namespace, then container name.
type Catalog struct {
	entries map[string]map[string]Entry
}

// New builds a catalog from an already-validated entry map. Most callers
// want Load.
func New(entries map[string]map[string]Entry) *Catalog {
	return &Catalog{entries: entries}
}

// Load reads and validates a catalog document. The document is a YAML or
// JSON mapping of namespace to container name to entry. Loading is
// all-or-nothing: any malformed entry fails the whole load rather than
// silently downgrading a known container to unknown.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s not found, run the template command to generate one", ErrUnavailable, path)
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrUnavailable, path, err)
	}

	var entries map[string]map[string]Entry
	if err := yaml.UnmarshalStrict(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrUnavailable, path, err)
	}

	for namespace, containers := range entries {
		for name, entry := range containers {
			if !entry.Criticality.Valid() {
				return nil, fmt.Errorf("%w: %s: entry %s/%s has criticality %q, want one of high, medium, low",
					ErrUnavailable, path, namespace, name, entry.Criticality)
			}
		}
	}

	return &Catalog{entries: entries}, nil
}

// Lookup returns the entry for the given namespace and container name.
// Exact match only.
func (c *Catalog) Lookup(namespace, name string) (Entry, bool) {
	containers, ok := c.entries[namespace]
	if !ok {
		return Entry{}, false
	}
	entry, ok := containers[name]
	return entry, ok
}

// Len returns the number of entries across all namespaces.
func (c *Catalog) Len() int {
	n := 0
	for _, containers := range c.entries {
		n += len(containers)
	}
	return n
}
