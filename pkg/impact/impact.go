package impact

import (
	"fmt"

	"github.com/kubeblast/kubeblast/pkg/catalog"
	"github.com/kubeblast/kubeblast/pkg/inventory"
)

// defaultDescription is substituted for containers missing from the catalog.
const defaultDescription = "No information available"

// Record is the joined, report-ready representation of one running
// container instance. Rank and Impact are derived from Criticality alone.
type Record struct {
	Namespace    string              `json:"namespace"`
	Pod          string              `json:"pod"`
	Container    string              `json:"container"`
	Node         string              `json:"node"`
	Description  string              `json:"description"`
	Dependencies []string            `json:"dependencies"`
	Criticality  catalog.Criticality `json:"criticality"`
	Rank         int                 `json:"criticality_rank"`
	Impact       string              `json:"impact"`
}

// FullName returns the namespace-qualified container name.
func (r Record) FullName() string {
	return fmt.Sprintf("%s/%s", r.Namespace, r.Container)
}

// Gap marks a container present in the inventory but absent from the
// catalog. Gaps are warnings, they never block reporting.
type Gap struct {
	Namespace string `json:"namespace"`
	Container string `json:"container"`
}

// Options tunes resolution behavior.
type Options struct {
	// DedupeGaps collapses repeated gaps for the same (namespace,
	// container) pair, e.g. across pod replicas. Off by default: one gap
	// per instance keeps repeated operational holes visible.
	DedupeGaps bool
}

// Resolve joins every container instance against the catalog. It is total:
// each instance yields exactly one record, with catalog misses falling back
// to the unknown tuple and recorded as gaps.
func Resolve(instances []inventory.ContainerInstance, cat *catalog.Catalog, opts Options) ([]Record, []Gap) {
	records := make([]Record, 0, len(instances))
	gaps := make([]Gap, 0)
	seen := make(map[Gap]struct{})

	for _, instance := range instances {
		entry, ok := cat.Lookup(instance.Namespace, instance.Container)
		if !ok {
			entry = catalog.Entry{
				Description:  defaultDescription,
				Dependencies: []string{},
				Criticality:  catalog.CriticalityUnknown,
			}
			gap := Gap{Namespace: instance.Namespace, Container: instance.Container}
			if _, dup := seen[gap]; !opts.DedupeGaps || !dup {
				gaps = append(gaps, gap)
			}
			seen[gap] = struct{}{}
		}

		records = append(records, Record{
			Namespace:    instance.Namespace,
			Pod:          instance.Pod,
			Container:    instance.Container,
			Node:         instance.Node,
			Description:  entry.Description,
			Dependencies: entry.Dependencies,
			Criticality:  entry.Criticality,
			Rank:         entry.Criticality.Rank(),
			Impact:       entry.Criticality.ImpactLabel(),
		})
	}

	return records, gaps
}
