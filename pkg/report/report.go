package report

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/kubeblast/kubeblast/pkg/impact"
)

// Sorted returns a copy of records ordered by criticality rank ascending,
// with ties broken by namespace then container name. The input is never
// mutated, every view derives fresh data from the shared snapshot.
func Sorted(records []impact.Record) []impact.Record {
	out := make([]impact.Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		if out[i].Namespace != out[j].Namespace {
			return out[i].Namespace < out[j].Namespace
		}
		return out[i].Container < out[j].Container
	})
	return out
}

// HighCount returns the number of records with high criticality.
func HighCount(records []impact.Record) int {
	n := 0
	for _, record := range records {
		if record.Rank == 1 {
			n++
		}
	}
	return n
}

// Nodes returns the distinct node names in the record set, ascending.
func Nodes(records []impact.Record) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, record := range records {
		if _, ok := seen[record.Node]; ok {
			continue
		}
		seen[record.Node] = struct{}{}
		names = append(names, record.Node)
	}
	sort.Strings(names)
	return names
}

// Tabular renders the record set as a fixed-width table, sorted by
// severity. Column widths follow the widest cell in the current set. The
// node column is only emitted when the report spans multiple nodes.
func Tabular(records []impact.Record, includeNode bool) string {
	sorted := Sorted(records)

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoWrapText(false)

	header := []string{"Container"}
	if includeNode {
		header = append(header, "Node")
	}
	header = append(header, "Criticality", "Dependencies")
	table.SetHeader(header)

	for _, record := range sorted {
		row := []string{record.FullName()}
		if includeNode {
			row = append(row, record.Node)
		}
		row = append(row, capitalize(string(record.Criticality)), joinDependencies(record.Dependencies))
		table.Append(row)
	}
	table.Render()

	return buf.String()
}

// Narrative renders one text block per record for a single-node report,
// matching the long-form assessment output.
func Narrative(records []impact.Record, node string) string {
	sorted := Sorted(records)

	var b strings.Builder
	fmt.Fprintf(&b, "Impact Assessment Report for node %s\n", node)
	b.WriteString(strings.Repeat("=", 40) + "\n")
	for _, record := range sorted {
		fmt.Fprintf(&b, "Namespace: %s\n", record.Namespace)
		fmt.Fprintf(&b, "Pod: %s\n", record.Pod)
		fmt.Fprintf(&b, "Container: %s\n", record.Container)
		fmt.Fprintf(&b, "Description: %s\n", record.Description)
		fmt.Fprintf(&b, "Dependencies: %s\n", joinDependencies(record.Dependencies))
		fmt.Fprintf(&b, "Criticality: %s\n", record.Criticality)
		fmt.Fprintf(&b, "Impact: %s\n", record.Impact)
		b.WriteString(strings.Repeat("-", 40) + "\n")
	}
	return b.String()
}

// PerNode renders one tabular section per node, partitions ordered by
// node name ascending.
func PerNode(records []impact.Record) string {
	var b strings.Builder
	for i, node := range Nodes(records) {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Node: %s\n", node)
		b.WriteString(Tabular(filterNode(records, node), false))
	}
	return b.String()
}

// Consolidated groups the record set by node, each group sorted by
// severity. The result serializes to the consolidated export document.
func Consolidated(records []impact.Record) map[string][]impact.Record {
	grouped := make(map[string][]impact.Record)
	for _, node := range Nodes(records) {
		grouped[node] = Sorted(filterNode(records, node))
	}
	return grouped
}

func filterNode(records []impact.Record, node string) []impact.Record {
	out := make([]impact.Record, 0)
	for _, record := range records {
		if record.Node == node {
			out = append(out, record)
		}
	}
	return out
}

func joinDependencies(dependencies []string) string {
	if len(dependencies) == 0 {
		return "None"
	}
	return strings.Join(dependencies, ", ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
