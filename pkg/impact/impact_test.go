package impact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubeblast/kubeblast/pkg/catalog"
	"github.com/kubeblast/kubeblast/pkg/inventory"
)

func testCatalog() *catalog.Catalog {
	return catalog.New(map[string]map[string]catalog.Entry{
		"ns1": {
			"a": {
				Description:  "service a",
				Dependencies: []string{"ns1/b"},
				Criticality:  catalog.CriticalityHigh,
			},
		},
	})
}

func TestResolveCardinality(t *testing.T) {
	instances := []inventory.ContainerInstance{
		{Namespace: "ns1", Pod: "a-0", Container: "a", Node: "n1"},
		{Namespace: "ns1", Pod: "a-1", Container: "a", Node: "n2"},
		{Namespace: "ns1", Pod: "b-0", Container: "b", Node: "n1"},
	}

	records, _ := Resolve(instances, testCatalog(), Options{})
	require.Len(t, records, len(instances))
	for i, record := range records {
		assert.Equal(t, instances[i].Pod, record.Pod)
		assert.Equal(t, instances[i].Node, record.Node)
	}
}

func TestResolveGapDetection(t *testing.T) {
	instances := []inventory.ContainerInstance{
		{Namespace: "ns1", Pod: "a-0", Container: "a", Node: "n1"},
		{Namespace: "ns1", Pod: "b-0", Container: "b", Node: "n1"},
	}

	records, gaps := Resolve(instances, testCatalog(), Options{})

	require.Len(t, gaps, 1)
	assert.Equal(t, Gap{Namespace: "ns1", Container: "b"}, gaps[0])

	require.Len(t, records, 2)
	hit, miss := records[0], records[1]
	assert.Equal(t, catalog.CriticalityHigh, hit.Criticality)
	assert.Equal(t, "service a", hit.Description)
	assert.Equal(t, []string{"ns1/b"}, hit.Dependencies)

	assert.Equal(t, catalog.CriticalityUnknown, miss.Criticality)
	assert.Equal(t, "No information available", miss.Description)
	assert.Empty(t, miss.Dependencies)
	assert.Equal(t, 4, miss.Rank)
	assert.Equal(t, "Unknown impact", miss.Impact)
}

func TestResolveGapPerInstanceByDefault(t *testing.T) {
	// three replicas of the same missing container
	instances := []inventory.ContainerInstance{
		{Namespace: "ns1", Pod: "b-0", Container: "b", Node: "n1"},
		{Namespace: "ns1", Pod: "b-1", Container: "b", Node: "n2"},
		{Namespace: "ns1", Pod: "b-2", Container: "b", Node: "n3"},
	}

	_, gaps := Resolve(instances, testCatalog(), Options{})
	assert.Len(t, gaps, 3)

	_, gaps = Resolve(instances, testCatalog(), Options{DedupeGaps: true})
	assert.Len(t, gaps, 1)
}

func TestResolveEmpty(t *testing.T) {
	records, gaps := Resolve(nil, testCatalog(), Options{})
	assert.Empty(t, records)
	assert.Empty(t, gaps)
}

func TestResolveImpactDerivedFromCriticalityOnly(t *testing.T) {
	cat := catalog.New(map[string]map[string]catalog.Entry{
		"ns1": {
			"a": {Description: "x", Criticality: catalog.CriticalityHigh},
			"b": {Description: "y", Criticality: catalog.CriticalityMedium},
			"c": {Description: "z", Criticality: catalog.CriticalityLow},
		},
	})
	instances := []inventory.ContainerInstance{
		{Namespace: "ns1", Container: "a"},
		{Namespace: "ns1", Container: "b"},
		{Namespace: "ns1", Container: "c"},
		{Namespace: "ns1", Container: "d"},
	}

	records, _ := Resolve(instances, cat, Options{})
	require.Len(t, records, 4)
	assert.Equal(t, "High impact", records[0].Impact)
	assert.Equal(t, 1, records[0].Rank)
	assert.Equal(t, "Moderate impact", records[1].Impact)
	assert.Equal(t, 2, records[1].Rank)
	assert.Equal(t, "Low impact", records[2].Impact)
	assert.Equal(t, 3, records[2].Rank)
	assert.Equal(t, "Unknown impact", records[3].Impact)
	assert.Equal(t, 4, records[3].Rank)
}

func TestRecordFullName(t *testing.T) {
	record := Record{Namespace: "ns1", Container: "a"}
	assert.Equal(t, "ns1/a", record.FullName())
}
