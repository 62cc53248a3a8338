package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/kubeblast/kubeblast/pkg/catalog"
	"github.com/kubeblast/kubeblast/pkg/flag"
	"github.com/kubeblast/kubeblast/pkg/inventory"
	"github.com/kubeblast/kubeblast/pkg/report"
)

type fakeCluster struct {
	clientset kubernetes.Interface
}

func (f *fakeCluster) GetCurrentContext() string             { return "test-context" }
func (f *fakeCluster) GetCurrentNamespace() string           { return "default" }
func (f *fakeCluster) GetClusterName() string                { return "test-cluster" }
func (f *fakeCluster) GetK8sClientSet() kubernetes.Interface { return f.clientset }

func testSession(t *testing.T, opts flag.Options, objects ...*corev1.Pod) *session {
	t.Helper()

	clientset := fake.NewSimpleClientset()
	for _, pod := range objects {
		_, err := clientset.CoreV1().Pods(pod.Namespace).Create(context.Background(), pod, metav1.CreateOptions{})
		require.NoError(t, err)
	}

	cluster := &fakeCluster{clientset: clientset}
	return &session{
		opts:      opts,
		logger:    zap.NewNop().Sugar(),
		cluster:   cluster,
		collector: inventory.NewCollector(cluster, zap.NewNop().Sugar(), inventory.WithTimeout(opts.Timeout)),
		writer:    report.NewWriter(opts.OutputDir),
	}
}

func testPod(namespace, name, node string, containers ...string) *corev1.Pod {
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace},
		Spec:       corev1.PodSpec{NodeName: node},
	}
	for _, c := range containers {
		pod.Spec.Containers = append(pod.Spec.Containers, corev1.Container{Name: c})
	}
	return pod
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestScopeSelection(t *testing.T) {
	s := &session{opts: flag.Options{Node: "worker-1"}}
	scope, err := s.scope()
	require.NoError(t, err)
	assert.False(t, scope.All())
	assert.Equal(t, "worker-1", scope.Node())

	s = &session{opts: flag.Options{AllNodes: true}}
	scope, err = s.scope()
	require.NoError(t, err)
	assert.True(t, scope.All())

	s = &session{opts: flag.Options{}}
	_, err = s.scope()
	assert.Error(t, err)
}

func TestContextLabel(t *testing.T) {
	s := &session{}
	assert.Equal(t, "all_nodes", s.contextLabel(inventory.AllNodes()))
	assert.Equal(t, "worker-1", s.contextLabel(inventory.SingleNode("worker-1")))
}

func TestAssessEndToEnd(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "container_info.yaml")
	realCatalog := `
default:
  web:
    description: frontend
    dependencies: ["default/api"]
    criticality: high
`
	require.NoError(t, writeFile(catalogPath, realCatalog))

	opts := flag.Options{
		CatalogPath: catalogPath,
		OutputDir:   dir,
		Timeout:     10 * time.Second,
		CacheTTL:    time.Hour,
		NoCache:     true,
	}
	s := testSession(t, opts,
		testPod("default", "web-0", "worker-1", "web"),
		testPod("default", "mystery-0", "worker-1", "mystery"),
	)

	records, gaps, err := s.assess(context.Background(), inventory.SingleNode("worker-1"))
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Len(t, gaps, 1)
	assert.Equal(t, "mystery", gaps[0].Container)
}

func TestAssessCatalogMissingIsFatal(t *testing.T) {
	dir := t.TempDir()
	opts := flag.Options{
		CatalogPath: filepath.Join(dir, "nope.yaml"),
		OutputDir:   dir,
		Timeout:     10 * time.Second,
		NoCache:     true,
	}
	s := testSession(t, opts)

	_, _, err := s.assess(context.Background(), inventory.AllNodes())
	assert.ErrorIs(t, err, catalog.ErrUnavailable)
}

func TestPodsUsesCache(t *testing.T) {
	dir := t.TempDir()
	opts := flag.Options{
		OutputDir: dir,
		Timeout:   10 * time.Second,
		CacheTTL:  time.Hour,
	}
	s := testSession(t, opts, testPod("default", "web-0", "worker-1", "web"))

	// first call hits the cluster and fills the cache
	pods, err := s.pods(context.Background())
	require.NoError(t, err)
	require.Len(t, pods, 1)

	// second call is served from the snapshot even with an empty cluster
	s2 := testSession(t, opts)
	pods, err = s2.pods(context.Background())
	require.NoError(t, err)
	require.Len(t, pods, 1)
	assert.Equal(t, "web-0", pods[0].Name)
}
