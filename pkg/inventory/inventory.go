package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/kubeblast/kubeblast/pkg/k8s"
)

// ErrSourceUnavailable is returned when the cluster inventory cannot be
// retrieved, including when the retrieval deadline expires. It is fatal
// for the run.
var ErrSourceUnavailable = errors.New("inventory source unavailable")

// UnknownNode labels instances from pods that have not been scheduled yet.
const UnknownNode = "Unknown"

const defaultTimeout = 30 * time.Second

// ContainerInstance is one running container normalized out of a pod
// record. It has no identity across runs, a pod restart changes it.
type ContainerInstance struct {
	Namespace string `json:"namespace"`
	Pod       string `json:"pod"`
	Container string `json:"container"`
	Node      string `json:"node"`
}

// Scope selects which part of the cluster an assessment covers.
type Scope struct {
	node string
}

// SingleNode scopes the assessment to one node by name.
func SingleNode(name string) Scope {
	return Scope{node: name}
}

// AllNodes scopes the assessment to the whole cluster.
func AllNodes() Scope {
	return Scope{}
}

// All reports whether the scope covers every node.
func (s Scope) All() bool {
	return s.node == ""
}

// Node returns the node name for a single-node scope, empty otherwise.
func (s Scope) Node() string {
	return s.node
}

// Extract normalizes pod records into container instances, one per
// (pod, container) pair. Under a single-node scope only pods scheduled on
// that node are kept; under the all-nodes scope unscheduled pods are
// labeled with UnknownNode. Output order is not guaranteed.
func Extract(pods []corev1.Pod, scope Scope) []ContainerInstance {
	instances := make([]ContainerInstance, 0, len(pods))
	for _, pod := range pods {
		node := pod.Spec.NodeName
		if !scope.All() {
			if node != scope.Node() {
				continue
			}
		} else if node == "" {
			node = UnknownNode
		}
		for _, container := range pod.Spec.Containers {
			instances = append(instances, ContainerInstance{
				Namespace: pod.Namespace,
				Pod:       pod.Name,
				Container: container.Name,
				Node:      node,
			})
		}
	}
	return instances
}

// Collector reads nodes and pods from a cluster with a bounded deadline.
type Collector struct {
	cluster k8s.Cluster
	logger  *zap.SugaredLogger
	timeout time.Duration
}

type CollectorOption func(*Collector)

// WithTimeout overrides the retrieval deadline for cluster calls.
func WithTimeout(timeout time.Duration) CollectorOption {
	return func(c *Collector) {
		c.timeout = timeout
	}
}

// NewCollector creates an inventory collector for the given cluster.
func NewCollector(cluster k8s.Cluster, logger *zap.SugaredLogger, opts ...CollectorOption) *Collector {
	c := &Collector{
		cluster: cluster,
		logger:  logger,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListNodes returns the cluster node names sorted ascending.
func (c *Collector) ListNodes(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	nodes, err := c.cluster.GetK8sClientSet().CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, sourceErr("listing nodes", err)
	}

	names := make([]string, 0, len(nodes.Items))
	for _, node := range nodes.Items {
		names = append(names, node.Name)
	}
	sort.Strings(names)
	return names, nil
}

// ListPods returns all pods across all namespaces.
func (c *Collector) ListPods(ctx context.Context) ([]corev1.Pod, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	pods, err := c.cluster.GetK8sClientSet().CoreV1().Pods(corev1.NamespaceAll).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, sourceErr("listing pods", err)
	}

	c.logger.Debugf("collected %d pods from context %q", len(pods.Items), c.cluster.GetCurrentContext())
	return pods.Items, nil
}

func sourceErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s timed out: %v", ErrSourceUnavailable, op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, op, err)
}
