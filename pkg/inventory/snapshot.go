package inventory

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	ms "github.com/mitchellh/mapstructure"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Snapshot is the on-disk form of a point-in-time pod inventory. Pods are
// stored as generic documents trimmed to the fields the assessment reads,
// so the cache survives api type bumps.
type Snapshot struct {
	TakenAt time.Time                `json:"takenAt"`
	Pods    []map[string]interface{} `json:"pods"`
}

// Cache persists a raw inventory snapshot and serves it back while fresh.
type Cache struct {
	path string
	ttl  time.Duration
}

// NewCache creates a snapshot cache at path with the given freshness window.
func NewCache(path string, ttl time.Duration) *Cache {
	return &Cache{path: path, ttl: ttl}
}

// Save writes the pod inventory to disk, replacing any previous snapshot.
func (c *Cache) Save(pods []corev1.Pod) error {
	snapshot := Snapshot{
		TakenAt: time.Now().UTC(),
		Pods:    make([]map[string]interface{}, 0, len(pods)),
	}
	for _, pod := range pods {
		containers := make([]map[string]interface{}, 0, len(pod.Spec.Containers))
		for _, container := range pod.Spec.Containers {
			containers = append(containers, map[string]interface{}{"name": container.Name})
		}
		snapshot.Pods = append(snapshot.Pods, map[string]interface{}{
			"metadata": map[string]interface{}{
				"name":      pod.Name,
				"namespace": pod.Namespace,
			},
			"spec": map[string]interface{}{
				"nodeName":   pod.Spec.NodeName,
				"containers": containers,
			},
		})
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("serializing inventory snapshot: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("writing inventory snapshot: %w", err)
	}
	return nil
}

// Load returns the cached pod inventory if a snapshot exists and is still
// within the freshness window. The second return value reports a usable
// hit; a missing or stale snapshot is not an error.
func (c *Cache) Load() ([]corev1.Pod, bool, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading inventory snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, false, fmt.Errorf("parsing inventory snapshot: %w", err)
	}
	if time.Since(snapshot.TakenAt) > c.ttl {
		return nil, false, nil
	}

	pods := make([]corev1.Pod, 0, len(snapshot.Pods))
	for _, doc := range snapshot.Pods {
		pod, err := podFromDocument(doc)
		if err != nil {
			return nil, false, fmt.Errorf("parsing inventory snapshot: %w", err)
		}
		pods = append(pods, pod)
	}
	return pods, true, nil
}

type podRecord struct {
	Metadata struct {
		Name      string `mapstructure:"name"`
		Namespace string `mapstructure:"namespace"`
	} `mapstructure:"metadata"`
	Spec struct {
		NodeName   string `mapstructure:"nodeName"`
		Containers []struct {
			Name string `mapstructure:"name"`
		} `mapstructure:"containers"`
	} `mapstructure:"spec"`
}

func podFromDocument(doc map[string]interface{}) (corev1.Pod, error) {
	var record podRecord
	if err := ms.Decode(doc, &record); err != nil {
		return corev1.Pod{}, err
	}

	pod := corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      record.Metadata.Name,
			Namespace: record.Metadata.Namespace,
		},
		Spec: corev1.PodSpec{
			NodeName: record.Spec.NodeName,
		},
	}
	for _, container := range record.Spec.Containers {
		pod.Spec.Containers = append(pod.Spec.Containers, corev1.Container{Name: container.Name})
	}
	return pod, nil
}
