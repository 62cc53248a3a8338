package k8s

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

func TestGetCurrentNamespace(t *testing.T) {
	tests := []struct {
		Name              string
		Namespace         string
		ExpectedNamespace string
	}{
		{
			Name:              "empty namespace",
			ExpectedNamespace: "default",
		},
		{
			Name:              "non empty namespace",
			Namespace:         "namespace",
			ExpectedNamespace: "namespace",
		},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			fakeConfig := createValidTestConfig(test.Namespace)
			cluster, err := getCluster(fakeConfig, "")
			assert.NoError(t, err)
			assert.Equal(t, test.ExpectedNamespace, cluster.GetCurrentNamespace())
		})
	}
}

func TestGetCurrentContext(t *testing.T) {
	fakeConfig := createValidTestConfig("")

	cluster, err := getCluster(fakeConfig, "")
	assert.NoError(t, err)
	assert.Equal(t, "cluster1", cluster.GetCurrentContext())
	assert.Equal(t, "cluster1", cluster.GetClusterName())

	cluster, err = getCluster(fakeConfig, "cluster1")
	assert.NoError(t, err)
	assert.Equal(t, "cluster1", cluster.GetCurrentContext())
}

func createValidTestConfig(namespace string) clientcmd.ClientConfig {
	const (
		server = "https://anything.com:8080"
		token  = "the-token"
	)

	config := clientcmdapi.NewConfig()

	config.CurrentContext = "cluster1"
	config.Clusters["cluster1"] = &clientcmdapi.Cluster{Server: server}
	config.AuthInfos["cluster1"] = &clientcmdapi.AuthInfo{Token: token}
	config.Contexts["cluster1"] = &clientcmdapi.Context{
		Cluster:   "cluster1",
		AuthInfo:  "cluster1",
		Namespace: namespace,
	}

	return clientcmd.NewNonInteractiveClientConfig(*config, "cluster1", &clientcmd.ConfigOverrides{}, nil)
}
