package k8s

import (
	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	// import auth plugins
	_ "k8s.io/client-go/plugin/pkg/client/auth"
)

// Cluster interface represents the operations needed to read an inventory
// from a kubernetes cluster
type Cluster interface {
	// GetCurrentContext returns local kubernetes current-context
	GetCurrentContext() string
	// GetCurrentNamespace returns local kubernetes current namespace
	GetCurrentNamespace() string
	// GetClusterName returns the name of the cluster behind the current context
	GetClusterName() string
	// GetK8sClientSet returns a k8s client set
	GetK8sClientSet() kubernetes.Interface
}

type cluster struct {
	currentContext   string
	currentNamespace string
	clusterName      string
	clientset        kubernetes.Interface
}

type ClusterOption func(*genericclioptions.ConfigFlags)

// Specify the context to use, if empty uses default
func WithContext(context string) ClusterOption {
	return func(c *genericclioptions.ConfigFlags) {
		c.Context = &context
	}
}

// kubeconfig can be used to specify the config file path (overrides KUBECONFIG env)
func WithKubeConfig(kubeConfig string) ClusterOption {
	return func(c *genericclioptions.ConfigFlags) {
		c.KubeConfig = &kubeConfig
	}
}

// GetCluster returns a current configured cluster,
func GetCluster(opts ...ClusterOption) (Cluster, error) {
	cf := genericclioptions.NewConfigFlags(true)
	for _, opt := range opts {
		opt(cf)
	}

	// disable warnings
	rest.SetDefaultWarningHandler(rest.NoWarnings{})

	return getCluster(cf.ToRawKubeConfigLoader(), *cf.Context)
}

func getCluster(clientConfig clientcmd.ClientConfig, currentContext string) (*cluster, error) {
	kubeConfig, err := clientConfig.ClientConfig()
	if err != nil {
		return nil, err
	}

	clientset, err := kubernetes.NewForConfig(kubeConfig)
	if err != nil {
		return nil, err
	}

	rawCfg, err := clientConfig.RawConfig()
	if err != nil {
		return nil, err
	}

	if len(currentContext) == 0 {
		currentContext = rawCfg.CurrentContext
	}

	var namespace string
	var clusterName string
	if context, ok := rawCfg.Contexts[currentContext]; ok {
		namespace = context.Namespace
		clusterName = context.Cluster
	}
	if len(namespace) == 0 {
		namespace = "default"
	}

	return &cluster{
		currentContext:   currentContext,
		currentNamespace: namespace,
		clusterName:      clusterName,
		clientset:        clientset,
	}, nil
}

// GetCurrentContext returns local kubernetes current-context
func (c *cluster) GetCurrentContext() string {
	return c.currentContext
}

// GetCurrentNamespace returns local kubernetes current namespace
func (c *cluster) GetCurrentNamespace() string {
	return c.currentNamespace
}

// GetClusterName returns the cluster name from the selected context
func (c *cluster) GetClusterName() string {
	return c.clusterName
}

// GetK8sClientSet returns k8s clientSet
func (c *cluster) GetK8sClientSet() kubernetes.Interface {
	return c.clientset
}
