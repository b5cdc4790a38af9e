package k8s

import (
	"context"
	"fmt"

	"github.com/mquery-dev/api/pkg/logging"
	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"
	ctrlzap "sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// Client wraps controller-runtime client for the objects backing the cache
type Client struct {
	client.Client
	scheme *runtime.Scheme
}

// Scheme returns the runtime scheme
func (c *Client) Scheme() *runtime.Scheme {
	return c.scheme
}

// NewScheme returns a scheme with the built-in Kubernetes types registered
func NewScheme() (*runtime.Scheme, error) {
	scheme := runtime.NewScheme()
	if err := clientgoscheme.AddToScheme(scheme); err != nil {
		return nil, fmt.Errorf("failed to add client-go scheme: %w", err)
	}
	return scheme, nil
}

// NewClient creates a new Kubernetes client
// If inCluster is true, uses in-cluster config. Otherwise, uses kubeconfig.
func NewClient(inCluster bool, kubeconfigPath string) (*Client, error) {
	// Set up controller-runtime logger
	log.SetLogger(ctrlzap.New(ctrlzap.UseDevMode(false)))

	var config *rest.Config
	var err error

	if inCluster {
		config, err = rest.InClusterConfig()
		if err != nil {
			logging.Logger.Error("Failed to get in-cluster config", zap.Error(err))
			return nil, fmt.Errorf("failed to get in-cluster config: %w", err)
		}
	} else {
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfigPath)
		if err != nil {
			logging.Logger.Error("Failed to build config from kubeconfig",
				zap.String("kubeconfig", kubeconfigPath),
				zap.Error(err))
			return nil, fmt.Errorf("failed to build config from kubeconfig: %w", err)
		}
	}

	scheme, err := NewScheme()
	if err != nil {
		logging.Logger.Error("Failed to build scheme", zap.Error(err))
		return nil, err
	}

	k8sClient, err := client.New(config, client.Options{Scheme: scheme})
	if err != nil {
		logging.Logger.Error("Failed to create client", zap.Error(err))
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Client{
		Client: k8sClient,
		scheme: scheme,
	}, nil
}

// Wrap adapts an existing controller-runtime client, e.g. a fake one in tests
func Wrap(c client.Client, scheme *runtime.Scheme) *Client {
	return &Client{
		Client: c,
		scheme: scheme,
	}
}

// CreateConfigMap creates a ConfigMap resource
func (c *Client) CreateConfigMap(ctx context.Context, configMap *corev1.ConfigMap) error {
	return c.Create(ctx, configMap)
}

// GetConfigMap retrieves a ConfigMap resource
func (c *Client) GetConfigMap(ctx context.Context, namespace, name string) (*corev1.ConfigMap, error) {
	configMap := &corev1.ConfigMap{}
	if err := c.Get(ctx, client.ObjectKey{Namespace: namespace, Name: name}, configMap); err != nil {
		return nil, err
	}
	return configMap, nil
}

// UpdateConfigMap updates a ConfigMap resource
func (c *Client) UpdateConfigMap(ctx context.Context, configMap *corev1.ConfigMap) error {
	return c.Update(ctx, configMap)
}
