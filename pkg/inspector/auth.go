package inspector

import (
	"context"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/authn/k8schain"
	"github.com/mquery-dev/api/pkg/logging"
	"go.uber.org/zap"
)

// GetK8sKeychain returns a keychain that uses Kubernetes authentication.
// This automatically discovers:
// - Image pull secrets from the pod's service account
// - Node IAM credentials (ECR on AWS, Workload Identity on GCP)
// - Docker config files (~/.docker/config.json)
func GetK8sKeychain(ctx context.Context) (authn.Keychain, error) {
	logging.Logger.Info("Initializing Kubernetes authentication keychain for container registries")

	keychain, err := k8schain.NewInCluster(ctx, k8schain.Options{})
	if err != nil {
		logging.Logger.Warn("Failed to initialize K8s keychain, falling back to default keychain",
			zap.Error(err))
		return nil, err
	}

	logging.Logger.Info("Successfully initialized K8s authentication keychain",
		zap.String("auth_method", "k8schain"))

	return keychain, nil
}
