package inspector

import (
	"context"
	"fmt"

	"github.com/mquery-dev/api/pkg/archlist"
	"github.com/mquery-dev/api/pkg/config"
	"github.com/mquery-dev/api/pkg/logging"
	"go.uber.org/zap"
)

// New creates the inspector selected by the configuration
func New(ctx context.Context, cfg config.InspectorConfig) (archlist.Inspector, error) {
	switch cfg.Backend {
	case config.InspectorRegistry:
		opts := []RegistryOption{
			WithTimeout(cfg.Timeout),
			WithFallback(NewContainersInspector()),
		}
		if cfg.K8sAuth {
			// Falls back to the default keychain if K8s authentication is unavailable
			if keychain, err := GetK8sKeychain(ctx); err == nil {
				opts = append(opts, WithKeychain(keychain))
			}
		}
		logging.Logger.Info("Initialized registry inspector",
			zap.Bool("k8s_auth", cfg.K8sAuth),
			zap.Duration("timeout", cfg.Timeout))
		return NewRegistryInspector(opts...), nil

	case config.InspectorDaemon:
		daemon, err := NewDaemonInspector()
		if err != nil {
			return nil, err
		}
		logging.Logger.Info("Initialized docker daemon inspector")
		return daemon, nil
	}

	return nil, fmt.Errorf("unsupported inspector backend: %s", cfg.Backend)
}
