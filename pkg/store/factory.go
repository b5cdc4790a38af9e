package store

import (
	"context"
	"fmt"

	"github.com/mquery-dev/api/pkg/config"
	"github.com/mquery-dev/api/pkg/k8s"
	"github.com/mquery-dev/api/pkg/logging"
	"go.uber.org/zap"
)

// New creates the document store selected by the configuration
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.StoreMemory:
		logging.Logger.Info("Initialized in-memory document store")
		return NewMemoryStore(), nil

	case config.StoreFile:
		fileStore, err := NewFileStore(cfg.Path, cfg.SaveInterval)
		if err != nil {
			return nil, err
		}
		logging.Logger.Info("Initialized file-based document store",
			zap.String("path", cfg.Path))
		return fileStore, nil

	case config.StoreSQLite:
		return newSQLStoreLogged(ctx, DialectSQLite, cfg.Path, cfg.Table)

	case config.StoreMySQL:
		return newSQLStoreLogged(ctx, DialectMySQL, cfg.DSN, cfg.Table)

	case config.StorePostgres:
		return newSQLStoreLogged(ctx, DialectPostgres, cfg.DSN, cfg.Table)

	case config.StoreConfigMap:
		k8sClient, err := k8s.NewClient(cfg.InCluster, cfg.Kubeconfig)
		if err != nil {
			return nil, err
		}
		if err := k8sClient.EnsureNamespace(ctx, cfg.Namespace); err != nil {
			return nil, fmt.Errorf("failed to ensure namespace %s: %w", cfg.Namespace, err)
		}
		logging.Logger.Info("Initialized configmap document store",
			zap.String("namespace", cfg.Namespace))
		return NewConfigMapStore(k8sClient, cfg.Namespace), nil
	}

	return nil, fmt.Errorf("unsupported store backend: %s", cfg.Backend)
}

func newSQLStoreLogged(ctx context.Context, dialect SQLDialect, dsn, table string) (Store, error) {
	sqlStore, err := NewSQLStore(ctx, dialect, dsn, table)
	if err != nil {
		return nil, err
	}
	logging.Logger.Info("Initialized sql document store",
		zap.String("dialect", string(dialect)),
		zap.String("table", table))
	return sqlStore, nil
}
